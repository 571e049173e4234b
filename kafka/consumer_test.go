package kafka

import (
	"context"
	"fmt"
	"testing"
)

func TestTypedMessageHandlerProcessesValidMessage(t *testing.T) {
	var got *PaperEvent
	handler := &TypedMessageHandler[PaperEvent]{
		Validate: func(msg *PaperEvent) bool { return msg.Stage != "" },
		Process: func(_ context.Context, msg *PaperEvent) error {
			got = msg
			return nil
		},
	}

	mark, err := handler.HandleMessage(context.Background(), []byte(`{"stage":"crawled","papers":[]}`))
	if err != nil || !mark {
		t.Fatalf("expected marked success, got mark=%v err=%v", mark, err)
	}
	if got == nil || got.Stage != "crawled" {
		t.Fatalf("message not decoded: %+v", got)
	}
}

func TestTypedMessageHandlerSkipsPoisonMessages(t *testing.T) {
	handler := &TypedMessageHandler[PaperEvent]{
		Process:    func(context.Context, *PaperEvent) error { t.Fatal("should not process"); return nil },
		AlwaysMark: true,
	}

	mark, err := handler.HandleMessage(context.Background(), []byte(`not json`))
	if err != nil {
		t.Fatalf("poison message should not error: %v", err)
	}
	if !mark {
		t.Fatal("poison message should be marked to avoid wedging the partition")
	}
}

func TestTypedMessageHandlerRetriesOnProcessError(t *testing.T) {
	handler := &TypedMessageHandler[RecommendationEvent]{
		Process: func(context.Context, *RecommendationEvent) error {
			return fmt.Errorf("store unavailable")
		},
	}

	mark, err := handler.HandleMessage(context.Background(), []byte(`{"user_id":"u1","count":1}`))
	if err == nil {
		t.Fatal("expected processing error surfaced")
	}
	if mark {
		t.Fatal("failed message must stay unmarked for retry")
	}
}

func TestTypedMessageHandlerValidationFailure(t *testing.T) {
	handler := &TypedMessageHandler[PaperEvent]{
		Validate: func(msg *PaperEvent) bool { return msg.Stage == "enriched" },
		Process:  func(context.Context, *PaperEvent) error { t.Fatal("should not process"); return nil },
	}

	mark, err := handler.HandleMessage(context.Background(), []byte(`{"stage":"crawled"}`))
	if err != nil || mark {
		t.Fatalf("invalid message without AlwaysMark should stay unmarked: mark=%v err=%v", mark, err)
	}
}
