package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"paperbot/api"
	"paperbot/archive"
	"paperbot/arxiv"
	"paperbot/clustering"
	"paperbot/email"
	"paperbot/ingest"
	"paperbot/kafka"
	"paperbot/orchestrator"
	"paperbot/scheduler"
	"paperbot/store"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	// Parse command-line flags
	port := flag.String("port", "8080", "HTTP API port")
	topicsFlag := flag.String("topics", "", "Comma-separated crawl topics (overrides CRAWL_TOPICS env var)")
	runNow := flag.Bool("run-now", false, "Run one daily cycle immediately on startup")
	flag.Parse()

	topics := splitTopics(*topicsFlag)
	if len(topics) == 0 {
		topics = splitTopics(os.Getenv("CRAWL_TOPICS"))
	}

	// Storage: Redis when configured, in-memory otherwise
	var st store.Store
	if os.Getenv("REDIS_ADDR") != "" {
		redisStore, err := store.NewRedisFromEnv()
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		st = redisStore
		log.Println("✓ Using Redis storage")
	} else {
		st = store.NewMemory()
		log.Println("⚠️  REDIS_ADDR not set, using in-memory storage")
	}
	defer st.Close()

	// Crawl and enrichment
	crawler := arxiv.NewCrawler()
	adapter := ingest.NewDefaultAdapter()

	// Clustering is optional; it needs an embedding provider
	var clusterer orchestrator.Clusterer
	if embedder := clustering.NewDefaultEmbedder(""); embedder != nil {
		cl, err := clustering.NewClusterer(embedder)
		if err != nil {
			log.Printf("Failed to create clusterer: %v", err)
		} else {
			clusterer = cl
			log.Printf("✓ Clustering with %s", embedder.ModelName())
		}
	} else {
		log.Println("No embedding provider configured, topic clustering disabled")
	}

	// Optional event stream and archive
	producer, err := kafka.NewProducerFromEnv()
	if err != nil {
		log.Printf("Kafka disabled: %v", err)
	}
	defer producer.Close()

	arch, err := archive.NewFromEnv(context.Background())
	if err != nil {
		log.Printf("S3 archive disabled: %v", err)
	}

	pipeline, err := orchestrator.New(orchestrator.Config{
		Crawler:   crawler,
		Enricher:  adapter,
		Clusterer: clusterer,
		Store:     st,
		Producer:  producer,
		Archive:   arch,
		Topics:    topics,
	})
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}

	// Consume recommendation events for visibility when Kafka is configured
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		handler := &kafka.TypedMessageHandler[kafka.RecommendationEvent]{
			Validate: func(event *kafka.RecommendationEvent) bool {
				return event.UserID != "" && event.Count > 0
			},
			Process: func(_ context.Context, event *kafka.RecommendationEvent) error {
				log.Printf("📥 %d new recommendations for user %s", event.Count, event.UserID)
				return nil
			},
			AlwaysMark: true,
		}
		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   kafka.TopicRecommendations,
			GroupID: "paperbot-server",
			Handler: handler,
		})
		if err != nil {
			log.Printf("Kafka consumer disabled: %v", err)
		} else {
			if err := consumer.Start(context.Background()); err != nil {
				log.Printf("Failed to start Kafka consumer: %v", err)
			}
			defer consumer.Close()
		}
	}

	// Email digests
	var sender email.Sender
	if smtpSender := email.NewSMTPSenderFromEnv(); smtpSender != nil {
		sender = smtpSender
	}
	digests := email.NewService(st, sender, arch)

	// Scheduler: daily cycle, trending refresh, weekly digest
	sched, err := scheduler.New(scheduler.Jobs{
		Daily: func(ctx context.Context) error {
			if err := pipeline.RunDaily(ctx); err != nil {
				return err
			}
			return digests.SendDailyDigests(ctx)
		},
		Trending: pipeline.RunTrending,
		Weekly:   digests.SendWeeklyDigests,
	})
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	sched.Start()

	if *runNow {
		go func() {
			if err := pipeline.RunDaily(context.Background()); err != nil {
				log.Printf("Startup run failed: %v", err)
			}
		}()
	}

	// HTTP API
	router := api.NewServer(st, pipeline).NewRouter()

	fmt.Printf("📚 PaperBot\n")
	fmt.Printf("   API:     http://0.0.0.0:%s\n", *port)
	fmt.Printf("   Topics:  %v\n", topics)
	fmt.Println("\nPress Ctrl+C to shutdown")

	go func() {
		if err := router.Run(":" + *port); err != nil {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	sched.Stop()
	fmt.Println("Server stopped")
}

func splitTopics(raw string) []string {
	var topics []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			topics = append(topics, trimmed)
		}
	}
	return topics
}
