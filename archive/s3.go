package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"paperbot/types"
)

// Archive stores daily crawl batches and sent digests in S3 so analysis
// passes can be replayed and audited later
type Archive struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewFromEnv creates an archive from S3_BUCKET, S3_PREFIX and AWS_REGION.
// Returns nil without error when no bucket is configured; callers treat a nil
// archive as "archiving disabled".
func NewFromEnv(ctx context.Context) (*Archive, error) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		return nil, nil
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if region := os.Getenv("AWS_REGION"); region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &Archive{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		prefix: os.Getenv("S3_PREFIX"),
	}, nil
}

// ArchivePapers uploads one crawl batch as a JSON document keyed by date and
// batch label, e.g. papers/2026-08-25/daily.json
func (a *Archive) ArchivePapers(ctx context.Context, label string, papers []*types.Paper) error {
	if a == nil || len(papers) == 0 {
		return nil
	}

	b, err := json.MarshalIndent(papers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal paper batch: %w", err)
	}

	key := a.key(fmt.Sprintf("papers/%s/%s.json", time.Now().UTC().Format("2006-01-02"), label))
	if err := a.put(ctx, key, b, "application/json"); err != nil {
		return err
	}
	log.Printf("✓ Archived %d papers to s3://%s/%s", len(papers), a.bucket, key)
	return nil
}

// ArchiveDigest stores the rendered HTML of a sent digest
func (a *Archive) ArchiveDigest(ctx context.Context, userID string, html []byte) error {
	if a == nil {
		return nil
	}

	key := a.key(fmt.Sprintf("digests/%s/%s.html", time.Now().UTC().Format("2006-01-02"), userID))
	if err := a.put(ctx, key, html, "text/html"); err != nil {
		return err
	}
	log.Printf("✓ Archived digest for %s to s3://%s/%s", userID, a.bucket, key)
	return nil
}

// HasBatch reports whether a batch for the given date and label was already
// archived, so re-runs of a day's crawl do not clobber the original
func (a *Archive) HasBatch(ctx context.Context, date, label string) (bool, error) {
	if a == nil {
		return false, nil
	}

	key := a.key(fmt.Sprintf("papers/%s/%s.json", date, label))
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}
	return false, err
}

func (a *Archive) put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (a *Archive) key(suffix string) string {
	if a.prefix == "" {
		return suffix
	}
	return a.prefix + "/" + suffix
}
