package events

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"screensync/internal/model"
)

// s3Client is the slice of the S3 API the adapter needs.
type s3Client interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Adapter streams JSONL event objects from a bucket prefix. Undecodable
// lines are skipped; failing list or get calls are errors.
type S3Adapter struct {
	bucket string
	prefix string
	client s3Client
	logger *slog.Logger
}

func NewS3Adapter(ctx context.Context, bucket, prefix, region string, logger *slog.Logger) (*S3Adapter, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Adapter{
		bucket: bucket,
		prefix: prefix,
		client: s3.NewFromConfig(awsCfg),
		logger: logger,
	}, nil
}

func (a *S3Adapter) Fetch(ctx context.Context, q Query) ([]model.NormalizedEvent, error) {
	out := make([]model.NormalizedEvent, 0)
	var token *string
	for {
		input := &s3.ListObjectsV2Input{
			Bucket:            aws.String(a.bucket),
			ContinuationToken: token,
		}
		if a.prefix != "" {
			input.Prefix = aws.String(a.prefix)
		}
		page, err := a.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list s3 objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			evs, err := a.fetchObject(ctx, *obj.Key, q)
			if err != nil {
				return nil, err
			}
			out = append(out, evs...)
			if q.Limit > 0 && len(out) >= q.Limit {
				return out[:q.Limit], nil
			}
		}
		if page.NextContinuationToken == nil {
			break
		}
		token = page.NextContinuationToken
	}
	return out, nil
}

func (a *S3Adapter) fetchObject(ctx context.Context, key string, q Query) ([]model.NormalizedEvent, error) {
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3 object %s: %w", key, err)
	}
	defer resp.Body.Close()

	out := make([]model.NormalizedEvent, 0)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev, err := FromJSONLine([]byte(line))
		if err != nil {
			if a.logger != nil {
				a.logger.Warn("skipping s3 event line", "key", key, "err", err)
			}
			continue
		}
		if !matchesQuery(ev, q) {
			continue
		}
		out = append(out, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read s3 object %s: %w", key, err)
	}
	return out, nil
}
