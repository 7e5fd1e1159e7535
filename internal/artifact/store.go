// Package artifact uploads the prepared import request of a run to
// S3-compatible object storage so dry runs can be inspected later.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mrussa/orderbridge/internal/everstox"
)

const defaultRegion = "us-east-1"

var ErrNoBucket = errors.New("artifact: bucket is required")

type Config struct {
	Bucket    string
	Prefix    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Store struct {
	client putter
	bucket string
	prefix string
	Logf   func(string, ...any)
}

var newClient = func(ctx context.Context, cfg Config) (putter, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func New(ctx context.Context, cfg Config, logf func(string, ...any)) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	c, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{client: c, bucket: cfg.Bucket, prefix: cfg.Prefix, Logf: logf}, nil
}

// Key returns "<prefix>/<runID>.json", without a leading slash.
func Key(prefix, runID string) string {
	return strings.TrimPrefix(path.Join(strings.Trim(prefix, "/"), runID+".json"), "/")
}

// PutRequest stores the prepared request as JSON and returns its s3:// URI.
func (s *Store) PutRequest(ctx context.Context, runID string, pr everstox.PreparedRequest) (string, error) {
	body, err := json.MarshalIndent(pr, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	key := Key(s.prefix, runID)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"run-id": runID},
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	uri := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.Logf("[ARTIFACT] stored %s (%d bytes)", uri, len(body))
	return uri, nil
}
