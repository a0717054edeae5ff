package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/reservation"
	"github.com/retreat/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewS3Client creates a client for any S3-compatible store (AWS S3, MinIO, RustFS)
func NewS3Client(ctx context.Context, cfg *config.StorageConfig) (*s3.Client, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	}), nil
}

// S3ItemSource reads supply or other-cost lines from <prefix>/<reservation_id>.<kind>.csv
// objects in a bucket. The object format matches CSVItemSource; a missing object means no lines.
type S3ItemSource struct {
	client *s3.Client
	bucket string
	prefix string
	kind   Kind
	logger *zap.Logger
}

// NewS3ItemSource creates an object-store item source for one kind
func NewS3ItemSource(client *s3.Client, bucket, prefix string, kind Kind, logger *zap.Logger) *S3ItemSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3ItemSource{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		kind:   kind,
		logger: logger,
	}
}

// Key returns the object key read for a reservation
func (s *S3ItemSource) Key(reservationID uuid.UUID) string {
	return path.Join(s.prefix, fmt.Sprintf("%s.%s.csv", reservationID, s.kind))
}

// ItemAllocations implements reservation.ItemSource
func (s *S3ItemSource) ItemAllocations(ctx context.Context, reservationID uuid.UUID) ([]reservation.ItemAllocation, error) {
	key := s.Key(reservationID)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			s.logger.Debug("no item object", zap.String("bucket", s.bucket), zap.String("key", key))
			return []reservation.ItemAllocation{}, nil
		}
		return nil, fmt.Errorf("failed to get %s object: %w", s.kind, err)
	}
	defer func() {
		if err := out.Body.Close(); err != nil {
			s.logger.Warn("Failed to close object body", zap.String("key", key), zap.Error(err))
		}
	}()

	items, err := decodeItems(out.Body, "s3://"+s.bucket+"/"+key)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("read item object", zap.String("key", key), zap.Int("count", len(items)))
	return items, nil
}
