package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

type S3Opts func(c *s3Config)

type s3Config struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	prefix          string
	region          string
	useSSL          bool
}

func newS3Config(opts ...S3Opts) *s3Config {
	cfg := &s3Config{
		useSSL: true,
		bucket: "pdfsaas-documents",
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// S3DocumentStore keeps documents as objects of an S3 compatible bucket.
type S3DocumentStore struct {
	cfg    *s3Config
	client *minio.Client
}

var _ DocumentStore = (*S3DocumentStore)(nil)

func NewS3DocumentStore(opts ...S3Opts) (*S3DocumentStore, error) {
	cfg := newS3Config(opts...)

	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
		Region: cfg.region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create s3 client")
	}

	return &S3DocumentStore{cfg: cfg, client: minioClient}, nil
}

func (s *S3DocumentStore) key(jobID uuid.UUID) string {
	return s.cfg.prefix + documentName(jobID)
}

func (s *S3DocumentStore) Put(ctx context.Context, jobID uuid.UUID, data []byte) (string, error) {
	key := s.key(jobID)
	_, err := s.client.PutObject(ctx, s.cfg.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to upload document %s", jobID)
	}
	return fmt.Sprintf("s3://%s/%s", s.cfg.bucket, key), nil
}

func (s *S3DocumentStore) Get(ctx context.Context, jobID uuid.UUID) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.cfg.bucket, s.key(jobID), minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get document %s", jobID)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrRecordNotFound
		}
		return nil, errors.Wrapf(err, "failed to read document %s", jobID)
	}
	return data, nil
}

func (s *S3DocumentStore) Type() string {
	return "s3"
}

func WithEndpoint(endpoint string) S3Opts {
	return func(c *s3Config) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) S3Opts {
	return func(c *s3Config) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) S3Opts {
	return func(c *s3Config) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) S3Opts {
	return func(c *s3Config) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) S3Opts {
	return func(c *s3Config) {
		c.useSSL = useSSL
	}
}

func WithPrefix(prefix string) S3Opts {
	return func(c *s3Config) {
		c.prefix = prefix
	}
}

// WithRegion pins the bucket region. Left empty, the client looks it up on first use.
func WithRegion(region string) S3Opts {
	return func(c *s3Config) {
		c.region = region
	}
}
