// Package archive keeps discarded report payloads in S3-compatible object
// storage, addressed by their multihash.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Archive stores payloads and hands out time-limited download links.
type Archive interface {
	Put(ctx context.Context, multihash string, data []byte) error
	Exists(ctx context.Context, multihash string) (bool, error)
	PresignGet(ctx context.Context, multihash string) (string, error)
}

// DefaultPresignTTL is used when Config.PresignTTL is zero.
const DefaultPresignTTL = 15 * time.Minute

type Config struct {
	Region     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	Bucket     string
	PresignTTL time.Duration
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return c.HeadObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Key returns the object key of a payload.
func Key(multihash string) string {
	return "reports/" + multihash
}

type S3Archive struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

// NewS3Archive builds the client once. A non-empty Endpoint switches to
// path-style addressing, which MinIO and most self-hosted stores need.
func NewS3Archive(ctx context.Context, c Config) (*S3Archive, error) {
	if c.Bucket == "" {
		return nil, fmt.Errorf("archive: bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := c.PresignTTL
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}

	return &S3Archive{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  c.Bucket,
		ttl:     ttl,
	}, nil
}

func (a *S3Archive) Put(ctx context.Context, multihash string, data []byte) error {
	_, err := putObject(a.client, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(Key(multihash)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("archive put %s: %w", multihash, err)
	}
	return nil
}

func (a *S3Archive) PresignGet(ctx context.Context, multihash string) (string, error) {
	req, err := presignGetObject(a.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(Key(multihash)),
	}, s3.WithPresignExpires(a.ttl))
	if err != nil {
		return "", fmt.Errorf("archive presign %s: %w", multihash, err)
	}
	return req.URL, nil
}

// Exists reports whether the payload has been archived.
func (a *S3Archive) Exists(ctx context.Context, multihash string) (bool, error) {
	_, err := headObject(a.client, ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(Key(multihash)),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("archive head %s: %w", multihash, err)
	}
	return true, nil
}
