package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Config holds the settings for an S3-compatible backend such as MinIO.
type S3Config struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
	PresignTTL   time.Duration
}

// S3API is the part of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps both areas in one bucket under different prefixes.
type S3Store struct {
	api     S3API
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.User, c.Password, "")),
	)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.BaseEndpoint)
		o.UsePathStyle = true
	})

	ttl := c.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Store{api: client, presign: s3.NewPresignClient(client), bucket: c.Bucket, ttl: ttl}, nil
}

// NewS3StoreWithAPI builds a store over an existing client, without presigning.
func NewS3StoreWithAPI(api S3API, bucket string) *S3Store {
	return &S3Store{api: api, bucket: bucket}
}

func objectKey(area Area, key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	switch area {
	case AreaLive:
		return "selfies/" + k, nil
	case AreaRetraining:
		return "retraining/selfies/" + k, nil
	}
	return "", fmt.Errorf("%w: unknown area %q", common.ErrValidation, area)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

func (s *S3Store) Put(ctx context.Context, area Area, key string, r io.Reader) error {
	k, err := objectKey(area, key)
	if err != nil {
		return err
	}
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(k),
		Body:        r,
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return fmt.Errorf("put object: %w: %w", common.ErrPersistence, err)
	}
	return nil
}

func (s *S3Store) Open(ctx context.Context, area Area, key string) (io.ReadCloser, error) {
	k, err := objectKey(area, key)
	if err != nil {
		return nil, err
	}
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(k)})
	if isNotFound(err) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get object: %w: %w", common.ErrPersistence, err)
	}
	return out.Body, nil
}

func (s *S3Store) Exists(ctx context.Context, area Area, key string) (bool, error) {
	k, err := objectKey(area, key)
	if err != nil {
		return false, err
	}
	_, err = s.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(k)})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("head object: %w: %w", common.ErrPersistence, err)
	}
	return true, nil
}

func (s *S3Store) Copy(ctx context.Context, from Area, fromKey string, to Area, toKey string) error {
	src, err := objectKey(from, fromKey)
	if err != nil {
		return err
	}
	dst, err := objectKey(to, toKey)
	if err != nil {
		return err
	}
	_, err = s.api.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(dst),
		CopySource: aws.String(copySource(s.bucket, src)),
	})
	if isNotFound(err) {
		return common.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("copy object: %w: %w", common.ErrPersistence, err)
	}
	return nil
}

// Rename is a copy followed by a delete; S3 has no native move.
func (s *S3Store) Rename(ctx context.Context, area Area, fromKey, toKey string) error {
	if fromKey == toKey {
		return nil
	}
	err := s.Copy(ctx, area, fromKey, area, toKey)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Delete(ctx, area, fromKey)
}

func (s *S3Store) Delete(ctx context.Context, area Area, key string) error {
	k, err := objectKey(area, key)
	if err != nil {
		return err
	}
	_, err = s.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(k)})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete object: %w: %w", common.ErrPersistence, err)
	}
	return nil
}

func (s *S3Store) PresignGet(ctx context.Context, area Area, key string) (string, error) {
	if s.presign == nil {
		return "", fmt.Errorf("%w: presigning not configured", common.ErrInternal)
	}
	k, err := objectKey(area, key)
	if err != nil {
		return "", err
	}
	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("presign: %w: %w", common.ErrPersistence, err)
	}
	return req.URL, nil
}

func copySource(bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return bucket + "/" + strings.Join(parts, "/")
}
