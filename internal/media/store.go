package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	cfg "github.com/maheshrc27/postflow/configs"
)

// Store puts processed media somewhere platforms can pull it from.
type Store interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Store writes objects to a Cloudflare R2 bucket through the S3 API.
type R2Store struct {
	client        objectPutter
	bucket        string
	publicBaseURL string
}

func NewR2Store(ctx context.Context, r2 cfg.R2) (*R2Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	})
	return newR2Store(client, r2.BucketName, r2.PublicBaseURL), nil
}

func newR2Store(client objectPutter, bucket, publicBaseURL string) *R2Store {
	return &R2Store{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Put uploads data under a random key and returns its public URL.
func (r *R2Store) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = DetectMimeType(data)
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := "media/" + id
	if kind, err := filetype.Match(data); err == nil && kind != types.Unknown {
		key += "." + kind.Extension
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return r.publicBaseURL + "/" + key, nil
}
