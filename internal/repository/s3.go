package repository

import (
	"bytes"
	"context"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/document"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3AssetStore uploads images straight to a bucket and hands back the URL
// under which the bucket is served publicly.
type S3AssetStore struct {
	client        objectPutter
	bucket        string
	prefix        string
	publicBaseURL string
}

func NewS3AssetStore(ctx context.Context, cfg config.S3Config) (*S3AssetStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket not configured")
	}
	if cfg.PublicBaseURL == "" {
		return nil, errors.New("s3 public base url not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "error initializing S3 client")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3AssetStore(client, cfg), nil
}

func newS3AssetStore(client objectPutter, cfg config.S3Config) *S3AssetStore {
	return &S3AssetStore{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        cfg.Prefix,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

func (s *S3AssetStore) key(name string) string {
	return path.Join(s.prefix, uuid.New().String()+strings.ToLower(filepath.Ext(name)))
}

// Upload stores f under a fresh key. The key doubles as the resource id.
func (s *S3AssetStore) Upload(ctx context.Context, f *document.LocalFile) (model.UploadResult, error) {
	if f == nil || f.Open == nil {
		return model.UploadResult{}, errors.New("no file to upload")
	}
	src, err := f.Open()
	if err != nil {
		return model.UploadResult{}, errors.Wrapf(err, "open %s", f.Name)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return model.UploadResult{}, errors.Wrapf(err, "read %s", f.Name)
	}

	key := s.key(f.Name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if ct := mime.TypeByExtension(filepath.Ext(f.Name)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		repoLogger.Warn().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("Upload failed")
		return model.UploadResult{}, errors.Wrapf(err, "put %s", key)
	}

	repoLogger.Debug().Str("bucket", s.bucket).Str("key", key).Int("bytes", len(data)).Msg("Asset uploaded")
	return model.UploadResult{Success: true, URL: s.publicBaseURL + "/" + key, ID: key}, nil
}
