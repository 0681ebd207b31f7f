package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/logging"
	"github.com/fotoatelier/backend/internal/config"
)

// S3Service stores image blobs in the media bucket. It satisfies ObjectStore.
type S3Service struct {
	client *s3.Client
	cfg    *config.Config
}

func NewS3Service(cfg *config.Config) (*S3Service, error) {
	client, err := buildClient(cfg.MediaS3Endpoint, cfg.MediaS3Region, cfg.MediaS3AccessKeyID, cfg.MediaS3SecretAccessKey, cfg.MediaS3UsePathStyle)
	if err != nil {
		return nil, err
	}
	return &S3Service{client: client, cfg: cfg}, nil
}

func buildClient(endpoint, region, key, secret string, pathStyle bool) (*s3.Client, error) {
	resolver := awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
		func(service, rgn string, options ...interface{}) (aws.Endpoint, error) {
			if endpoint != "" {
				return aws.Endpoint{URL: endpoint, SigningRegion: region}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		}))
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		resolver,
		awsconfig.WithLogger(logging.NewStandardLogger(nil)),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
	})
	return client, nil
}

// Upload stores an object in the media images bucket and returns its URL
func (s *S3Service) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	uploader := manager.NewUploader(s.client)
	in := &s3.PutObjectInput{
		Bucket:      &s.cfg.MediaImagesBucket,
		Key:         &key,
		Body:        body,
		ContentType: &contentType,
		ACL:         s3types.ObjectCannedACLPrivate,
	}
	_, err := uploader.Upload(ctx, in, func(u *manager.Uploader) { u.PartSize = 10 * 1024 * 1024 })
	if err != nil {
		return "", err
	}
	return s.ObjectURL(key), nil
}

// Delete removes an object from the media images bucket
func (s *S3Service) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.cfg.MediaImagesBucket,
		Key:    &key,
	})
	return err
}

// PresignGet generates a short-lived GET URL for an object
func (s *S3Service) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	presigner := s3.NewPresignClient(s.client)
	out, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &s.cfg.MediaImagesBucket, Key: &key}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

// Download fetches an object into a memory buffer (for local caching)
func (s *S3Service) Download(ctx context.Context, key string) (*manager.WriteAtBuffer, error) {
	downloader := manager.NewDownloader(s.client)
	buf := manager.NewWriteAtBuffer([]byte{})
	_, err := downloader.Download(ctx, buf, &s3.GetObjectInput{Bucket: &s.cfg.MediaImagesBucket, Key: &key})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// ListKeys lists media keys with prefix
func (s *S3Service) ListKeys(ctx context.Context, prefix string, max int32) ([]string, error) {
	keys := []string{}
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.cfg.MediaImagesBucket,
			Prefix:            &prefix,
			ContinuationToken: token,
			MaxKeys:           aws.Int32(max),
		})
		if err != nil {
			return nil, err
		}
		for _, o := range out.Contents {
			keys = append(keys, *o.Key)
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	return keys, nil
}

// ObjectURL builds the durable URL recorded next to storagePath
func (s *S3Service) ObjectURL(key string) string {
	e := s.client.Options().BaseEndpoint
	if e == nil {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.MediaImagesBucket, s.cfg.MediaS3Region, url.PathEscape(key))
	}
	return fmt.Sprintf("%s/%s/%s", *e, s.cfg.MediaImagesBucket, url.PathEscape(key))
}
