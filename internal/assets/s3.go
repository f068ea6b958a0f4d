package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"hirehub.dev/internal/ids"
)

// S3Config configures the S3-compatible image store.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string
	// PublicURL is the base objects are served from. Defaults to the
	// path-style endpoint URL or the virtual-hosted AWS URL.
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
	Folder          string
}

// objectAPI is the subset of *s3.Client the store calls.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store implements Store on an S3-compatible bucket.
type S3Store struct {
	client objectAPI
	bucket string
	folder string
	base   *url.URL
	newID  func() string
}

var _ Store = (*S3Store)(nil)

// NewS3 creates an S3 store. Static credentials are used when both keys are
// set; otherwise the default AWS credential chain applies.
func NewS3(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 region is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	switch {
	case cfg.AccessKeyID != "" && cfg.SecretAccessKey != "":
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	case cfg.AccessKeyID != "" || cfg.SecretAccessKey != "":
		return nil, fmt.Errorf("both access key id and secret access key are required for static auth")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return newS3Store(s3.NewFromConfig(awsCfg, s3Opts...), cfg)
}

func newS3Store(client objectAPI, cfg S3Config) (*S3Store, error) {
	public := cfg.PublicURL
	if public == "" {
		if cfg.Endpoint != "" {
			public = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			public = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	base, err := url.Parse(strings.TrimRight(public, "/"))
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("invalid public asset url %q", public)
	}
	folder := strings.Trim(cfg.Folder, "/")
	if folder == "" {
		folder = DefaultFolder
	}
	return &S3Store{client: client, bucket: cfg.Bucket, folder: folder, base: base, newID: ids.New}, nil
}

// Upload stores data under the image folder with a fresh key.
func (s *S3Store) Upload(ctx context.Context, data []byte, contentType string) (Uploaded, error) {
	if len(data) == 0 {
		return Uploaded{}, fmt.Errorf("assets: empty upload")
	}
	if len(data) > MaxUploadBytes {
		return Uploaded{}, ErrTooLarge
	}
	ext, err := ExtensionFor(contentType)
	if err != nil {
		return Uploaded{}, err
	}
	key := s.folder + "/" + strings.ToLower(s.newID()) + ext
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Uploaded{}, fmt.Errorf("failed to upload to S3: %w", err)
	}
	return Uploaded{URL: s.urlFor(key), ID: key}, nil
}

// Delete removes an image. A missing object reports OutcomeNotFound, not an error.
func (s *S3Store) Delete(ctx context.Context, idOrURL string) (Outcome, error) {
	key, err := s.resolveKey(idOrURL)
	if err != nil {
		return "", err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return OutcomeNotFound, nil
		}
		return "", fmt.Errorf("failed to stat S3 object: %w", err)
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to delete from S3: %w", err)
	}
	return OutcomeOK, nil
}

// ExtractID recognises URLs under the public base whose key lies in the image folder.
func (s *S3Store) ExtractID(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !strings.EqualFold(u.Host, s.base.Host) {
		return "", false
	}
	prefix := s.base.Path + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, prefix)
	if !s.ownsKey(key) {
		return "", false
	}
	return key, true
}

func (s *S3Store) resolveKey(idOrURL string) (string, error) {
	idOrURL = strings.TrimSpace(idOrURL)
	if idOrURL == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrUnrecognized)
	}
	if strings.Contains(idOrURL, "://") {
		key, ok := s.ExtractID(idOrURL)
		if !ok {
			return "", ErrUnrecognized
		}
		return key, nil
	}
	key := idOrURL
	if !strings.Contains(key, "/") {
		key = s.folder + "/" + key
	}
	if !s.ownsKey(key) {
		return "", ErrUnrecognized
	}
	return key, nil
}

func (s *S3Store) ownsKey(key string) bool {
	if key != path.Clean(key) || strings.Contains(key, "..") {
		return false
	}
	return strings.HasPrefix(key, s.folder+"/") && len(key) > len(s.folder)+1
}

func (s *S3Store) urlFor(key string) string {
	u := *s.base
	u.Path = s.base.Path + "/" + key
	return u.String()
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}
