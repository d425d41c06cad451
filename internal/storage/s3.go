package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Compile-time check that S3Store implements ObjectStore.
var _ ObjectStore = (*S3Store)(nil)

// S3Config holds the configuration for S3 object storage.
// Credentials come from the environment or the default AWS config chain;
// they are never embedded in source.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// S3Store implements ObjectStore against an S3 bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	region string
}

// NewS3Store creates a new S3Store instance.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, clientOpts...)

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

// Upload stores data under key and returns the object URL.
func (s *S3Store) Upload(ctx context.Context, key string, data io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   data,
	})
	if err != nil {
		return "", fmt.Errorf("upload object %s: %w", key, err)
	}

	return s.ObjectURL(key), nil
}

// UploadFile uploads a single local file. The object key is the file's base
// name, placed under prefix when one is given. Returns the object URL.
func (s *S3Store) UploadFile(ctx context.Context, localPath, prefix string) (string, error) {
	f, err := os.Open(localPath) // #nosec G304 - path comes from the CLI operator
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	return s.Upload(ctx, JoinKey(prefix, filepath.Base(localPath)), f)
}

// UploadDir uploads every regular file under dir, preserving the directory
// structure below dir in the object keys. Returns the object URLs.
func (s *S3Store) UploadDir(ctx context.Context, dir, prefix string) ([]string, error) {
	var urls []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", p, err)
		}

		f, err := os.Open(p) // #nosec G304 - path enumerated from the operator-supplied directory
		if err != nil {
			return fmt.Errorf("open %s: %w", p, err)
		}
		url, err := s.Upload(ctx, JoinKey(prefix, filepath.ToSlash(rel)), f)
		_ = f.Close()
		if err != nil {
			return err
		}
		urls = append(urls, url)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upload directory %s: %w", dir, err)
	}
	return urls, nil
}

// Download fetches a single object into destPath, creating parent
// directories as needed. If destPath is empty, the object's base name in the
// current directory is used. Returns the local path written.
func (s *S3Store) Download(ctx context.Context, key, destPath string) (string, error) {
	if destPath == "" {
		destPath = path.Base(key)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("download object %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	if dir := filepath.Dir(destPath); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("create destination directory: %w", err)
		}
	}

	f, err := os.Create(destPath) // #nosec G304 - path comes from the CLI operator
	if err != nil {
		return "", fmt.Errorf("create %s: %w", destPath, err)
	}

	if _, err := io.Copy(f, out.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(destPath)
		return "", fmt.Errorf("write %s: %w", destPath, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", destPath, err)
	}

	return destPath, nil
}

// DownloadPrefix fetches every object under prefix into destDir, recreating
// the key structure below the prefix as local directories.
// Returns the local paths written.
func (s *S3Store) DownloadPrefix(ctx context.Context, prefix, destDir string) ([]string, error) {
	if destDir == "" {
		destDir = "."
	}

	keys, err := s.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	cleanPrefix := strings.TrimPrefix(prefix, "/")
	var paths []string
	for _, key := range keys {
		rel := strings.TrimPrefix(strings.TrimPrefix(key, cleanPrefix), "/")
		if rel == "" {
			rel = path.Base(key)
		}
		local, err := s.Download(ctx, key, filepath.Join(destDir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		paths = append(paths, local)
	}
	return paths, nil
}

// List returns the keys of all objects under prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimPrefix(prefix, "/")

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects under %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// ObjectURL returns the public URL for a key in this bucket.
func (s *S3Store) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// JoinKey joins a prefix and a name into a normalized object key.
// Leading and trailing slashes on the prefix are dropped.
func JoinKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
