package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

type s3Config struct {
	Endpoint     string `json:"endpoint"`
	Bucket       string `json:"bucket"`
	Region       string `json:"region"`
	Prefix       string `json:"prefix"`
	SecretIDEnv  string `json:"secret_id_env"`
	SecretKeyEnv string `json:"secret_key_env"`
	UsePathStyle bool   `json:"use_path_style"`
}

type s3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

func init() {
	Register("s3", createS3Store)
}

func createS3Store(args interface{}) (Store, error) {
	config := &s3Config{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(config.Region)}
	if config.SecretIDEnv != "" || config.SecretKeyEnv != "" {
		id := os.Getenv(config.SecretIDEnv)
		secret := os.Getenv(config.SecretKeyEnv)
		if id == "" || secret == "" {
			return nil, fmt.Errorf("s3 credentials missing in env %s/%s", config.SecretIDEnv, config.SecretKeyEnv)
		}
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(id, secret, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
		o.UsePathStyle = config.UsePathStyle
	})
	return &s3Store{
		client: client,
		bucket: config.Bucket,
		prefix: strings.Trim(config.Prefix, "/"),
	}, nil
}

func (s *s3Store) Type() string {
	return "s3"
}

func (s *s3Store) objectKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *s3Store) Save(ctx context.Context, name string, r io.Reader, size int64) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(name)),
		Body:        r,
		ContentType: aws.String("application/pdf"),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	_, err = s.client.PutObject(ctx, input)
	return err
}

func (s *s3Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(name)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return out.Body, nil
}

// documentName maps an object key back to the name Open expects. Keys nested
// below the prefix are not documents.
func documentName(prefix, key string) (string, bool) {
	if prefix != "" {
		rest, ok := strings.CutPrefix(key, prefix+"/")
		if !ok {
			return "", false
		}
		key = rest
	}
	if key == "" || strings.Contains(key, "/") || !IsPDF(key) {
		return "", false
	}
	return key, true
}

func (s *s3Store) List(ctx context.Context) ([]model.Document, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket), Delimiter: aws.String("/")}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix + "/")
	}
	docs := make([]model.Document, 0)
	pager := s3.NewListObjectsV2Paginator(s.client, input)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name, ok := documentName(s.prefix, aws.ToString(obj.Key))
			if !ok {
				continue
			}
			doc := model.Document{Name: name, Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				doc.Mtime = obj.LastModified.UnixNano()
			}
			docs = append(docs, doc)
		}
	}
	sortDocuments(docs)
	return docs, nil
}
