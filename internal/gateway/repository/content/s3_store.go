package content

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"tonide/internal/workspace"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Store keeps each content entry as an object at projectID/id.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Store{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store is nil")
	}
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Store) Put(ctx context.Context, projectID string, files ...workspace.FileContent) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	for _, fc := range files {
		pid, id, err := validateKey(projectID, fc.ID)
		if err != nil {
			return err
		}
		body := strings.NewReader(fc.Content)
		_, err = s.client.PutObject(ctx, s.bucketName, contentKey(pid, id), body, int64(body.Len()), minio.PutObjectOptions{
			ContentType: "text/plain; charset=utf-8",
		})
		if err != nil {
			return fmt.Errorf("put %s: %w", id, err)
		}
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, projectID, id string) (workspace.FileContent, error) {
	pid, id, err := validateKey(projectID, id)
	if err != nil {
		return workspace.FileContent{}, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return workspace.FileContent{}, fmt.Errorf("ensure bucket: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, contentKey(pid, id), minio.GetObjectOptions{})
	if err != nil {
		return workspace.FileContent{}, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return workspace.FileContent{}, ErrNotFound
		}
		return workspace.FileContent{}, err
	}
	return workspace.FileContent{ID: id, Content: string(data)}, nil
}

func (s *S3Store) Delete(ctx context.Context, projectID string, ids ...string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	for _, id := range ids {
		pid, id, err := validateKey(projectID, id)
		if err != nil {
			return err
		}
		if err := s.client.RemoveObject(ctx, s.bucketName, contentKey(pid, id), minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s: %w", id, err)
		}
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, projectID string) ([]string, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	prefix := pid + "/"
	ids := make([]string, 0, 32)
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == "" {
			continue
		}
		ids = append(ids, strings.TrimPrefix(obj.Key, prefix))
	}
	sort.Strings(ids)
	return ids, nil
}
