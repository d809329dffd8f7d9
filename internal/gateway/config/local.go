package config

import (
	"os"
	"strings"
)

// localS3Config points the content store at the docker-compose MinIO when
// CONTENT_MINIO_ENDPOINT is set.
func localS3Config() (S3Config, bool) {
	endpoint := strings.TrimSpace(os.Getenv("CONTENT_MINIO_ENDPOINT"))
	if endpoint == "" {
		return S3Config{}, false
	}
	return S3Config{
		Enabled:   true,
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("CONTENT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("CONTENT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER")), "tonide"),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("CONTENT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD")), "tonide123"),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("CONTENT_S3_BUCKET")), "tonide-contents"),
		UseSSL:    false,
	}, true
}
