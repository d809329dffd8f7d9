package config

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	ProjectStore ProjectStoreConfig
	Content      ContentConfig
	Compiler     CompilerConfig
	Import       ImportConfig
}

type ProjectStoreConfig struct {
	// DSN selects the Postgres backend when set.
	DSN  string
	Path string
}

type ContentConfig struct {
	Dir string
	S3  S3Config
}

type S3Config struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type CompilerConfig struct {
	Bin     string
	Timeout time.Duration
}

type ImportConfig struct {
	MaxEntries   int
	MaxFileBytes int64
}

// Load reads .env and the environment, then applies command line flags.
func Load(args []string) (*Config, error) {
	cfg := FromEnv()

	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	port := fs.String("port", cfg.Port, "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Port = normalizePort(*port)
	return cfg, nil
}

// FromEnv reads .env and the environment only.
func FromEnv() *Config {
	_ = godotenv.Load()

	env := firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local")
	dataDir := firstNonEmpty(strings.TrimSpace(os.Getenv("DATA_DIR")), "tmp")

	cfg := &Config{
		Port:     normalizePort(firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), ":8081")),
		Env:      env,
		LogLevel: strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		ProjectStore: ProjectStoreConfig{
			DSN:  strings.TrimSpace(os.Getenv("PROJECT_STORE_PG_DSN")),
			Path: firstNonEmpty(strings.TrimSpace(os.Getenv("PROJECT_STORE_PATH")), filepath.Join(dataDir, "projects.json")),
		},
		Content: ContentConfig{
			Dir: firstNonEmpty(strings.TrimSpace(os.Getenv("CONTENT_STORE_DIR")), filepath.Join(dataDir, "contents")),
			S3:  loadS3Config(env),
		},
		Compiler: CompilerConfig{
			Bin:     firstNonEmpty(strings.TrimSpace(os.Getenv("COMPILER_BIN")), "func-js"),
			Timeout: parseDuration(os.Getenv("COMPILER_TIMEOUT"), 60*time.Second),
		},
		Import: ImportConfig{
			MaxEntries:   parseInt(os.Getenv("IMPORT_MAX_ENTRIES"), 2000),
			MaxFileBytes: int64(parseInt(os.Getenv("IMPORT_MAX_FILE_BYTES"), 1<<20)),
		},
	}
	return cfg
}

func (c *Config) IsLocal() bool {
	return c != nil && strings.EqualFold(strings.TrimSpace(c.Env), "local")
}

func loadS3Config(env string) S3Config {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		if cfg, ok := localS3Config(); ok {
			return cfg
		}
	}
	endpoint := strings.TrimSpace(os.Getenv("CONTENT_S3_ENDPOINT"))
	return S3Config{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("CONTENT_S3_REGION")), "us-east-1"),
		AccessKey: strings.TrimSpace(os.Getenv("CONTENT_S3_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("CONTENT_S3_SECRET_KEY")),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("CONTENT_S3_BUCKET")), "tonide-contents"),
		UseSSL:    parseBool(os.Getenv("CONTENT_S3_USE_SSL"), true),
	}
}

func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func parseBool(raw string, def bool) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func parseInt(raw string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func parseDuration(raw string, def time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
