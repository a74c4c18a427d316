package config

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "change-me-in-production"

// Storage drivers.
const (
	DriverS3    = "s3"
	DriverMinio = "minio"
)

// Bulk import modes.
const (
	ImportReport      = "report"
	ImportTransaction = "transaction"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	MongoURI string
	DBName   string

	JWTSecret     string
	AdminUsername string
	AdminPassword string

	CORSOrigins []string
	MaxUploadMB int64

	BulkChunkSize  int
	BulkImportMode string

	Storage StorageConfig
}

// StorageConfig covers both S3-compatible drivers. Endpoint is empty for AWS S3 proper.
type StorageConfig struct {
	Driver          string
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	PublicBaseURL   string
}

var defaults = map[string]interface{}{
	"PORT":                 "5000",
	"APP_ENV":              "development",
	"LOG_LEVEL":            "info",
	"MONGODB_URI":          "mongodb://localhost:27017",
	"MONGODB_DB":           "bookstore",
	"JWT_SECRET":           DefaultJWTSecret,
	"ADMIN_USERNAME":       "",
	"ADMIN_PASSWORD":       "",
	"CORS_ORIGINS":         "http://localhost:3000,http://localhost:5173",
	"MAX_UPLOAD_MB":        20,
	"BULK_CHUNK_SIZE":      100,
	"BULK_IMPORT_MODE":     ImportReport,
	"STORAGE_DRIVER":       DriverS3,
	"S3_BUCKET":            "",
	"S3_REGION":            "us-east-1",
	"S3_ENDPOINT":          "",
	"S3_ACCESS_KEY_ID":     "",
	"S3_SECRET_ACCESS_KEY": "",
	"S3_USE_SSL":           true,
	"PUBLIC_BASE_URL":      "",
}

// Load reads the configuration from the environment. A .env file, if any, must already have been loaded.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{
		Port:           v.GetString("PORT"),
		Env:            strings.ToLower(v.GetString("APP_ENV")),
		LogLevel:       v.GetString("LOG_LEVEL"),
		MongoURI:       v.GetString("MONGODB_URI"),
		DBName:         v.GetString("MONGODB_DB"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		AdminUsername:  v.GetString("ADMIN_USERNAME"),
		AdminPassword:  v.GetString("ADMIN_PASSWORD"),
		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		MaxUploadMB:    v.GetInt64("MAX_UPLOAD_MB"),
		BulkChunkSize:  v.GetInt("BULK_CHUNK_SIZE"),
		BulkImportMode: strings.ToLower(v.GetString("BULK_IMPORT_MODE")),
		Storage: StorageConfig{
			Driver:          strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Bucket:          v.GetString("S3_BUCKET"),
			Region:          v.GetString("S3_REGION"),
			Endpoint:        strings.TrimRight(v.GetString("S3_ENDPOINT"), "/"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			UseSSL:          v.GetBool("S3_USE_SSL"),
			PublicBaseURL:   strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// MaxUploadBytes is the multipart body limit.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.MongoURI, validation.Required),
		validation.Field(&c.DBName, validation.Required),
		validation.Field(&c.JWTSecret,
			validation.Required,
			validation.When(c.IsProduction(),
				validation.NotIn(DefaultJWTSecret).Error("must be changed in production"),
			),
		),
		validation.Field(&c.MaxUploadMB, validation.Min(int64(1))),
		validation.Field(&c.BulkChunkSize, validation.Min(1)),
		validation.Field(&c.BulkImportMode, validation.In(ImportReport, ImportTransaction)),
		validation.Field(&c.Storage),
	)
}

func (s StorageConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.Required, validation.In(DriverS3, DriverMinio)),
		validation.Field(&s.Endpoint, validation.When(s.Driver == DriverMinio, validation.Required)),
	)
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
