package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendFS       = "fs"
	BackendPostgres = "postgres"
	BackendMinio    = "minio"
)

type (
	APP struct {
		Name      string
		Host      string
		Port      string
		Env       string
		PublicURL string
	}
	Storage struct {
		Backend        string
		Dir            string
		MaxUploadBytes int64
	}
	DB struct {
		User     string
		Password string
		Name     string
		Host     string
		Port     string
		MaxConns int32
	}
	S3 struct {
		Endpoint        string
		Region          string
		AccessKeyID     string
		SecretAccessKey string
		BucketUploads   string
		UseSSL          bool
	}
	MQ struct {
		Enabled      bool
		User         string
		Password     string
		Vhost        string
		Host         string
		AmqpPort     string
		Exchange     string
		ExchangeType string
		QueueName    string
	}
	Stream struct {
		SubscriberBuffer int
		Heartbeat        time.Duration
	}
	RateLimit struct {
		RPS   float64
		Burst int
		TTL   time.Duration
	}
	CORS struct {
		AllowOrigins []string
	}

	Config struct {
		App       APP
		Storage   Storage
		DB        DB
		S3        S3
		MQ        MQ
		Stream    Stream
		RateLimit RateLimit
		CORS      CORS
	}
)

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v, err := strconv.ParseInt(getEnv(key, ""), 10, 64); err == nil {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func Load() Config {
	app := APP{
		Name:      getEnv("SERVICE_NAME", "localdrop"),
		Host:      getEnv("SERVICE_HOST", "0.0.0.0"),
		Port:      getEnv("SERVICE_PORT", "3000"),
		Env:       getEnv("SERVICE_ENV", "dev"),
		PublicURL: getEnv("SERVICE_PUBLIC_URL", ""),
	}
	storage := Storage{
		Backend:        strings.ToLower(getEnv("STORAGE_BACKEND", BackendFS)),
		Dir:            getEnv("STORAGE_DIR", "./public/uploads"),
		MaxUploadBytes: getEnvInt64("STORAGE_MAX_UPLOAD_BYTES", 256<<20),
	}
	db := DB{
		User:     getEnv("POSTGRES_USER", ""),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		Name:     getEnv("POSTGRES_DB", ""),
		Host:     getEnv("POSTGRES_HOST", ""),
		Port:     getEnv("POSTGRES_PORT", "5432"),
		MaxConns: int32(getEnvInt("POSTGRES_MAX_CONNS", 10)),
	}
	s3 := S3{
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		Region:          getEnv("S3_REGION", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		BucketUploads:   getEnv("S3_BUCKET_UPLOADS", "localdrop"),
		UseSSL:          getEnvBool("S3_USE_SSL", false),
	}
	mq := MQ{
		Enabled:      getEnvBool("RABBITMQ_ENABLED", false),
		User:         getEnv("RABBITMQ_USER", ""),
		Password:     getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:        getEnv("RABBITMQ_VHOST", ""),
		Host:         getEnv("RABBITMQ_HOST", ""),
		AmqpPort:     getEnv("RABBITMQ_AMQP_PORT", "5672"),
		Exchange:     getEnv("RABBITMQ_EXCHANGE", "localdrop"),
		ExchangeType: getEnv("RABBITMQ_EXCHANGE_TYPE", "topic"),
		QueueName:    getEnv("RABBITMQ_QUEUE_NAME", "localdrop.files"),
	}
	stream := Stream{
		SubscriberBuffer: getEnvInt("STREAM_SUBSCRIBER_BUFFER", 64),
		Heartbeat:        getEnvDuration("STREAM_HEARTBEAT", 15*time.Second),
	}
	rl := RateLimit{
		RPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		Burst: getEnvInt("RATE_LIMIT_BURST", 20),
		TTL:   getEnvDuration("RATE_LIMIT_TTL", 10*time.Minute),
	}
	cors := CORS{
		AllowOrigins: getEnvList("CORS_ALLOW_ORIGINS", []string{"*"}),
	}

	return Config{
		App:       app,
		Storage:   storage,
		DB:        db,
		S3:        s3,
		MQ:        mq,
		Stream:    stream,
		RateLimit: rl,
		CORS:      cors,
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	if _, err := strconv.ParseUint(c.App.Port, 10, 16); err != nil {
		errs = append(errs, fmt.Errorf("invalid SERVICE_PORT %q", c.App.Port))
	}
	if c.Storage.Dir == "" && c.Storage.Backend != BackendMinio {
		errs = append(errs, errors.New("STORAGE_DIR is required"))
	}
	if c.Storage.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("STORAGE_MAX_UPLOAD_BYTES must be positive"))
	}
	switch c.Storage.Backend {
	case BackendFS:
	case BackendPostgres:
		if _, err := c.DBDSN(); err != nil {
			errs = append(errs, err)
		}
	case BackendMinio:
		if c.S3.Endpoint == "" || c.S3.BucketUploads == "" {
			errs = append(errs, errors.New("S3_ENDPOINT and S3_BUCKET_UPLOADS are required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}
	if c.MQ.Enabled {
		if _, err := c.AMQPDSN(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Stream.SubscriberBuffer <= 0 {
		errs = append(errs, errors.New("STREAM_SUBSCRIBER_BUFFER must be positive"))
	}
	if c.Stream.Heartbeat <= 0 {
		errs = append(errs, errors.New("STREAM_HEARTBEAT must be positive"))
	}

	return errors.Join(errs...)
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	return fmt.Sprintf(
		"postgres://%s@%s:%s/%s",
		url.UserPassword(c.DB.User, c.DB.Password).String(),
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
	), nil
}

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}
