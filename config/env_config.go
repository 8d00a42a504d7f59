package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type EnvConfig struct {
	Postgres struct {
		Host     string
		Database string
		Username string
		Password string
		Port     string
	}
	JWT struct {
		SecretKey string
		Algorithm string
		Expire    int
	}
	CORS struct {
		AllowDomains string
		GlobalDomain string
	}
	Redis struct {
		Password  string
		Database  int
		RedisHost string
		RedisPort string
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	Minio struct {
		Endpoint     string
		RootUser     string
		RootPassword string
		Bucket       string
		UseSSL       bool
		PublicURL    string
	}
	Upload struct {
		AsyncThreshold int64         // Files above this go through the worker pool
		MaxFileSize    int64         // Hard ceiling for any upload
		PresignTTL     time.Duration // Lifetime of presigned upload/download URLs
		PendingSlack   time.Duration // Extra time before a pending row is swept
	}
	WorkerPool struct {
		SizeMultiplier int // Workers = CPU cores * multiplier
		QueueSize      int
		IdleTimeout    time.Duration
		ShutdownGrace  time.Duration
	}
	Grafana struct {
		OTLPEndpoint string
		ServiceName  string
	}
	PrivateKey string

	Environment struct {
		Mode  string
		Group string
	}
	DomainName string
}

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	// Postgres
	config.Postgres.Host = os.Getenv("PGPOOL_HOST")
	config.Postgres.Database = os.Getenv("PGPOOL_DB")
	config.Postgres.Username = os.Getenv("PGPOOL_USER")
	config.Postgres.Password = os.Getenv("PGPOOL_PASSWORD")
	config.Postgres.Port = os.Getenv("PGPOOL_PORT")

	// JWT
	config.JWT.SecretKey = os.Getenv("JWT_SECRET_KEY")
	config.JWT.Algorithm = os.Getenv("JWT_ALGORITHM")
	if val := os.Getenv("JWT_EXPIRE"); val != "" {
		config.JWT.Expire, _ = strconv.Atoi(val)
	} else {
		config.JWT.Expire = 3600 * 24 * 7
	}

	config.CORS.AllowDomains = os.Getenv("ALLOWED_DOMAINS")
	config.CORS.GlobalDomain = os.Getenv("GLOBAL_DOMAIN")

	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	config.Redis.RedisHost = os.Getenv("REDIS_HOST")
	config.Redis.RedisPort = os.Getenv("REDIS_PORT")

	// RabbitMQ
	config.RabbitMQ.Host = os.Getenv("RABBITMQ_HOST")
	if config.RabbitMQ.Host == "" {
		config.RabbitMQ.Host = "localhost"
	}
	config.RabbitMQ.Port = os.Getenv("RABBITMQ_PORT")
	if config.RabbitMQ.Port == "" {
		config.RabbitMQ.Port = "5672"
	}
	config.RabbitMQ.Username = os.Getenv("RABBITMQ_USER")
	if config.RabbitMQ.Username == "" {
		config.RabbitMQ.Username = "guest"
	}
	config.RabbitMQ.Password = os.Getenv("RABBITMQ_PASSWORD")
	if config.RabbitMQ.Password == "" {
		config.RabbitMQ.Password = "guest"
	}

	// MinIO
	config.Minio.Endpoint = os.Getenv("MINIO_ENDPOINT")
	config.Minio.RootUser = os.Getenv("MINIO_ROOT_USER")
	config.Minio.RootPassword = os.Getenv("MINIO_ROOT_PASSWORD")
	config.Minio.Bucket = os.Getenv("MINIO_BUCKET")
	if config.Minio.Bucket == "" {
		config.Minio.Bucket = "user-images"
	}
	config.Minio.UseSSL = os.Getenv("MINIO_USE_SSL") == "true"
	config.Minio.PublicURL = os.Getenv("MINIO_PUBLIC_URL")

	// Upload policy
	if val := os.Getenv("UPLOAD_ASYNC_THRESHOLD"); val != "" {
		if threshold, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Upload.AsyncThreshold = threshold
		}
	}
	if config.Upload.AsyncThreshold == 0 {
		config.Upload.AsyncThreshold = 5242880 // Default 5MB
	}
	if val := os.Getenv("UPLOAD_MAX_FILE_SIZE"); val != "" {
		if maxSize, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Upload.MaxFileSize = maxSize
		}
	}
	if config.Upload.MaxFileSize == 0 {
		config.Upload.MaxFileSize = 52428800 // Default 50MB
	}
	config.Upload.PresignTTL = durationEnv("UPLOAD_PRESIGN_TTL", 15*time.Minute)
	config.Upload.PendingSlack = durationEnv("UPLOAD_PENDING_SLACK", time.Hour)

	// Worker pool
	config.WorkerPool.SizeMultiplier, _ = strconv.Atoi(os.Getenv("WORKER_POOL_MULTIPLIER"))
	if config.WorkerPool.SizeMultiplier == 0 {
		config.WorkerPool.SizeMultiplier = 3
	}
	config.WorkerPool.QueueSize, _ = strconv.Atoi(os.Getenv("WORKER_POOL_QUEUE_SIZE"))
	if config.WorkerPool.QueueSize == 0 {
		config.WorkerPool.QueueSize = 500
	}
	config.WorkerPool.IdleTimeout = durationEnv("WORKER_POOL_IDLE_TIMEOUT", 120*time.Second)
	config.WorkerPool.ShutdownGrace = durationEnv("WORKER_POOL_SHUTDOWN_GRACE", 60*time.Second)

	config.PrivateKey = os.Getenv("PRIVATE_KEY")

	// Grafana/OpenTelemetry
	grafanaEndpoint := os.Getenv("GRAFANA_OTLP_ENDPOINT")
	if grafanaEndpoint == "" {
		grafanaEndpoint = "localhost:4318"
	}
	// Remove protocol for OpenTelemetry client to avoid duplicate protocols
	if strings.HasPrefix(grafanaEndpoint, "https://") {
		config.Grafana.OTLPEndpoint = strings.TrimPrefix(grafanaEndpoint, "https://")
	} else if strings.HasPrefix(grafanaEndpoint, "http://") {
		config.Grafana.OTLPEndpoint = strings.TrimPrefix(grafanaEndpoint, "http://")
	} else {
		config.Grafana.OTLPEndpoint = grafanaEndpoint
	}
	config.Grafana.ServiceName = os.Getenv("SERVICE_NAME")
	if config.Grafana.ServiceName == "" {
		config.Grafana.ServiceName = "apple-media-service"
	}

	config.Environment.Mode = os.Getenv("DEPLOY_ENV")
	if config.Environment.Mode == "" {
		config.Environment.Mode = "development"
	}

	config.Environment.Group = os.Getenv("GROUP_NAME")
	if config.Environment.Group == "" {
		config.Environment.Group = "local"
	}

	config.DomainName = os.Getenv("DOMAIN_NAME")
	if config.DomainName == "" {
		config.DomainName = "localhost:8080"
	}

	return &config
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
