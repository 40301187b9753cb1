package apiserver

type Config struct {
	BindAddr        string   `toml:"bind_addr"`
	LogLevel        string   `toml:"log_level"`
	DatabaseURL     string   `toml:"database_url"`
	JWTSecret       string   `toml:"jwt_secret"`
	TLSCert         string   `toml:"tls_cert"`
	TLSKey          string   `toml:"tls_key"`
	PageSize        int      `toml:"page_size"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	NatsURL         string   `toml:"nats_url"`
	NatsSubject     string   `toml:"nats_subject"`
	NotifyFromEmail string   `toml:"notify_from_email"`
	NotifyWorkers   int      `toml:"notify_workers"`
	NotifyQueueSize int      `toml:"notify_queue_size"`
	MemcachedURL    string   `toml:"memcached_url"`
	CacheTTLSeconds int      `toml:"cache_ttl_seconds"`
	ZipkinURL       string   `toml:"zipkin_url"`
}

func NewConfig() *Config {
	return &Config{
		BindAddr:        ":8080",
		LogLevel:        "debug",
		PageSize:        10,
		AllowedOrigins:  []string{"*"},
		NotifyFromEmail: "info@authors-haven.test",
		NotifyWorkers:   2,
		NotifyQueueSize: 128,
		CacheTTLSeconds: 60,
	}
}
