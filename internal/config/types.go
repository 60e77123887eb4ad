package config

// Config holds all txdash configuration.
type Config struct {
	APIURL         string  `json:"api_url"`
	Chain          string  `json:"chain"`
	DefaultAddress string  `json:"default_address"`
	PollInterval   int     `json:"poll_interval"`   // seconds
	SettleDelay    int     `json:"settle_delay"`    // seconds
	CacheTTL       int     `json:"cache_ttl"`       // seconds
	CacheSize      int     `json:"cache_size"`      // entries
	RateLimit      float64 `json:"rate_limit"`      // requests per second, 0 = unlimited
	Retries        int     `json:"retries"`         // extra attempts on transport failure
	RequestTimeout int     `json:"request_timeout"` // seconds
	NATSURL        string  `json:"nats_url"`
	NATSSubject    string  `json:"nats_subject"`
	MetricsAddr    string  `json:"metrics_addr"`
	LogLevel       string  `json:"log_level"`

	// internal: config dir path used for Save()
	configDir string
}

// RecentFile is the structure of recent.json: addresses watched before,
// most recent first. No transaction data is stored.
type RecentFile struct {
	Addresses []string `json:"addresses"`
}
