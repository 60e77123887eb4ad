package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/txdash/internal/chain"
	"github.com/rs/zerolog"
)

const (
	defaultAPIURL         = "https://api.etherscan.io/v2/api"
	defaultChain          = "ethereum"
	defaultPollInterval   = 15
	defaultSettleDelay    = 2
	defaultCacheTTL       = 30
	defaultCacheSize      = 64
	defaultRateLimit      = 5
	defaultRetries        = 2
	defaultRequestTimeout = 12
	defaultNATSSubject    = "txdash.new"
	defaultLogLevel       = "info"

	maxRecent = 10

	configFile = "config.json"
	recentFile = "recent.json"
	logFile    = "txdash.log"
)

// EnvDir overrides the config directory when --config is not given.
const EnvDir = "TXDASH_CONFIG_DIR"

// Load reads config from dir (or creates defaults). dir defaults to
// $TXDASH_CONFIG_DIR, then ~/.txdash.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = os.Getenv(EnvDir)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".txdash")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// LogPath returns the default log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.configDir, logFile)
}

// Network resolves the configured chain.
func (c *Config) Network() (chain.Network, error) {
	return chain.LookupNetwork(c.Chain)
}

// PollIntervalDuration is the wait between two live-mode ticks.
func (c *Config) PollIntervalDuration() time.Duration { return seconds(c.PollInterval) }

// SettleDelayDuration is the extra wait after a tick that found new data.
func (c *Config) SettleDelayDuration() time.Duration { return seconds(c.SettleDelay) }

// CacheTTLDuration is how long an identical explorer call is served from memory.
func (c *Config) CacheTTLDuration() time.Duration { return seconds(c.CacheTTL) }

// RequestTimeoutDuration bounds a single HTTP call to the explorer.
func (c *Config) RequestTimeoutDuration() time.Duration { return seconds(c.RequestTimeout) }

// Level parses LogLevel, falling back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Keys returns every settable key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "chain":
		return c.Chain, nil
	case "default_address":
		return c.DefaultAddress, nil
	case "poll_interval":
		return strconv.Itoa(c.PollInterval), nil
	case "settle_delay":
		return strconv.Itoa(c.SettleDelay), nil
	case "cache_ttl":
		return strconv.Itoa(c.CacheTTL), nil
	case "cache_size":
		return strconv.Itoa(c.CacheSize), nil
	case "rate_limit":
		return strconv.FormatFloat(c.RateLimit, 'f', -1, 64), nil
	case "retries":
		return strconv.Itoa(c.Retries), nil
	case "request_timeout":
		return strconv.Itoa(c.RequestTimeout), nil
	case "nats_url":
		return c.NATSURL, nil
	case "nats_subject":
		return c.NATSSubject, nil
	case "metrics_addr":
		return c.MetricsAddr, nil
	case "log_level":
		return c.LogLevel, nil
	}
	return "", fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
}

// Set validates value and assigns it to key. The config is not saved.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := set(c, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

var setters = map[string]func(*Config, string) error{
	"api_url": func(c *Config, v string) error {
		if v == "" {
			v = defaultAPIURL
		}
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return fmt.Errorf("must be an http(s) URL")
		}
		c.APIURL = v
		return nil
	},
	"chain": func(c *Config, v string) error {
		n, err := chain.LookupNetwork(v)
		if err != nil {
			return err
		}
		c.Chain = n.Name
		return nil
	},
	"default_address": func(c *Config, v string) error {
		if v != "" {
			if err := chain.ValidateAddress(v); err != nil {
				return err
			}
		}
		c.DefaultAddress = v
		return nil
	},
	"poll_interval":   positiveInt(func(c *Config) *int { return &c.PollInterval }),
	"settle_delay":    nonNegativeInt(func(c *Config) *int { return &c.SettleDelay }),
	"cache_ttl":       positiveInt(func(c *Config) *int { return &c.CacheTTL }),
	"cache_size":      positiveInt(func(c *Config) *int { return &c.CacheSize }),
	"retries":         nonNegativeInt(func(c *Config) *int { return &c.Retries }),
	"request_timeout": positiveInt(func(c *Config) *int { return &c.RequestTimeout }),
	"rate_limit": func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("must be a non-negative number")
		}
		c.RateLimit = f
		return nil
	},
	"nats_url": func(c *Config, v string) error {
		if v != "" && !strings.Contains(v, "://") {
			return fmt.Errorf("must be a URL such as nats://127.0.0.1:4222")
		}
		c.NATSURL = v
		return nil
	},
	"nats_subject": func(c *Config, v string) error {
		if v == "" {
			v = defaultNATSSubject
		}
		if strings.ContainsAny(v, " \t*>") {
			return fmt.Errorf("must be a literal subject without wildcards")
		}
		c.NATSSubject = v
		return nil
	},
	"metrics_addr": func(c *Config, v string) error {
		c.MetricsAddr = v
		return nil
	},
	"log_level": func(c *Config, v string) error {
		if _, err := zerolog.ParseLevel(strings.ToLower(v)); err != nil || v == "" {
			return fmt.Errorf("must be one of trace, debug, info, warn, error")
		}
		c.LogLevel = strings.ToLower(v)
		return nil
	},
}

func positiveInt(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("must be a positive integer")
		}
		*field(c) = n
		return nil
	}
}

func nonNegativeInt(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("must be a non-negative integer")
		}
		*field(c) = n
		return nil
	}
}

// LoadRecent reads recent.json.
func (c *Config) LoadRecent() (*RecentFile, error) {
	return loadJSON[RecentFile](filepath.Join(c.configDir, recentFile))
}

// RememberAddress moves address to the front of recent.json, keeping at most
// ten entries. Addresses are compared case-insensitively.
func (c *Config) RememberAddress(address string) error {
	rf, err := c.LoadRecent()
	if err != nil {
		return err
	}
	rf.Addresses = slices.DeleteFunc(rf.Addresses, func(a string) bool {
		return strings.EqualFold(a, address)
	})
	rf.Addresses = append([]string{address}, rf.Addresses...)
	if len(rf.Addresses) > maxRecent {
		rf.Addresses = rf.Addresses[:maxRecent]
	}
	return saveJSON(filepath.Join(c.configDir, recentFile), rf)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		APIURL:         defaultAPIURL,
		Chain:          defaultChain,
		PollInterval:   defaultPollInterval,
		SettleDelay:    defaultSettleDelay,
		CacheTTL:       defaultCacheTTL,
		CacheSize:      defaultCacheSize,
		RateLimit:      defaultRateLimit,
		Retries:        defaultRetries,
		RequestTimeout: defaultRequestTimeout,
		NATSSubject:    defaultNATSSubject,
		LogLevel:       defaultLogLevel,
		configDir:      dir,
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func loadJSON[T any](path string) (*T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &zero, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
