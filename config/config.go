// Package config holds daemon configuration: defaults are embedded as TOML
// and may be overridden by a user-supplied file and a handful of
// environment variables for secrets.
package config

import (
	"fmt"
	"sync/atomic"
)

// Provider holds the current configuration and allows atomic, lock-free
// reads plus a SIGHUP-driven swap.
type Provider struct {
	value atomic.Value // *Config
}

// NewProvider wraps an already-loaded config. Panics on nil, matching the
// invariant that every daemon always has a current config.
func NewProvider(c *Config) *Provider {
	if c == nil {
		panic("config: initial config cannot be nil")
	}
	p := &Provider{}
	p.value.Store(c)
	return p
}

// Get returns the current snapshot. Safe for concurrent use.
func (p *Provider) Get() *Config { return p.value.Load().(*Config) }

// Update atomically swaps in a new config. The caller validates newConfig
// before calling Update.
func (p *Provider) Update(newConfig *Config) { p.value.Store(newConfig) }

// Server holds the shared net/http.Server tuning used by the queue daemon
// and the web frontend; the worker has no HTTP server.
type Server struct {
	Addr                    string   `toml:"addr"`
	ShutdownGracefulTimeout Duration `toml:"shutdown_graceful_timeout"`
	ReadTimeout             Duration `toml:"read_timeout"`
	ReadHeaderTimeout       Duration `toml:"read_header_timeout"`
	WriteTimeout            Duration `toml:"write_timeout"`
	IdleTimeout             Duration `toml:"idle_timeout"`
}

// Queue holds the queue daemon's own settings.
type Queue struct {
	StateFile         string   `toml:"state_file"`
	ModelDir          string   `toml:"model_dir"`
	RequestSecret     string   `toml:"request_secret"`
	KeepAliveInterval Duration `toml:"keep_alive_interval"`
	KeepAliveTimeout  Duration `toml:"keep_alive_timeout"`
	MaxJobFailures    int      `toml:"max_job_failures"`
	ConfirmTimeout    Duration `toml:"confirm_timeout"`
	ModelScanInterval Duration `toml:"model_scan_interval"`
	ConfirmBaseURL    string   `toml:"confirm_base_url"`

	// AlarmDiscordWebhookURL, if set, routes operational alarms (persist
	// failures and the like) to a Discord channel instead of only the log.
	AlarmDiscordWebhookURL string `toml:"alarm_discord_webhook_url"`
}

// Smtp holds outgoing mail settings.
type Smtp struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	Username    string   `toml:"username"`
	Password    string   `toml:"password"`
	UseTLS      bool     `toml:"use_tls"`
	UseAuth     bool     `toml:"use_auth"`
	FromAddress string   `toml:"from_address"`
	CC          []string `toml:"cc"`
	BCC         []string `toml:"bcc"`
}

// Web holds the stateless web frontend's settings.
type Web struct {
	Addr             string  `toml:"addr"`
	QueueBaseURL     string  `toml:"queue_base_url"`
	RequestSecret    string  `toml:"request_secret"`
	ConfirmRatePerS  float64 `toml:"confirm_rate_per_s"`
	ConfirmRateBurst int     `toml:"confirm_rate_burst"`
}

// Worker holds the worker driver's settings.
type Worker struct {
	QueueBaseURL      string   `toml:"queue_base_url"`
	RequestSecret     string   `toml:"request_secret"`
	ModelDir          string   `toml:"model_dir"`
	WorkDir           string   `toml:"work_dir"`
	RequestSleepTime  Duration `toml:"request_sleep_time"`
	KeepAliveInterval Duration `toml:"keep_alive_interval"`
	LatexEngine       string   `toml:"latex_engine"`
	LatexNumRuns      int      `toml:"latex_num_runs"`
}

// Config is the full, validated configuration for any one of the three
// daemons; each binary reads only the sub-struct it needs.
type Config struct {
	Server Server `toml:"server"`
	Queue  Queue  `toml:"queue"`
	Smtp   Smtp   `toml:"smtp"`
	Web    Web    `toml:"web"`
	Worker Worker `toml:"worker"`
}

// Validate rejects a configuration missing a field every daemon depends on
// unconditionally, mirroring the teacher's config_validate.go shape of one
// check per required field with a descriptive error.
func (c *Config) Validate() error {
	if c.Queue.RequestSecret == "" {
		return fmt.Errorf("config: queue.request_secret must not be empty")
	}
	if c.Queue.MaxJobFailures <= 0 {
		return fmt.Errorf("config: queue.max_job_failures must be positive")
	}
	if c.Queue.KeepAliveInterval.Duration <= 0 {
		return fmt.Errorf("config: queue.keep_alive_interval must be positive")
	}
	if c.Queue.KeepAliveTimeout.Duration <= 0 {
		return fmt.Errorf("config: queue.keep_alive_timeout must be positive")
	}
	if c.Queue.ModelScanInterval.Duration <= 0 {
		return fmt.Errorf("config: queue.model_scan_interval must be positive")
	}
	if c.Smtp.Host == "" {
		return fmt.Errorf("config: smtp.host must not be empty")
	}
	return nil
}
