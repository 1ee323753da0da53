// Package config holds the runtime settings of the language server.
package config

import (
	"errors"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/home-assistant-blueprints/ha-config-lsp/internal/completion"
	errs "github.com/home-assistant-blueprints/ha-config-lsp/internal/errors"
)

const (
	// SupervisorWebSocketURL is used when no URL is configured, which is the
	// case inside a Home Assistant add-on.
	SupervisorWebSocketURL = "ws://supervisor/core/api/websocket"

	DefaultTimeout        = 30 * time.Second
	DefaultEntityCacheTTL = 30 * time.Second
	DefaultMaxDocuments   = 100
	DefaultLogLevel       = "info"

	websocketPath = "/api/websocket"
)

// Config is the complete server configuration.
type Config struct {
	// URL of the Home Assistant instance: http(s)://host:8123 or a ws(s) URL.
	URL   string
	Token string
	// Insecure disables TLS certificate verification.
	Insecure bool
	// Timeout bounds dialing and each request to Home Assistant.
	Timeout time.Duration
	// EntityCacheTTL is how long a get_states snapshot is reused. Zero disables caching.
	EntityCacheTTL time.Duration
	// EntityProperties replaces the default entity-bearing property names when set.
	EntityProperties []string
	// MaxDocuments caps the number of open documents the server tracks.
	MaxDocuments int
	LogLevel     string
	LogJSON      bool
}

// Default returns a Config with every default applied.
func Default() Config {
	return Config{
		Timeout:        DefaultTimeout,
		EntityCacheTTL: DefaultEntityCacheTTL,
		MaxDocuments:   DefaultMaxDocuments,
		LogLevel:       DefaultLogLevel,
	}
}

// HasToken reports whether a Home Assistant token is configured.
func (c Config) HasToken() bool {
	return strings.TrimSpace(c.Token) != ""
}

// Validate checks every setting that can be checked without a connection.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return errs.ErrInvalidSetting("timeout", "must be positive")
	}
	if c.EntityCacheTTL < 0 {
		return errs.ErrInvalidSetting("entity-cache-ttl", "must not be negative")
	}
	if c.MaxDocuments <= 0 {
		return errs.ErrInvalidSetting("max-documents", "must be positive")
	}
	if _, err := c.WebSocketURL(); err != nil {
		return err
	}
	if _, err := c.PropertySet(); err != nil {
		return err
	}
	return nil
}

// WebSocketURL returns the websocket API endpoint for URL.
func (c Config) WebSocketURL() (string, error) {
	raw := strings.TrimSpace(c.URL)
	if raw == "" {
		return SupervisorWebSocketURL, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errs.ErrInvalidURL(raw, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errs.ErrInvalidURL(raw, errors.New("scheme must be http, https, ws or wss"))
	}
	if u.Host == "" {
		return "", errs.ErrInvalidURL(raw, errors.New("missing host"))
	}

	if !strings.HasSuffix(u.Path, websocketPath) {
		u.Path = strings.TrimRight(u.Path, "/") + websocketPath
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// PropertySet returns the configured entity property names, or the
// defaults when none are set.
func (c Config) PropertySet() (completion.PropertySet, error) {
	if len(c.EntityProperties) == 0 {
		return completion.DefaultProperties(), nil
	}
	names := make([]string, 0, len(c.EntityProperties))
	for _, n := range c.EntityProperties {
		names = append(names, strings.TrimSpace(n))
	}
	return completion.NewPropertySet(names...)
}

// LoadEnvFile loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errs.ErrInvalidSetting("env-file", err.Error())
	}
	return nil
}
