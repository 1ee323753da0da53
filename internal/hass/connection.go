package hass

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/home-assistant-blueprints/ha-config-lsp/internal/completion"
	errs "github.com/home-assistant-blueprints/ha-config-lsp/internal/errors"
)

const statesKey = "get_states"

// DialFunc opens an authenticated client.
type DialFunc func(ctx context.Context, opts DialOptions) (*Client, error)

// Connection is a lazily dialed, self-healing link to Home Assistant that
// serves entity completions.
type Connection struct {
	opts   DialOptions
	dial   DialFunc
	logger *zap.SugaredLogger

	mu     sync.Mutex
	client *Client
	closed bool

	// nil when caching is disabled
	cache *expirable.LRU[string, []State]
}

var _ completion.EntitySource = (*Connection)(nil)

// ConnectionOption configures a Connection.
type ConnectionOption func(*Connection)

// WithCacheTTL keeps get_states results for ttl. Zero disables caching.
func WithCacheTTL(ttl time.Duration) ConnectionOption {
	return func(c *Connection) {
		if ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = expirable.NewLRU[string, []State](1, nil, ttl)
	}
}

// WithDialFunc replaces Dial.
func WithDialFunc(dial DialFunc) ConnectionOption {
	return func(c *Connection) {
		c.dial = dial
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) ConnectionOption {
	return func(c *Connection) {
		c.logger = logger
	}
}

// NewConnection returns a Connection that dials on first use.
func NewConnection(opts DialOptions, options ...ConnectionOption) *Connection {
	c := &Connection{
		opts:   opts,
		dial:   Dial,
		logger: zap.NewNop().Sugar(),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// current returns a live client, dialing when there is none or the
// previous one has gone away.
func (c *Connection) current(ctx context.Context) (*Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errs.ErrConnectionClosed(nil)
	}
	if c.client != nil {
		select {
		case <-c.client.Done():
			c.logger.Infow("Home Assistant connection lost, reconnecting", "url", c.opts.URL)
			c.client = nil
		default:
			return c.client, nil
		}
	}

	client, err := c.dial(ctx, c.opts)
	if err != nil {
		return nil, err
	}
	c.logger.Infow("Connected to Home Assistant", "url", c.opts.URL)
	c.client = client
	return client, nil
}

// States returns every entity state, from cache when fresh.
func (c *Connection) States(ctx context.Context) ([]State, error) {
	if c.cache != nil {
		if states, ok := c.cache.Get(statesKey); ok {
			return states, nil
		}
	}

	client, err := c.current(ctx)
	if err != nil {
		return nil, err
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	states, err := client.GetStates(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Debugw("Fetched entity states",
		"count", len(states),
		"duration", time.Since(start),
	)

	if c.cache != nil {
		c.cache.Add(statesKey, states)
	}
	return states, nil
}

// Invalidate drops any cached states.
func (c *Connection) Invalidate() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

// EntityCompletions implements completion.EntitySource.
func (c *Connection) EntityCompletions(ctx context.Context) ([]completion.Candidate, error) {
	states, err := c.States(ctx)
	if err != nil {
		return nil, err
	}
	return Candidates(states), nil
}

// Close closes the current client. Later calls fail.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// Candidates converts states into completion candidates, keeping their order.
func Candidates(states []State) []completion.Candidate {
	out := make([]completion.Candidate, 0, len(states))
	for _, s := range states {
		name := s.FriendlyName()
		filter := s.EntityID
		if name != "" {
			filter += " " + name
		}
		out = append(out, completion.Candidate{
			Label:         s.EntityID,
			Kind:          completion.KindVariable,
			Detail:        name,
			Documentation: documentation(s),
			FilterText:    filter,
			InsertText:    s.EntityID,
		})
	}
	return out
}

func documentation(s State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\nState: `%s`\n", s.EntityID, s.State)
	if len(s.Attributes) == 0 {
		return b.String()
	}

	keys := make([]string, 0, len(s.Attributes))
	for k := range s.Attributes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	b.WriteString("\n| Attribute | Value |\n|---|---|\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(k), escapeCell(formatValue(s.Attributes[k])))
	}
	return b.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
