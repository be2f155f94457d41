package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xyz-asif/citycare/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

// Connection owns the MongoDB client and tracks whether the server is
// currently reachable. Reachability is probed at startup, on a schedule
// via Watch, on demand via Probe, and cleared by MarkUnreachable when a
// durable operation fails with a connectivity error.
type Connection struct {
	Client   *mongo.Client
	Database *mongo.Database
	URI      string
	DBName   string

	timeout time.Duration

	mu        sync.RWMutex
	reachable bool
	checkedAt time.Time
	lastErr   error
	listeners []func(bool)
}

// Config represents database configuration
type Config struct {
	URI     string
	DBName  string
	Timeout time.Duration
	MaxPool uint64
	MinPool uint64
}

// DefaultConfig returns default database configuration
func DefaultConfig() *Config {
	return &Config{
		URI:     "mongodb://localhost:27017",
		DBName:  "citycare",
		Timeout: 5 * time.Second,
		MaxPool: 100,
		MinPool: 0,
	}
}

// State is a point-in-time view of reachability.
type State struct {
	Reachable bool
	CheckedAt time.Time
	Err       error
}

// NewConnection builds the client. The driver connects lazily, so an
// unreachable server is not an error here; only a malformed URI is.
func NewConnection(cfg *Config) (*Connection, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	clientOptions := options.Client().ApplyURI(cfg.URI)
	clientOptions.SetMaxPoolSize(cfg.MaxPool)
	clientOptions.SetMinPoolSize(cfg.MinPool)
	clientOptions.SetMaxConnIdleTime(30 * time.Second)
	clientOptions.SetServerSelectionTimeout(cfg.Timeout)
	clientOptions.SetConnectTimeout(cfg.Timeout)

	client, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	return &Connection{
		Client:   client,
		Database: client.Database(cfg.DBName),
		URI:      cfg.URI,
		DBName:   cfg.DBName,
		timeout:  cfg.Timeout,
	}, nil
}

// Probe pings the primary and records the outcome.
func (c *Connection) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.Client.Ping(ctx, readpref.Primary())
	c.set(err == nil, err)
	return err == nil
}

// Reachable reports the last known reachability.
func (c *Connection) Reachable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reachable
}

// MarkUnreachable flips the state to offline until the next successful probe.
func (c *Connection) MarkUnreachable(cause error) {
	c.set(false, cause)
}

// State returns the last probe result.
func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{Reachable: c.reachable, CheckedAt: c.checkedAt, Err: c.lastErr}
}

// OnChange registers fn to be called whenever reachability flips.
func (c *Connection) OnChange(fn func(reachable bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Watch re-probes every interval until ctx is done. A non-positive
// interval disables scheduled probing.
func (c *Connection) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Probe(ctx)
		}
	}
}

func (c *Connection) set(reachable bool, err error) {
	c.mu.Lock()
	changed := c.reachable != reachable
	c.reachable = reachable
	c.checkedAt = time.Now()
	c.lastErr = err
	listeners := append([]func(bool){}, c.listeners...)
	c.mu.Unlock()

	if !changed {
		return
	}
	if reachable {
		logger.Info("MongoDB reachable at %s (db=%s)", RedactURI(c.URI), c.DBName)
	} else {
		logger.Warn("MongoDB unreachable, serving from fallback store: %v", err)
	}
	for _, fn := range listeners {
		fn(reachable)
	}
}

// Close closes the database connection
func (c *Connection) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.Client.Disconnect(ctx)
}

// IsUnavailable reports whether err means the server could not be reached,
// as opposed to a query or decode failure.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	return mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, topology.ErrServerSelectionTimeout) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, context.DeadlineExceeded)
}
