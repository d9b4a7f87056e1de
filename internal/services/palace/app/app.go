// Package app wires the credential store, channel, session, and sync client
// into one closeable unit for host processes.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/palacesync/internal/platform/config"
	"github.com/louisbranch/palacesync/internal/platform/telemetry/metrics"
	"github.com/louisbranch/palacesync/internal/services/palace/channel"
	"github.com/louisbranch/palacesync/internal/services/palace/client"
	"github.com/louisbranch/palacesync/internal/services/palace/clientcreds"
	"github.com/louisbranch/palacesync/internal/services/palace/session"
	"github.com/louisbranch/palacesync/internal/services/palace/storage/sqlite"
	"github.com/louisbranch/palacesync/internal/services/shared/grpcauthctx"
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds env-parsed settings for the sync client.
type Config struct {
	Endpoint string `env:"PALACE_SYNC_ENDPOINT" envDefault:"localhost:5415"`
	Mode     string `env:"PALACE_SYNC_MODE" envDefault:"online"`
	DBPath   string `env:"PALACE_SYNC_DB_PATH"`
	Product  string `env:"PALACE_SYNC_PRODUCT" envDefault:"palacesync"`
	Version  string `env:"PALACE_SYNC_VERSION" envDefault:"1.0.0"`
	TLS      clientcreds.Config
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// App is a fully wired sync client.
type App struct {
	Client   *client.Client
	Sessions *session.Manager
	Registry *prometheus.Registry

	store *sqlite.Store
}

// New opens the credential store and builds the client stack. Nothing is
// dialed until the first operation.
func New(cfg Config, logf func(string, ...any)) (*App, error) {
	mode, err := session.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	dbPath := strings.TrimSpace(cfg.DBPath)
	if dbPath == "" {
		dbPath = filepath.Join("data", "palacesync.db")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	target, err := channel.ParseTarget(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	channels, err := channel.New(channel.Config{
		Endpoint:    cfg.Endpoint,
		Identity:    grpcauthctx.ClientIdentity{Product: cfg.Product, Version: cfg.Version},
		Credentials: clientcreds.FromConfig(cfg.TLS, target.Secure, target.ServerName),
		Logf:        logf,
	})
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}

	sessions, err := session.New(session.Config{
		Endpoint: cfg.Endpoint,
		Mode:     session.StaticMode(mode),
		Store:    store,
		Channels: channels,
		Metrics:  recorder,
		Logf:     logf,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	syncClient, err := client.New(client.Config{
		Sessions: sessions,
		Metrics:  recorder,
		Logf:     logf,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{
		Client:   syncClient,
		Sessions: sessions,
		Registry: registry,
		store:    store,
	}, nil
}

// Close disposes the channel and closes the store.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return errors.Join(a.Sessions.Close(), a.store.Close())
}
