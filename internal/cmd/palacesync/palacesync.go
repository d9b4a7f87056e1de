// Package palacesync parses sync command flags and runs one operation
// against the palace service.
package palacesync

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/louisbranch/palacesync/internal/platform/cmd"
	"github.com/louisbranch/palacesync/internal/platform/otel"
	"github.com/louisbranch/palacesync/internal/services/palace/app"
	"github.com/louisbranch/palacesync/internal/services/palace/marker"
	"github.com/prometheus/client_golang/prometheus"
)

// Commands accepted as the first argument.
const (
	CommandVerify   = "verify"
	CommandDownload = "download"
	CommandUpload   = "upload"
	CommandStats    = "stats"
)

// Config holds sync command configuration.
type Config struct {
	App         app.Config
	Telemetry   otel.Config
	MetricsFile string `env:"PALACE_SYNC_METRICS_FILE"`

	Command     string
	Zone        uint
	MarkersFile string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := cmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.App.Endpoint, "endpoint", cfg.App.Endpoint, "palace server endpoint (host:port or http(s) URL)")
	fs.StringVar(&cfg.App.Mode, "mode", cfg.App.Mode, "operating mode: online or local")
	fs.StringVar(&cfg.App.DBPath, "db-path", cfg.App.DBPath, "path to the credential database")
	fs.UintVar(&cfg.Zone, "zone", 0, "zone (territory type) for download and upload")
	fs.StringVar(&cfg.MarkersFile, "markers", "", "JSON file of markers to upload")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write Prometheus metrics to this file on exit")
	if err := cmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	rest := fs.Args()
	if len(rest) != 1 {
		return Config{}, fmt.Errorf("expected exactly one command (%s), got %d", strings.Join(commands(), ", "), len(rest))
	}
	cfg.Command = rest[0]
	switch cfg.Command {
	case CommandVerify, CommandStats:
	case CommandDownload:
		if cfg.Zone == 0 {
			return Config{}, errors.New("download requires -zone")
		}
	case CommandUpload:
		if cfg.Zone == 0 {
			return Config{}, errors.New("upload requires -zone")
		}
		if cfg.MarkersFile == "" {
			return Config{}, errors.New("upload requires -markers")
		}
	default:
		return Config{}, fmt.Errorf("unknown command %q", cfg.Command)
	}
	if cfg.Zone > 0xFFFF {
		return Config{}, fmt.Errorf("zone %d out of range", cfg.Zone)
	}
	return cfg, nil
}

func commands() []string {
	return []string{CommandVerify, CommandDownload, CommandUpload, CommandStats}
}

// Run executes the configured command and writes its result to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	cfg.Telemetry.Version = cfg.App.Version
	cfg.Telemetry.SyncEndpoint = cfg.App.Endpoint
	return cmd.RunWithTelemetry(ctx, cmd.ServicePalaceSync, cmd.RunOptions{Telemetry: cfg.Telemetry}, func(ctx context.Context) error {
		return run(ctx, cfg, out)
	})
}

func run(ctx context.Context, cfg Config, out io.Writer) (err error) {
	var markers []marker.Marker
	if cfg.Command == CommandUpload {
		markers, err = readMarkers(cfg.MarkersFile)
		if err != nil {
			return err
		}
	}

	a, err := app.New(cfg.App, log.Printf)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			log.Printf("close: %v", closeErr)
		}
		if cfg.MetricsFile != "" {
			if writeErr := prometheus.WriteToTextfile(cfg.MetricsFile, a.Registry); writeErr != nil {
				err = errors.Join(err, fmt.Errorf("write metrics: %w", writeErr))
			}
		}
	}()

	zone := uint16(cfg.Zone)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	switch cfg.Command {
	case CommandVerify:
		message, err := a.Client.VerifyConnection(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, message)
		return err
	case CommandDownload:
		ok, downloaded, err := a.Client.DownloadMarkers(ctx, zone)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("download zone %d failed", zone)
		}
		if downloaded == nil {
			downloaded = []marker.Marker{}
		}
		return enc.Encode(downloaded)
	case CommandUpload:
		ok, err := a.Client.UploadMarkers(ctx, zone, markers)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("upload zone %d failed", zone)
		}
		_, err = fmt.Fprintf(out, "uploaded %d markers to zone %d\n", len(markers), zone)
		return err
	case CommandStats:
		ok, stats, err := a.Client.FetchStatistics(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("fetch statistics failed")
		}
		return enc.Encode(stats)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

func readMarkers(path string) ([]marker.Marker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markers: %w", err)
	}
	var markers []marker.Marker
	if err := json.Unmarshal(data, &markers); err != nil {
		return nil, fmt.Errorf("decode markers %s: %w", path, err)
	}
	return markers, nil
}
