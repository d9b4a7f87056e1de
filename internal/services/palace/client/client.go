// Package client exposes the four sync operations over an authenticated
// palace session. Ordinary connectivity and auth problems come back as a
// false success flag; only cancellation and unexpected transport faults are
// returned as errors.
package client

import (
	"context"
	"fmt"
	"time"

	accountv1 "github.com/louisbranch/palacesync/api/account/v1"
	palacev1 "github.com/louisbranch/palacesync/api/palace/v1"
	apperrors "github.com/louisbranch/palacesync/internal/platform/errors"
	"github.com/louisbranch/palacesync/internal/platform/telemetry/metrics"
	"github.com/louisbranch/palacesync/internal/platform/timeouts"
	"github.com/louisbranch/palacesync/internal/services/palace/marker"
	"github.com/louisbranch/palacesync/internal/services/palace/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Status strings returned by VerifyConnection.
const (
	StatusConnected    = "Connection successful."
	StatusNotConnected = "Could not connect to server, please check your configuration."
)

// Operation names used for metrics and spans.
const (
	OperationVerify     = "verify"
	OperationDownload   = "download"
	OperationUpload     = "upload"
	OperationStatistics = "statistics"
)

const tracerName = "github.com/louisbranch/palacesync/internal/services/palace/client"

// Sessions hands out authenticated channels. session.Manager implements it.
type Sessions interface {
	Ensure(ctx context.Context) (session.Ready, error)
	Invalidate()
}

// Config configures a Client.
type Config struct {
	Sessions Sessions
	// Metrics is optional.
	Metrics *metrics.Recorder
	// VerifyTimeout defaults to timeouts.Verify.
	VerifyTimeout time.Duration
	// StatisticsTimeout defaults to timeouts.Statistics.
	StatisticsTimeout time.Duration
	Logf              func(string, ...any)
}

// Client runs sync operations. It is as safe for concurrent use as its
// Sessions.
type Client struct {
	cfg    Config
	tracer trace.Tracer
}

// New returns a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = timeouts.Verify
	}
	if cfg.StatisticsTimeout <= 0 {
		cfg.StatisticsTimeout = timeouts.Statistics
	}
	return &Client{cfg: cfg, tracer: otel.Tracer(tracerName)}, nil
}

// VerifyConnection authenticates and asks the identity service to accept
// the token. It returns StatusConnected or StatusNotConnected.
func (c *Client) VerifyConnection(ctx context.Context) (string, error) {
	ctx, span := c.tracer.Start(ctx, "palace.VerifyConnection")
	defer span.End()

	ready, ok, err := c.ready(ctx, span, OperationVerify)
	if !ok {
		return StatusNotConnected, err
	}

	callCtx, cancel := context.WithTimeout(ready.Context(ctx), c.cfg.VerifyTimeout)
	defer cancel()
	if _, err := accountv1.NewAccountServiceClient(ready.Conn).Verify(callCtx, &accountv1.VerifyRequest{}); err != nil {
		return StatusNotConnected, c.remoteFault(span, OperationVerify, err)
	}
	c.succeeded(span, OperationVerify)
	return StatusConnected, nil
}

// DownloadMarkers fetches the markers stored for a zone. Every returned
// marker is flagged Remote. No deadline applies beyond ctx.
func (c *Client) DownloadMarkers(ctx context.Context, zone uint16) (bool, []marker.Marker, error) {
	ctx, span := c.tracer.Start(ctx, "palace.DownloadMarkers", trace.WithAttributes(attribute.Int("palace.zone", int(zone))))
	defer span.End()

	ready, ok, err := c.ready(ctx, span, OperationDownload)
	if !ok {
		return false, nil, err
	}

	reply, err := palacev1.NewPalaceServiceClient(ready.Conn).DownloadFloors(ready.Context(ctx), &palacev1.DownloadFloorsRequest{
		TerritoryType: uint32(zone),
	})
	if err != nil {
		return false, nil, c.remoteFault(span, OperationDownload, err)
	}
	if !reply.GetSuccess() {
		c.rejected(span, OperationDownload)
		return false, nil, nil
	}

	markers := marker.FromWire(reply.GetObjects())
	span.SetAttributes(attribute.Int("palace.markers", len(markers)))
	c.succeeded(span, OperationDownload)
	return true, markers, nil
}

// UploadMarkers stores markers for a zone. An empty list succeeds without
// touching the network, whatever the mode.
func (c *Client) UploadMarkers(ctx context.Context, zone uint16, markers []marker.Marker) (bool, error) {
	if len(markers) == 0 {
		return true, nil
	}

	ctx, span := c.tracer.Start(ctx, "palace.UploadMarkers", trace.WithAttributes(
		attribute.Int("palace.zone", int(zone)),
		attribute.Int("palace.markers", len(markers)),
	))
	defer span.End()

	ready, ok, err := c.ready(ctx, span, OperationUpload)
	if !ok {
		return false, err
	}

	reply, err := palacev1.NewPalaceServiceClient(ready.Conn).UploadFloors(ready.Context(ctx), &palacev1.UploadFloorsRequest{
		TerritoryType: uint32(zone),
		Objects:       marker.ToWire(markers),
	})
	if err != nil {
		return false, c.remoteFault(span, OperationUpload, err)
	}
	if !reply.GetSuccess() {
		c.rejected(span, OperationUpload)
		return false, nil
	}
	c.succeeded(span, OperationUpload)
	return true, nil
}

// FetchStatistics returns the server's per-floor aggregates unmodified.
func (c *Client) FetchStatistics(ctx context.Context) (bool, []*palacev1.FloorStatistics, error) {
	ctx, span := c.tracer.Start(ctx, "palace.FetchStatistics")
	defer span.End()

	ready, ok, err := c.ready(ctx, span, OperationStatistics)
	if !ok {
		return false, nil, err
	}

	callCtx, cancel := context.WithTimeout(ready.Context(ctx), c.cfg.StatisticsTimeout)
	defer cancel()
	reply, err := palacev1.NewPalaceServiceClient(ready.Conn).FetchStatistics(callCtx, &palacev1.StatisticsRequest{})
	if err != nil {
		return false, nil, c.remoteFault(span, OperationStatistics, err)
	}
	if !reply.GetSuccess() {
		c.rejected(span, OperationStatistics)
		return false, nil, nil
	}
	c.succeeded(span, OperationStatistics)
	return true, reply.GetFloorStatistics(), nil
}

// ready obtains an authenticated channel. Session failures are recovered
// into ok=false; cancellation and undecodable server replies are returned.
func (c *Client) ready(ctx context.Context, span trace.Span, operation string) (session.Ready, bool, error) {
	ready, err := c.cfg.Sessions.Ensure(ctx)
	if err == nil {
		return ready, true, nil
	}

	code := apperrors.CodeOf(err)
	span.SetAttributes(attribute.String("palace.error_code", string(code)))
	switch code {
	case apperrors.CodeConfigurationDisabled:
		c.cfg.Metrics.Operation(operation, metrics.ResultOffline)
		return session.Ready{}, false, nil
	case apperrors.CodeCanceled:
		span.SetStatus(otelcodes.Error, "canceled")
		c.cfg.Metrics.Operation(operation, metrics.ResultCanceled)
		return session.Ready{}, false, err
	case apperrors.CodeRemoteCallFailed:
		span.SetStatus(otelcodes.Error, string(code))
		c.cfg.Metrics.Operation(operation, metrics.ResultFailure)
		return session.Ready{}, false, err
	default:
		span.SetStatus(otelcodes.Error, string(code))
		c.cfg.Metrics.Operation(operation, metrics.ResultFailure)
		c.logf("palace %s: not connected: %v", operation, err)
		return session.Ready{}, false, nil
	}
}

// remoteFault classifies a failed remote call. Network, deadline, and auth
// faults are expected and yield nil; an Unauthenticated status also drops
// the cached session so the next call logs in again.
func (c *Client) remoteFault(span trace.Span, operation string, err error) error {
	span.RecordError(err)
	if apperrors.IsCanceled(err) {
		span.SetStatus(otelcodes.Error, "canceled")
		c.cfg.Metrics.Operation(operation, metrics.ResultCanceled)
		return apperrors.Wrap(apperrors.CodeCanceled, "palace "+operation, err)
	}

	span.SetStatus(otelcodes.Error, err.Error())
	c.cfg.Metrics.Operation(operation, metrics.ResultFailure)
	switch status.Code(err) {
	case codes.Unauthenticated:
		c.cfg.Sessions.Invalidate()
		c.logf("palace %s: token rejected, session dropped", operation)
		return nil
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		c.logf("palace %s: %v", operation, err)
		return nil
	default:
		return apperrors.Wrap(apperrors.CodeRemoteCallFailed, "palace "+operation, err)
	}
}

func (c *Client) rejected(span trace.Span, operation string) {
	span.SetStatus(otelcodes.Error, "server reported failure")
	span.SetAttributes(attribute.String("palace.error_code", string(apperrors.CodeRemoteCallFailed)))
	c.cfg.Metrics.Operation(operation, metrics.ResultFailure)
	c.logf("palace %s: server reported failure", operation)
}

func (c *Client) succeeded(span trace.Span, operation string) {
	span.SetStatus(otelcodes.Ok, "")
	c.cfg.Metrics.Operation(operation, metrics.ResultSuccess)
}

func (c *Client) logf(format string, args ...any) {
	if c.cfg.Logf != nil {
		c.cfg.Logf(format, args...)
	}
}
