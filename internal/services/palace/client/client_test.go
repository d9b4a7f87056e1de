package client

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	accountv1 "github.com/louisbranch/palacesync/api/account/v1"
	palacev1 "github.com/louisbranch/palacesync/api/palace/v1"
	apperrors "github.com/louisbranch/palacesync/internal/platform/errors"
	"github.com/louisbranch/palacesync/internal/platform/telemetry/metrics"
	"github.com/louisbranch/palacesync/internal/services/palace/channel"
	"github.com/louisbranch/palacesync/internal/services/palace/marker"
	"github.com/louisbranch/palacesync/internal/services/palace/palacetest"
	"github.com/louisbranch/palacesync/internal/services/palace/session"
	"github.com/louisbranch/palacesync/internal/services/shared/grpcauthctx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc/codes"
)

type stack struct {
	server   *palacetest.Server
	store    *palacetest.Store
	sessions *session.Manager
	client   *Client
	registry *prometheus.Registry
}

type stackOptions struct {
	mode              session.Mode
	endpoint          string
	statisticsTimeout time.Duration
}

func newStack(t *testing.T, opts stackOptions) *stack {
	t.Helper()

	server := palacetest.Start(t)
	endpoint := opts.endpoint
	if endpoint == "" {
		endpoint = server.Addr
	}
	mode := opts.mode
	if mode == "" {
		mode = session.ModeOnline
	}

	channels, err := channel.New(channel.Config{
		Endpoint:       endpoint,
		Identity:       grpcauthctx.ClientIdentity{Product: "palacesync-test", Version: "2.7.1"},
		ConnectTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new channel manager: %v", err)
	}
	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	store := palacetest.NewStore()
	sessions, err := session.New(session.Config{
		Endpoint: endpoint,
		Mode:     session.StaticMode(mode),
		Store:    store,
		Channels: channels,
		Metrics:  recorder,
		Logf:     t.Logf,
	})
	if err != nil {
		t.Fatalf("new session manager: %v", err)
	}
	t.Cleanup(func() { _ = sessions.Close() })

	c, err := New(Config{
		Sessions:          sessions,
		Metrics:           recorder,
		StatisticsTimeout: opts.statisticsTimeout,
		Logf:              t.Logf,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return &stack{server: server, store: store, sessions: sessions, client: c, registry: registry}
}

func (s *stack) operations(t *testing.T, operation, result string) float64 {
	t.Helper()
	families, err := s.registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "palace_sync_operations_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range m.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["operation"] == operation && labels["result"] == result {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestNewRequiresSessions(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing sessions")
	}
}

func TestVerifyConnectionFreshClient(t *testing.T) {
	s := newStack(t, stackOptions{})

	got, err := s.client.VerifyConnection(context.Background())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != StatusConnected {
		t.Fatalf("expected %q, got %q", StatusConnected, got)
	}

	calls := s.server.Calls()
	wantMethods := []string{
		accountv1.AccountService_CreateAccount_FullMethod,
		accountv1.AccountService_Login_FullMethod,
		accountv1.AccountService_Verify_FullMethod,
	}
	if len(calls) != len(wantMethods) {
		t.Fatalf("expected %d calls, got %+v", len(wantMethods), calls)
	}
	for i, want := range wantMethods {
		if calls[i].Method != want {
			t.Fatalf("call %d: expected %s, got %s", i, want, calls[i].Method)
		}
	}

	verify := calls[2]
	ready, ok := s.sessions.Session()
	if !ok {
		t.Fatal("expected cached session")
	}
	if verify.Authorization != "Bearer "+ready.Token {
		t.Fatalf("expected bearer header, got %q", verify.Authorization)
	}
	if !strings.HasPrefix(verify.UserAgent, "palacesync-test/2.7") {
		t.Fatalf("expected user agent prefix palacesync-test/2.7, got %q", verify.UserAgent)
	}
	if _, ok := s.store.Durable(s.server.Addr); !ok {
		t.Fatal("expected account id to be persisted")
	}
	if got := s.operations(t, OperationVerify, metrics.ResultSuccess); got != 1 {
		t.Fatalf("expected 1 successful verify, got %v", got)
	}
}

func TestMalformedLoginReplySurfaces(t *testing.T) {
	s := newStack(t, stackOptions{})
	s.server.SetBehavior(palacetest.Behavior{MalformedLogin: true})

	got, err := s.client.VerifyConnection(context.Background())
	if !apperrors.HasCode(err, apperrors.CodeRemoteCallFailed) {
		t.Fatalf("expected %s, got %v", apperrors.CodeRemoteCallFailed, err)
	}
	if got != StatusNotConnected {
		t.Fatalf("expected %q, got %q", StatusNotConnected, got)
	}
	if got := s.server.CallCount(accountv1.AccountService_Verify_FullMethod); got != 0 {
		t.Fatalf("expected no verify call without a session, got %d", got)
	}
}

func TestVerifyConnectionUnreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	s := newStack(t, stackOptions{endpoint: addr})
	got, err := s.client.VerifyConnection(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != StatusNotConnected {
		t.Fatalf("expected %q, got %q", StatusNotConnected, got)
	}
}

func TestUploadThenDownloadRoundTrip(t *testing.T) {
	s := newStack(t, stackOptions{})
	markers := []marker.Marker{
		{Type: marker.TypeTrap, Position: marker.Position{X: 12.5, Y: -0.75, Z: 301.0625}},
		{Type: marker.TypeHoard, Position: marker.Position{X: -88.125, Y: 3, Z: 0}},
	}

	ok, err := s.client.UploadMarkers(context.Background(), 561, markers)
	if err != nil || !ok {
		t.Fatalf("upload: ok=%v err=%v", ok, err)
	}

	ok, got, err := s.client.DownloadMarkers(context.Background(), 561)
	if err != nil || !ok {
		t.Fatalf("download: ok=%v err=%v", ok, err)
	}
	if len(got) != len(markers) {
		t.Fatalf("expected %d markers, got %d", len(markers), len(got))
	}
	for i := range markers {
		if got[i].Type != markers[i].Type || got[i].Position != markers[i].Position {
			t.Fatalf("marker %d: expected %+v, got %+v", i, markers[i], got[i])
		}
		if !got[i].Remote {
			t.Fatalf("marker %d: expected remote flag", i)
		}
	}

	ok, other, err := s.client.DownloadMarkers(context.Background(), 562)
	if err != nil || !ok || len(other) != 0 {
		t.Fatalf("expected empty zone 562, got ok=%v markers=%v err=%v", ok, other, err)
	}
}

func TestAuthenticatedCallsReuseSession(t *testing.T) {
	s := newStack(t, stackOptions{})
	if _, err := s.client.VerifyConnection(context.Background()); err != nil {
		t.Fatalf("verify: %v", err)
	}
	s.server.ResetCalls()

	if ok, _, err := s.client.DownloadMarkers(context.Background(), 1); err != nil || !ok {
		t.Fatalf("download: ok=%v err=%v", ok, err)
	}
	calls := s.server.Calls()
	if len(calls) != 1 || calls[0].Method != palacev1.PalaceService_DownloadFloors_FullMethod {
		t.Fatalf("expected a single download call, got %+v", calls)
	}
	if !strings.HasPrefix(calls[0].Authorization, "Bearer ") {
		t.Fatalf("expected bearer header, got %q", calls[0].Authorization)
	}
}

func TestUploadEmptyMakesNoCall(t *testing.T) {
	for _, mode := range []session.Mode{session.ModeOnline, session.ModeLocal} {
		t.Run(string(mode), func(t *testing.T) {
			s := newStack(t, stackOptions{mode: mode})
			ok, err := s.client.UploadMarkers(context.Background(), 7, nil)
			if err != nil || !ok {
				t.Fatalf("expected trivial success, got ok=%v err=%v", ok, err)
			}
			if calls := s.server.Calls(); len(calls) != 0 {
				t.Fatalf("expected no remote calls, got %+v", calls)
			}
		})
	}
}

func TestOfflineModeFailsFast(t *testing.T) {
	s := newStack(t, stackOptions{mode: session.ModeLocal})
	ctx := context.Background()

	if got, err := s.client.VerifyConnection(ctx); err != nil || got != StatusNotConnected {
		t.Fatalf("verify: got %q err=%v", got, err)
	}
	if ok, markers, err := s.client.DownloadMarkers(ctx, 1); err != nil || ok || markers != nil {
		t.Fatalf("download: ok=%v markers=%v err=%v", ok, markers, err)
	}
	if ok, err := s.client.UploadMarkers(ctx, 1, []marker.Marker{{Type: marker.TypeTrap}}); err != nil || ok {
		t.Fatalf("upload: ok=%v err=%v", ok, err)
	}
	if ok, stats, err := s.client.FetchStatistics(ctx); err != nil || ok || stats != nil {
		t.Fatalf("statistics: ok=%v stats=%v err=%v", ok, stats, err)
	}
	if calls := s.server.Calls(); len(calls) != 0 {
		t.Fatalf("expected no remote calls, got %+v", calls)
	}
	if got := s.operations(t, OperationDownload, metrics.ResultOffline); got != 1 {
		t.Fatalf("expected 1 offline download, got %v", got)
	}
}

func TestFetchStatisticsPassesThrough(t *testing.T) {
	s := newStack(t, stackOptions{})
	want := []*palacev1.FloorStatistics{
		{TerritoryType: 561, TrapCount: 12, HoardCount: 3},
		{TerritoryType: 770, TrapCount: 0, HoardCount: 9},
	}
	s.server.SetStatistics(want)

	ok, got, err := s.client.FetchStatistics(context.Background())
	if err != nil || !ok {
		t.Fatalf("statistics: ok=%v err=%v", ok, err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if *got[i] != *want[i] {
			t.Fatalf("record %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestFetchStatisticsDeadline(t *testing.T) {
	s := newStack(t, stackOptions{statisticsTimeout: 100 * time.Millisecond})
	if _, err := s.client.VerifyConnection(context.Background()); err != nil {
		t.Fatalf("verify: %v", err)
	}
	s.server.SetBehavior(palacetest.Behavior{CallDelay: 2 * time.Second})

	ok, _, err := s.client.FetchStatistics(context.Background())
	if err != nil || ok {
		t.Fatalf("expected quiet failure on deadline, got ok=%v err=%v", ok, err)
	}
}

func TestServerReportedFailure(t *testing.T) {
	s := newStack(t, stackOptions{})
	if _, err := s.client.VerifyConnection(context.Background()); err != nil {
		t.Fatalf("verify: %v", err)
	}
	s.server.SetBehavior(palacetest.Behavior{RemoteFails: true})
	ctx := context.Background()

	if ok, markers, err := s.client.DownloadMarkers(ctx, 1); err != nil || ok || markers != nil {
		t.Fatalf("download: ok=%v markers=%v err=%v", ok, markers, err)
	}
	if ok, err := s.client.UploadMarkers(ctx, 1, []marker.Marker{{Type: marker.TypeHoard}}); err != nil || ok {
		t.Fatalf("upload: ok=%v err=%v", ok, err)
	}
	if ok, stats, err := s.client.FetchStatistics(ctx); err != nil || ok || stats != nil {
		t.Fatalf("statistics: ok=%v stats=%v err=%v", ok, stats, err)
	}
	if got := s.operations(t, OperationUpload, metrics.ResultFailure); got != 1 {
		t.Fatalf("expected 1 failed upload, got %v", got)
	}
}

func TestRemoteFaultClassification(t *testing.T) {
	tests := []struct {
		name    string
		code    codes.Code
		wantErr bool
	}{
		{name: "unavailable", code: codes.Unavailable},
		{name: "resource exhausted", code: codes.ResourceExhausted},
		{name: "aborted", code: codes.Aborted},
		{name: "internal", code: codes.Internal, wantErr: true},
		{name: "invalid argument", code: codes.InvalidArgument, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStack(t, stackOptions{})
			if _, err := s.client.VerifyConnection(context.Background()); err != nil {
				t.Fatalf("verify: %v", err)
			}
			s.server.SetBehavior(palacetest.Behavior{RemoteStatus: tt.code})

			ok, _, err := s.client.DownloadMarkers(context.Background(), 1)
			if ok {
				t.Fatal("expected failure")
			}
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeRemoteCallFailed) {
					t.Fatalf("expected %s, got %v", apperrors.CodeRemoteCallFailed, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected quiet failure, got %v", err)
			}
		})
	}
}

func TestRejectedTokenDropsSession(t *testing.T) {
	s := newStack(t, stackOptions{})
	if _, err := s.client.VerifyConnection(context.Background()); err != nil {
		t.Fatalf("verify: %v", err)
	}
	oldID, _ := s.store.Durable(s.server.Addr)
	s.server.ForgetAccounts()

	ok, _, err := s.client.DownloadMarkers(context.Background(), 1)
	if err != nil || ok {
		t.Fatalf("expected quiet failure, got ok=%v err=%v", ok, err)
	}
	if _, cached := s.sessions.Session(); cached {
		t.Fatal("expected rejected session to be dropped")
	}

	ok, _, err = s.client.DownloadMarkers(context.Background(), 1)
	if err != nil || !ok {
		t.Fatalf("expected recovery with a new account, got ok=%v err=%v", ok, err)
	}
	newID, _ := s.store.Durable(s.server.Addr)
	if newID == "" || newID == oldID {
		t.Fatalf("expected a re-provisioned account, got %q (old %q)", newID, oldID)
	}
}

func TestCancellationSurfaces(t *testing.T) {
	s := newStack(t, stackOptions{})
	if _, err := s.client.VerifyConnection(context.Background()); err != nil {
		t.Fatalf("verify: %v", err)
	}
	s.server.SetBehavior(palacetest.Behavior{CallDelay: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	ok, err := s.client.UploadMarkers(ctx, 1, []marker.Marker{{Type: marker.TypeTrap}})
	if ok {
		t.Fatal("expected failure")
	}
	if !apperrors.HasCode(err, apperrors.CodeCanceled) {
		t.Fatalf("expected %s, got %v", apperrors.CodeCanceled, err)
	}
	if !errors.Is(err, context.Canceled) && !apperrors.IsCanceled(err) {
		t.Fatalf("expected cancellation in chain, got %v", err)
	}
}

func TestCanceledBeforeSession(t *testing.T) {
	s := newStack(t, stackOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, _, err := s.client.FetchStatistics(ctx)
	if ok || !apperrors.HasCode(err, apperrors.CodeCanceled) {
		t.Fatalf("expected canceled failure, got ok=%v err=%v", ok, err)
	}
	count, err := testutil.GatherAndCount(s.registry, "palace_sync_operations_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 operation series, got %d", count)
	}
	if got := s.operations(t, OperationStatistics, metrics.ResultCanceled); got != 1 {
		t.Fatalf("expected 1 canceled statistics call, got %v", got)
	}
}
