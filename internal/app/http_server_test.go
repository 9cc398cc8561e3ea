package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/version"
)

func TestStartMetricsServer_ServesOperationalEndpoints(t *testing.T) {
	logger := log.WithField("test", "http")
	port := findFreePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.Register("storage", healthcheck.CheckerFunc(func() error { return nil }))

	srv := startMetricsServer(ctx, fmt.Sprintf(":%d", port), logger, healthHandler)
	if srv == nil {
		t.Fatal("startMetricsServer should not return nil")
	}
	time.Sleep(100 * time.Millisecond)

	endpoints := map[string]string{
		"/metrics": "",
		"/healthz": "",
		"/livez":   "ok",
		"/readyz":  "ready",
	}
	for path, wantBody := range endpoints {
		url := fmt.Sprintf("http://localhost:%d%s", port, path)
		resp, err := http.Get(url)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s returned status %d, expected 200", path, resp.StatusCode)
		}
		if len(body) == 0 {
			t.Errorf("%s returned empty body", path)
		}
		if wantBody != "" && string(body) != wantBody {
			t.Errorf("%s returned body %q, expected %q", path, body, wantBody)
		}
	}
}

func TestStartMetricsServer_StopsOnContextCancel(t *testing.T) {
	logger := log.WithField("test", "http-shutdown")
	port := findFreePort(t)

	ctx, cancel := context.WithCancel(context.Background())

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	startMetricsServer(ctx, fmt.Sprintf(":%d", port), logger, healthHandler)
	time.Sleep(100 * time.Millisecond)

	url := fmt.Sprintf("http://localhost:%d/livez", port)
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("server should be running: %v", err)
	}
	resp.Body.Close()

	cancel()
	time.Sleep(200 * time.Millisecond)

	if _, err = http.Get(url); err == nil {
		t.Error("server should be stopped after context cancellation")
	}
}

func TestShutdownHTTP_NilServer(_ *testing.T) {
	// Не должно паниковать
	shutdownHTTP(nil, log.WithField("test", "http-nil"))
}

// findFreePort находит свободный порт для тестов
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}
