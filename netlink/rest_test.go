package netlink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func nopLogger() *zap.Logger { return zap.NewNop() }

func newTestREST(t *testing.T, handler http.Handler) *REST {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &REST{
		BaseURL:    server.URL,
		Token:      "test-token",
		HTTPClient: server.Client(),
		logger:     nopLogger(),
	}
}

func TestRESTSendsBearerToken(t *testing.T) {
	rest := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization header = %q", got)
		}
		if r.URL.Path != "/api/v1/device/info" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(SystemInfo{
			Version:    "2.1.0",
			APIVersion: "v1",
			DeviceID:   "nl-0042",
			DeviceName: "Office West",
			Model:      "NL-200",
		})
	}))

	info, err := rest.GetDeviceInfo(context.Background())
	if err != nil {
		t.Fatalf("GetDeviceInfo failed: %v", err)
	}
	if info.DeviceID != "nl-0042" {
		t.Errorf("device id = %q", info.DeviceID)
	}
}

func TestRESTStatusCodeMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		check   func(error) bool
		message string
	}{
		{"unauthorized", http.StatusUnauthorized, IsAuthenticationError, "check token"},
		{"method not allowed", http.StatusMethodNotAllowed, IsConnectionError, "HTTP method GET not allowed"},
		{"server error", http.StatusInternalServerError, IsConnectionError, "unexpected status code 500"},
		{"not found", http.StatusNotFound, IsConnectionError, "unexpected status code 404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			_, err := rest.GetDeskStatus(context.Background())
			if err == nil {
				t.Fatal("expected an error")
			}
			if !tt.check(err) {
				t.Errorf("wrong error category: %v", err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q missing %q", err.Error(), tt.message)
			}
		})
	}
}

func TestRESTTimeout(t *testing.T) {
	rest := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	rest.HTTPClient.Timeout = 20 * time.Millisecond

	_, err := rest.GetDeskStatus(context.Background())
	if !IsTimeoutError(err) {
		t.Fatalf("expected timeout error, got: %v", err)
	}
}

func TestSetDeskHeightValidation(t *testing.T) {
	var requests atomic.Int32
	rest := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))

	for _, height := range []float64{50, 150} {
		if err := rest.SetDeskHeight(context.Background(), height); !IsDataError(err) {
			t.Errorf("height %v: expected data error, got %v", height, err)
		}
	}
	if got := requests.Load(); got != 0 {
		t.Errorf("%d requests reached the device for invalid heights", got)
	}

	if err := rest.SetDeskHeight(context.Background(), 100); err != nil {
		t.Errorf("valid height rejected: %v", err)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("request count = %d, want 1", got)
	}
}

func TestSetDeskHeightBody(t *testing.T) {
	rest := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/desk/height" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var payload map[string]float64
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if payload["height"] != 110.5 {
			t.Errorf("height = %v, want 110.5", payload["height"])
		}
	}))

	if err := rest.SetDeskHeight(context.Background(), 110.5); err != nil {
		t.Fatalf("SetDeskHeight failed: %v", err)
	}
}

func TestGetMonitors(t *testing.T) {
	monitors := []MonitorInfo{
		{ID: 1, Bus: 4, Model: "U2723QE", Type: "dp"},
		{ID: 2, Bus: 5, Model: "U2723QE", Type: "hdmi"},
	}

	tests := []struct {
		name string
		body func() any
	}{
		{"bare array", func() any { return monitors }},
		{"wrapped object", func() any { return map[string]any{"monitors": monitors} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(tt.body())
			}))

			got, err := rest.GetMonitors(context.Background())
			if err != nil {
				t.Fatalf("GetMonitors failed: %v", err)
			}
			if len(got) != 2 || got[0].Bus != 4 || got[1].Bus != 5 {
				t.Errorf("unexpected monitors: %+v", got)
			}
		})
	}
}

func TestMonitorControls(t *testing.T) {
	var lastMethod, lastPath, lastBody string
	rest := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastMethod = r.Method
		lastPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		lastBody = string(body)
		_, _ = w.Write([]byte(`{"state": "on", "brightness": 70, "volume": 30, "source": "hdmi1"}`))
	}))
	ctx := context.Background()

	if err := rest.SetMonitorPower(ctx, 4, "standby"); err != nil {
		t.Fatalf("SetMonitorPower failed: %v", err)
	}
	if lastMethod != http.MethodPut || lastPath != "/api/v1/monitor/4/power" {
		t.Errorf("%s %s", lastMethod, lastPath)
	}
	if !strings.Contains(lastBody, `"standby"`) {
		t.Errorf("body = %s", lastBody)
	}

	if err := rest.SetMonitorBrightness(ctx, 4, 101); !IsDataError(err) {
		t.Errorf("brightness 101: expected data error, got %v", err)
	}
	if err := rest.SetMonitorVolume(ctx, 4, -1); !IsDataError(err) {
		t.Errorf("volume -1: expected data error, got %v", err)
	}

	power, err := rest.GetMonitorPower(ctx, 4)
	if err != nil || power != "on" {
		t.Errorf("GetMonitorPower = %q, %v", power, err)
	}
	brightness, err := rest.GetMonitorBrightness(ctx, 4)
	if err != nil || brightness != 70 {
		t.Errorf("GetMonitorBrightness = %d, %v", brightness, err)
	}
}

func TestPatchMonitor(t *testing.T) {
	rest := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/v1/monitor/4" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var patch map[string]any
		if err := json.Unmarshal(body, &patch); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if patch["power"] != "on" || patch["brightness"] != float64(80) {
			t.Errorf("patch = %v", patch)
		}
		if _, present := patch["volume"]; present {
			t.Error("nil field was serialized")
		}
	}))

	power := "on"
	brightness := 80
	err := rest.PatchMonitor(context.Background(), 4, MonitorPatch{Power: &power, Brightness: &brightness})
	if err != nil {
		t.Fatalf("PatchMonitor failed: %v", err)
	}
}

func TestBrowserEndpoints(t *testing.T) {
	var lastMethod, lastPath string
	rest := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastMethod = r.Method
		lastPath = r.URL.Path
		_, _ = w.Write([]byte(`{"url": "https://dashboard.example.com"}`))
	}))
	ctx := context.Background()

	url, err := rest.GetBrowserURL(ctx)
	if err != nil || url != "https://dashboard.example.com" {
		t.Errorf("GetBrowserURL = %q, %v", url, err)
	}

	if err := rest.SetBrowserURL(ctx, "https://status.example.com"); err != nil {
		t.Fatalf("SetBrowserURL failed: %v", err)
	}
	if lastMethod != http.MethodPost || lastPath != "/api/v1/browser/url" {
		t.Errorf("%s %s", lastMethod, lastPath)
	}

	if err := rest.RefreshBrowser(ctx); err != nil {
		t.Fatalf("RefreshBrowser failed: %v", err)
	}
	if lastPath != "/api/v1/browser/refresh" {
		t.Errorf("path = %s", lastPath)
	}
}

func TestBeepDeskValidation(t *testing.T) {
	var requests atomic.Int32
	rest := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))

	if err := rest.BeepDesk(context.Background(), 0); !IsDataError(err) {
		t.Errorf("count 0: expected data error, got %v", err)
	}
	if err := rest.BeepDesk(context.Background(), 6); !IsDataError(err) {
		t.Errorf("count 6: expected data error, got %v", err)
	}
	if got := requests.Load(); got != 0 {
		t.Errorf("%d requests reached the device for invalid counts", got)
	}
	if err := rest.BeepDesk(context.Background(), 2); err != nil {
		t.Errorf("valid count rejected: %v", err)
	}
}
