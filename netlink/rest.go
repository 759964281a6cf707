package netlink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPort is the default HTTP port for Netlink devices
	DefaultPort = 80

	// DefaultRequestTimeout is the default timeout for a single HTTP request
	DefaultRequestTimeout = 10 * time.Second

	apiBasePath = "/api/v1/"
)

// REST is the request/response HTTP client for a Netlink device. It can be
// used standalone when no live event feed is needed.
type REST struct {
	// BaseURL is the device base URL (e.g. "http://192.168.1.100:80")
	BaseURL string

	// Token is the bearer token sent with every request
	Token string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	logger *zap.Logger
}

// RESTOption configures a REST client
type RESTOption func(*REST)

// WithRESTTimeout sets the per-request timeout
func WithRESTTimeout(timeout time.Duration) RESTOption {
	return func(r *REST) {
		r.HTTPClient.Timeout = timeout
	}
}

// WithRESTHTTPClient replaces the underlying HTTP client
func WithRESTHTTPClient(client *http.Client) RESTOption {
	return func(r *REST) {
		if client != nil {
			r.HTTPClient = client
		}
	}
}

// WithRESTLogger sets the logger used for request tracing
func WithRESTLogger(logger *zap.Logger) RESTOption {
	return func(r *REST) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewREST creates a REST client for a device reachable at host:port
func NewREST(host string, port int, token string, opts ...RESTOption) *REST {
	if port == 0 {
		port = DefaultPort
	}
	rest := &REST{
		BaseURL:    fmt.Sprintf("http://%s:%d", host, port),
		Token:      token,
		HTTPClient: &http.Client{Timeout: DefaultRequestTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(rest)
	}
	return rest
}

// request performs a single API call and returns the raw response body.
// Status codes map onto the error taxonomy: 401 is an authentication error,
// timeouts are timeout errors, everything else non-2xx is a connection error.
func (r *REST) request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, newDataError("failed to encode request body", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := r.BaseURL + apiBasePath + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, newConnectionError("failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r.logger.Debug("REST request", zap.String("method", method), zap.String("url", url))

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyConnectError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newConnectionError("failed to read response body", err)
	}

	r.logger.Debug("REST response",
		zap.String("url", url),
		zap.Int("status_code", resp.StatusCode),
		zap.Int("length", len(data)),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &Error{
			Type:       ErrTypeAuthentication,
			Message:    "authentication failed (check token)",
			StatusCode: resp.StatusCode,
		}
	case resp.StatusCode == http.StatusMethodNotAllowed:
		return nil, &Error{
			Type:       ErrTypeConnection,
			Message:    fmt.Sprintf("HTTP method %s not allowed for %s", method, path),
			StatusCode: resp.StatusCode,
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &Error{
			Type:       ErrTypeConnection,
			Message:    fmt.Sprintf("unexpected status code %d from %s", resp.StatusCode, path),
			StatusCode: resp.StatusCode,
		}
	}

	return data, nil
}

func (r *REST) getJSON(ctx context.Context, path string, out any) error {
	data, err := r.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return newDataError(fmt.Sprintf("failed to decode response from %s", path), err)
	}
	return nil
}

// GetDeviceInfo retrieves device information
func (r *REST) GetDeviceInfo(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := r.getJSON(ctx, "device/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetDeskStatus retrieves the current desk status
func (r *REST) GetDeskStatus(ctx context.Context) (*DeskStatus, error) {
	var status DeskStatus
	if err := r.getJSON(ctx, "desk/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SetDeskHeight moves the desk to the given height in cm. The height is
// validated against the actuator range before anything is sent.
func (r *REST) SetDeskHeight(ctx context.Context, height float64) error {
	if err := validateDeskHeight(height); err != nil {
		return err
	}
	_, err := r.request(ctx, http.MethodPost, "desk/height", map[string]any{"height": height})
	return err
}

// StopDesk halts desk movement immediately
func (r *REST) StopDesk(ctx context.Context) error {
	_, err := r.request(ctx, http.MethodPost, "desk/stop", nil)
	return err
}

// ResetDesk resets the desk controller
func (r *REST) ResetDesk(ctx context.Context) error {
	_, err := r.request(ctx, http.MethodPost, "desk/reset", nil)
	return err
}

// CalibrateDesk starts the desk calibration routine
func (r *REST) CalibrateDesk(ctx context.Context) error {
	_, err := r.request(ctx, http.MethodPost, "desk/calibrate", nil)
	return err
}

// BeepDesk makes the desk controller beep count times (1-5)
func (r *REST) BeepDesk(ctx context.Context, count int) error {
	if err := validateBeepCount(count); err != nil {
		return err
	}
	_, err := r.request(ctx, http.MethodPost, "desk/beep", map[string]any{"count": count})
	return err
}

// GetMonitors lists the monitors attached to the device. The device returns
// either a bare array or an object wrapping it under a "monitors" key.
func (r *REST) GetMonitors(ctx context.Context) ([]MonitorInfo, error) {
	data, err := r.request(ctx, http.MethodGet, "monitors", nil)
	if err != nil {
		return nil, err
	}

	var monitors []MonitorInfo
	if err := json.Unmarshal(data, &monitors); err == nil {
		return monitors, nil
	}

	var wrapped struct {
		Monitors []MonitorInfo `json:"monitors"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, newDataError("failed to decode monitor list", err)
	}
	return wrapped.Monitors, nil
}

// GetMonitorStatus retrieves the full state of the monitor on the given bus
func (r *REST) GetMonitorStatus(ctx context.Context, busID int) (*MonitorState, error) {
	var state MonitorState
	if err := r.getJSON(ctx, fmt.Sprintf("monitor/%d/status", busID), &state); err != nil {
		return nil, err
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetMonitorPower returns the monitor power state ("on"/"off"/"standby")
func (r *REST) GetMonitorPower(ctx context.Context, busID int) (string, error) {
	var resp struct {
		State string `json:"state"`
	}
	if err := r.getJSON(ctx, fmt.Sprintf("monitor/%d/power", busID), &resp); err != nil {
		return "", err
	}
	return resp.State, nil
}

// SetMonitorPower sets the monitor power state
func (r *REST) SetMonitorPower(ctx context.Context, busID int, state string) error {
	_, err := r.request(ctx, http.MethodPut,
		fmt.Sprintf("monitor/%d/power", busID), map[string]any{"state": state})
	return err
}

// GetMonitorBrightness returns the monitor brightness (0-100)
func (r *REST) GetMonitorBrightness(ctx context.Context, busID int) (int, error) {
	var resp struct {
		Brightness int `json:"brightness"`
	}
	if err := r.getJSON(ctx, fmt.Sprintf("monitor/%d/brightness", busID), &resp); err != nil {
		return 0, err
	}
	return resp.Brightness, nil
}

// SetMonitorBrightness sets the monitor brightness (0-100)
func (r *REST) SetMonitorBrightness(ctx context.Context, busID, brightness int) error {
	if err := validatePercent("brightness", brightness); err != nil {
		return err
	}
	_, err := r.request(ctx, http.MethodPut,
		fmt.Sprintf("monitor/%d/brightness", busID), map[string]any{"brightness": brightness})
	return err
}

// GetMonitorVolume returns the monitor volume (0-100)
func (r *REST) GetMonitorVolume(ctx context.Context, busID int) (int, error) {
	var resp struct {
		Volume int `json:"volume"`
	}
	if err := r.getJSON(ctx, fmt.Sprintf("monitor/%d/volume", busID), &resp); err != nil {
		return 0, err
	}
	return resp.Volume, nil
}

// SetMonitorVolume sets the monitor volume (0-100)
func (r *REST) SetMonitorVolume(ctx context.Context, busID, volume int) error {
	if err := validatePercent("volume", volume); err != nil {
		return err
	}
	_, err := r.request(ctx, http.MethodPut,
		fmt.Sprintf("monitor/%d/volume", busID), map[string]any{"volume": volume})
	return err
}

// GetMonitorSource returns the active input source
func (r *REST) GetMonitorSource(ctx context.Context, busID int) (string, error) {
	var resp struct {
		Source string `json:"source"`
	}
	if err := r.getJSON(ctx, fmt.Sprintf("monitor/%d/source", busID), &resp); err != nil {
		return "", err
	}
	return resp.Source, nil
}

// SetMonitorSource switches the monitor input source
func (r *REST) SetMonitorSource(ctx context.Context, busID int, source string) error {
	_, err := r.request(ctx, http.MethodPut,
		fmt.Sprintf("monitor/%d/source", busID), map[string]any{"source": source})
	return err
}

// MonitorPatch describes a partial monitor update. Nil fields are omitted.
type MonitorPatch struct {
	Power      *string `json:"power,omitempty"`
	Brightness *int    `json:"brightness,omitempty"`
	Volume     *int    `json:"volume,omitempty"`
	Source     *string `json:"source,omitempty"`
}

// PatchMonitor applies a partial update to the monitor on the given bus
func (r *REST) PatchMonitor(ctx context.Context, busID int, patch MonitorPatch) error {
	if patch.Brightness != nil {
		if err := validatePercent("brightness", *patch.Brightness); err != nil {
			return err
		}
	}
	if patch.Volume != nil {
		if err := validatePercent("volume", *patch.Volume); err != nil {
			return err
		}
	}
	_, err := r.request(ctx, http.MethodPatch, fmt.Sprintf("monitor/%d", busID), patch)
	return err
}

// GetBrowserStatus retrieves the kiosk browser state
func (r *REST) GetBrowserStatus(ctx context.Context) (*BrowserState, error) {
	var state BrowserState
	if err := r.getJSON(ctx, "browser/status", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetBrowserURL returns the URL the kiosk browser is showing
func (r *REST) GetBrowserURL(ctx context.Context) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := r.getJSON(ctx, "browser/url", &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// SetBrowserURL navigates the kiosk browser to the given URL
func (r *REST) SetBrowserURL(ctx context.Context, url string) error {
	_, err := r.request(ctx, http.MethodPost, "browser/url", map[string]any{"url": url})
	return err
}

// RefreshBrowser reloads the current kiosk browser page
func (r *REST) RefreshBrowser(ctx context.Context) error {
	_, err := r.request(ctx, http.MethodPost, "browser/refresh", nil)
	return err
}
