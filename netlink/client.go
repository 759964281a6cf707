package netlink

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Transport selects how a control operation reaches the device
type Transport int

const (
	// TransportAuto uses the event socket when connected, REST otherwise
	TransportAuto Transport = iota
	// TransportREST forces the HTTP API
	TransportREST
	// TransportWebSocket forces the event socket and fails when it is down
	TransportWebSocket
)

// Command names accepted by the device's command channel
const (
	cmdDeskHeight        = "command.desk.height"
	cmdDeskStop          = "command.desk.stop"
	cmdDeskReset         = "command.desk.reset"
	cmdDeskCalibrate     = "command.desk.calibrate"
	cmdDisplayPower      = "command.display.power"
	cmdDisplayBrightness = "command.display.brightness"
	cmdDisplayVolume     = "command.display.volume"
	cmdDisplaySource     = "command.display.source"
	cmdBrowserURL        = "command.browser.url"
	cmdBrowserRefresh    = "command.browser.refresh"
)

// Push event names emitted by the device
const (
	EventDeskState    = "desk.state"
	EventMonitorState = "monitor.state"
	EventDeviceInfo   = "device.info"
)

// Synthetic connection lifecycle events. Callbacks registered for these
// fire when the event socket comes up or drops; they carry no payload.
const (
	EventConnected    = eventConnect
	EventDisconnected = eventDisconnect
)

// Client is the unified handle for one Netlink device: REST for
// request/response calls, the event socket for commands and live state.
//
// Control operations take an optional transport selector; with
// TransportAuto (the default) a command goes over the event socket when it
// is connected and falls back to REST otherwise. Auto selection does not
// serialize against concurrent REST calls, so the relative ordering of a
// socket command and a racing REST call is undefined.
type Client struct {
	rest   *REST
	socket *Socket
	logger *zap.Logger

	stateMu    sync.RWMutex
	deskState  *DeskState
	monitors   map[BusID]*MonitorState
	deviceInfo *SystemInfo
}

type clientConfig struct {
	port           int
	requestTimeout time.Duration
	commandTimeout time.Duration
	connectTimeout time.Duration
	autoReconnect  bool
	initialDelay   time.Duration
	maxDelay       time.Duration
	wsPath         string
	logger         *zap.Logger
	httpClient     *http.Client
}

// ClientOption configures a Client
type ClientOption func(*clientConfig)

// WithPort sets the device port (default 80)
func WithPort(port int) ClientOption {
	return func(c *clientConfig) {
		if port > 0 {
			c.port = port
		}
	}
}

// WithRequestTimeout sets the per-request HTTP timeout
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		if timeout > 0 {
			c.requestTimeout = timeout
		}
	}
}

// WithCommandTimeout sets the acknowledgement wait for socket commands
func WithCommandTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		if timeout > 0 {
			c.commandTimeout = timeout
		}
	}
}

// WithConnectTimeout bounds a single socket connection attempt
func WithConnectTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		if timeout > 0 {
			c.connectTimeout = timeout
		}
	}
}

// WithAutoReconnectEnabled enables or disables automatic reconnection
// (enabled by default)
func WithAutoReconnectEnabled(enabled bool) ClientOption {
	return func(c *clientConfig) {
		c.autoReconnect = enabled
	}
}

// WithReconnectDelays sets the initial backoff delay and its ceiling
func WithReconnectDelays(initial, max time.Duration) ClientOption {
	return func(c *clientConfig) {
		if initial > 0 {
			c.initialDelay = initial
		}
		if max > 0 {
			c.maxDelay = max
		}
	}
}

// WithClientWSPath sets the event socket path
func WithClientWSPath(path string) ClientOption {
	return func(c *clientConfig) {
		if path != "" {
			c.wsPath = path
		}
	}
}

// WithLogger sets the logger shared by both transports
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the HTTP client used for REST calls
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient creates a client for a device reachable at host. No connection
// is made until Connect; REST calls work without one.
func NewClient(host, token string, opts ...ClientOption) *Client {
	cfg := clientConfig{
		port:           DefaultPort,
		requestTimeout: DefaultRequestTimeout,
		commandTimeout: DefaultCommandTimeout,
		connectTimeout: DefaultConnectTimeout,
		autoReconnect:  true,
		initialDelay:   DefaultReconnectDelay,
		maxDelay:       DefaultMaxReconnectDelay,
		wsPath:         DefaultWSPath,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	restOpts := []RESTOption{
		WithRESTTimeout(cfg.requestTimeout),
		WithRESTLogger(cfg.logger),
	}
	if cfg.httpClient != nil {
		restOpts = append(restOpts, WithRESTHTTPClient(cfg.httpClient))
	}

	c := &Client{
		rest: NewREST(host, cfg.port, token, restOpts...),
		socket: NewSocket(host, token,
			WithSocketPort(cfg.port),
			WithWSPath(cfg.wsPath),
			WithSocketLogger(cfg.logger),
			WithAutoReconnect(cfg.autoReconnect),
			WithReconnectDelay(cfg.initialDelay, cfg.maxDelay),
			WithSocketConnectTimeout(cfg.connectTimeout),
			WithSocketCommandTimeout(cfg.commandTimeout),
		),
		logger:   cfg.logger,
		monitors: make(map[BusID]*MonitorState),
	}
	c.installCacheCallbacks()
	return c
}

// FromDevice creates a client for a discovered device, carrying over its
// port and advertised socket path.
func FromDevice(device *Device, token string, opts ...ClientOption) *Client {
	base := []ClientOption{WithPort(device.Port)}
	if device.WSPath != "" {
		base = append(base, WithClientWSPath(device.WSPath))
	}
	return NewClient(device.Host, token, append(base, opts...)...)
}

// Connect establishes the event connection
func (c *Client) Connect(ctx context.Context) error {
	return c.socket.Connect(ctx)
}

// Disconnect closes the event connection. REST calls keep working.
func (c *Client) Disconnect() error {
	return c.socket.Disconnect()
}

// Connected reports whether the event connection is up
func (c *Client) Connected() bool {
	return c.socket.Connected()
}

// On registers a callback for a push event. See Socket.On.
func (c *Client) On(event string, cb EventCallback) EventCallback {
	return c.socket.On(event, cb)
}

// REST exposes the underlying HTTP client for endpoints without a facade
// method.
func (c *Client) REST() *REST {
	return c.rest
}

// Socket exposes the underlying event socket
func (c *Client) Socket() *Socket {
	return c.socket
}

// installCacheCallbacks feeds the state caches from push events. Malformed
// payloads are logged and skipped; user callbacks for the same events still
// run independently.
func (c *Client) installCacheCallbacks() {
	c.socket.On(EventDeskState, func(data map[string]any) {
		state, err := ParseDeskState(data)
		if err != nil {
			c.logger.Warn("dropping desk state update", zap.Error(err))
			return
		}
		c.stateMu.Lock()
		c.deskState = state
		c.stateMu.Unlock()
	})
	c.socket.On(EventMonitorState, func(data map[string]any) {
		state, err := ParseMonitorState(data)
		if err != nil {
			c.logger.Warn("dropping monitor state update", zap.Error(err))
			return
		}
		c.stateMu.Lock()
		c.monitors[state.Bus] = state
		c.stateMu.Unlock()
	})
	c.socket.On(EventDeviceInfo, func(data map[string]any) {
		info, err := ParseSystemInfo(data)
		if err != nil {
			c.logger.Warn("dropping device info update", zap.Error(err))
			return
		}
		c.stateMu.Lock()
		c.deviceInfo = info
		c.stateMu.Unlock()
	})
}

// DeskState returns the last pushed desk state, or nil before the first
// desk.state event.
func (c *Client) DeskState() *DeskState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.deskState
}

// Monitors returns the last pushed state of every known monitor, ordered
// by bus id. Empty before the first monitor.state event.
func (c *Client) Monitors() []*MonitorState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	states := make([]*MonitorState, 0, len(c.monitors))
	for _, state := range c.monitors {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Bus.Less(states[j].Bus) })
	return states
}

// DeviceInfo returns the last pushed device info, or nil before the first
// device.info event.
func (c *Client) DeviceInfo() *SystemInfo {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.deviceInfo
}

// pick resolves the transport for a control operation. The last selector
// wins so wrappers can append their own default.
func (c *Client) pick(via []Transport) (Transport, error) {
	mode := TransportAuto
	if len(via) > 0 {
		mode = via[len(via)-1]
	}
	switch mode {
	case TransportWebSocket:
		if !c.socket.Connected() {
			return 0, newConnectionError("websocket transport requested but not connected", nil)
		}
		return TransportWebSocket, nil
	case TransportREST:
		return TransportREST, nil
	default:
		if c.socket.Connected() {
			return TransportWebSocket, nil
		}
		return TransportREST, nil
	}
}

// GetDeviceInfo retrieves device information over REST
func (c *Client) GetDeviceInfo(ctx context.Context) (*SystemInfo, error) {
	return c.rest.GetDeviceInfo(ctx)
}

// GetDeskStatus retrieves the current desk status over REST
func (c *Client) GetDeskStatus(ctx context.Context) (*DeskStatus, error) {
	return c.rest.GetDeskStatus(ctx)
}

// SetDeskHeight moves the desk to the given height in cm
func (c *Client) SetDeskHeight(ctx context.Context, height float64, via ...Transport) error {
	if err := validateDeskHeight(height); err != nil {
		return err
	}
	mode, err := c.pick(via)
	if err != nil {
		return err
	}
	if mode == TransportWebSocket {
		_, err := c.socket.SendCommand(ctx, cmdDeskHeight, map[string]any{"height": height})
		return err
	}
	return c.rest.SetDeskHeight(ctx, height)
}

// StopDesk halts desk movement immediately
func (c *Client) StopDesk(ctx context.Context, via ...Transport) error {
	mode, err := c.pick(via)
	if err != nil {
		return err
	}
	if mode == TransportWebSocket {
		_, err := c.socket.SendCommand(ctx, cmdDeskStop, nil)
		return err
	}
	return c.rest.StopDesk(ctx)
}

// ResetDesk resets the desk controller
func (c *Client) ResetDesk(ctx context.Context, via ...Transport) error {
	mode, err := c.pick(via)
	if err != nil {
		return err
	}
	if mode == TransportWebSocket {
		_, err := c.socket.SendCommand(ctx, cmdDeskReset, nil)
		return err
	}
	return c.rest.ResetDesk(ctx)
}

// CalibrateDesk starts the desk calibration routine
func (c *Client) CalibrateDesk(ctx context.Context, via ...Transport) error {
	mode, err := c.pick(via)
	if err != nil {
		return err
	}
	if mode == TransportWebSocket {
		_, err := c.socket.SendCommand(ctx, cmdDeskCalibrate, nil)
		return err
	}
	return c.rest.CalibrateDesk(ctx)
}

// BeepDesk makes the desk controller beep count times (1-5). The device
// only exposes this over REST.
func (c *Client) BeepDesk(ctx context.Context, count int) error {
	return c.rest.BeepDesk(ctx, count)
}

// GetMonitors lists the monitors attached to the device over REST
func (c *Client) GetMonitors(ctx context.Context) ([]MonitorInfo, error) {
	return c.rest.GetMonitors(ctx)
}

// GetMonitorStatus retrieves the full monitor state over REST
func (c *Client) GetMonitorStatus(ctx context.Context, busID int) (*MonitorState, error) {
	return c.rest.GetMonitorStatus(ctx, busID)
}

// SetMonitorPower sets the monitor power state ("on"/"off"/"standby")
func (c *Client) SetMonitorPower(ctx context.Context, busID int, state string, via ...Transport) error {
	mode, err := c.pick(via)
	if err != nil {
		return err
	}
	if mode == TransportWebSocket {
		_, err := c.socket.SendCommand(ctx, cmdDisplayPower,
			map[string]any{"bus": busID, "state": state})
		return err
	}
	return c.rest.SetMonitorPower(ctx, busID, state)
}

// SetMonitorBrightness sets the monitor brightness (0-100)
func (c *Client) SetMonitorBrightness(ctx context.Context, busID, brightness int, via ...Transport) error {
	if err := validatePercent("brightness", brightness); err != nil {
		return err
	}
	mode, err := c.pick(via)
	if err != nil {
		return err
	}
	if mode == TransportWebSocket {
		_, err := c.socket.SendCommand(ctx, cmdDisplayBrightness,
			map[string]any{"bus": busID, "brightness": brightness})
		return err
	}
	return c.rest.SetMonitorBrightness(ctx, busID, brightness)
}

// SetMonitorVolume sets the monitor volume (0-100)
func (c *Client) SetMonitorVolume(ctx context.Context, busID, volume int, via ...Transport) error {
	if err := validatePercent("volume", volume); err != nil {
		return err
	}
	mode, err := c.pick(via)
	if err != nil {
		return err
	}
	if mode == TransportWebSocket {
		_, err := c.socket.SendCommand(ctx, cmdDisplayVolume,
			map[string]any{"bus": busID, "volume": volume})
		return err
	}
	return c.rest.SetMonitorVolume(ctx, busID, volume)
}

// SetMonitorSource switches the monitor input source
func (c *Client) SetMonitorSource(ctx context.Context, busID int, source string, via ...Transport) error {
	mode, err := c.pick(via)
	if err != nil {
		return err
	}
	if mode == TransportWebSocket {
		_, err := c.socket.SendCommand(ctx, cmdDisplaySource,
			map[string]any{"bus": busID, "source": source})
		return err
	}
	return c.rest.SetMonitorSource(ctx, busID, source)
}

// GetBrowserStatus retrieves the kiosk browser state over REST
func (c *Client) GetBrowserStatus(ctx context.Context) (*BrowserState, error) {
	return c.rest.GetBrowserStatus(ctx)
}

// GetBrowserURL returns the URL the kiosk browser is showing over REST
func (c *Client) GetBrowserURL(ctx context.Context) (string, error) {
	return c.rest.GetBrowserURL(ctx)
}

// SetBrowserURL navigates the kiosk browser to the given URL
func (c *Client) SetBrowserURL(ctx context.Context, url string, via ...Transport) error {
	mode, err := c.pick(via)
	if err != nil {
		return err
	}
	if mode == TransportWebSocket {
		_, err := c.socket.SendCommand(ctx, cmdBrowserURL, map[string]any{"url": url})
		return err
	}
	return c.rest.SetBrowserURL(ctx, url)
}

// RefreshBrowser reloads the current kiosk browser page
func (c *Client) RefreshBrowser(ctx context.Context, via ...Transport) error {
	mode, err := c.pick(via)
	if err != nil {
		return err
	}
	if mode == TransportWebSocket {
		_, err := c.socket.SendCommand(ctx, cmdBrowserRefresh, nil)
		return err
	}
	return c.rest.RefreshBrowser(ctx)
}
