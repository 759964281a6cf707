package netlink

import (
	"context"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type Netlink devices advertise
	ServiceType = "_netlink._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 10 * time.Second
)

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is the maximum time to wait for device discovery
	Timeout time.Duration

	logger *zap.Logger
}

// ScannerOption configures a Scanner
type ScannerOption func(*Scanner)

// WithScanTimeout sets the browse duration
func WithScanTimeout(timeout time.Duration) ScannerOption {
	return func(s *Scanner) {
		if timeout > 0 {
			s.Timeout = timeout
		}
	}
}

// WithScanLogger sets the logger for discovery tracing
func WithScanLogger(logger *zap.Logger) ScannerOption {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScanner creates an mDNS scanner with default settings
func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		Timeout: DefaultScanTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanForDevices discovers all Netlink devices on the local network. The
// scan runs for the full timeout so slow responders are included.
func (s *Scanner) ScanForDevices(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	devices := make([]*Device, 0)
	collected := make(chan struct{})

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, newConnectionError("failed to create mDNS resolver", err)
	}

	go func() {
		defer close(collected)
		for entry := range entries {
			device := deviceFromServiceEntry(entry)
			if device == nil {
				continue
			}
			s.logger.Debug("discovered device",
				zap.String("device_id", device.DeviceID),
				zap.String("host", device.Host),
			)
			devices = append(devices, device)
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, newConnectionError("failed to browse for mDNS services", err)
	}

	<-ctx.Done()
	<-collected
	return devices, nil
}

// WaitForDevice waits until the device with the given id appears on the
// network, up to the scanner timeout.
func (s *Scanner) WaitForDevice(ctx context.Context, deviceID string) (*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Device, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, newConnectionError("failed to create mDNS resolver", err)
	}

	go func() {
		for entry := range entries {
			device := deviceFromServiceEntry(entry)
			if device != nil && device.DeviceID == deviceID {
				found <- device
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, newConnectionError("failed to browse for mDNS services", err)
	}

	select {
	case device := <-found:
		return device, nil
	case <-ctx.Done():
		return nil, newTimeoutError("device "+deviceID+" not found within timeout", nil)
	}
}

// Discover scans for devices with the given timeout
func Discover(ctx context.Context, timeout time.Duration) ([]*Device, error) {
	return NewScanner(WithScanTimeout(timeout)).ScanForDevices(ctx)
}

// deviceFromServiceEntry converts a zeroconf service entry to a Device.
// Returns nil for entries without a usable address. Missing TXT records
// fall back to defaults so partial advertisements still yield a device.
func deviceFromServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil {
		return nil
	}

	// Prefer IPv4.
	var host string
	if len(entry.AddrIPv4) > 0 {
		host = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		host = entry.AddrIPv6[0].String()
	}
	if host == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	txt := make(map[string]string, len(entry.Text))
	for _, record := range entry.Text {
		parts := strings.SplitN(record, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else {
			txt[parts[0]] = ""
		}
	}

	device := &Device{
		Name:       txt["name"],
		Host:       host,
		Port:       port,
		DeviceID:   txt["device_id"],
		Model:      txt["model"],
		Version:    txt["version"],
		APIVersion: txt["api_version"],
		HasDesk:    txt["has_desk"] == "true",
		WSPath:     txt["ws_path"],
	}
	if device.Name == "" {
		device.Name = "Unknown"
	}
	if device.WSPath == "" {
		device.WSPath = DefaultWSPath
	}
	if monitors := txt["monitors"]; monitors != "" {
		for _, bus := range strings.Split(monitors, ",") {
			if bus = strings.TrimSpace(bus); bus != "" {
				device.Monitors = append(device.Monitors, bus)
			}
		}
	}
	return device
}
