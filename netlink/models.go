package netlink

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinDeskHeight is the lowest height (cm) the desk actuator accepts
	MinDeskHeight = 60.0
	// MaxDeskHeight is the highest height (cm) the desk actuator accepts
	MaxDeskHeight = 130.0

	// MinBeepCount and MaxBeepCount bound the desk beep command
	MinBeepCount = 1
	MaxBeepCount = 5
)

// DeskState represents the live desk state pushed over the event socket
// (event "desk.state").
type DeskState struct {
	Height       float64        `json:"height"`
	Mode         string         `json:"mode"`
	Moving       bool           `json:"moving"`
	Target       *float64       `json:"target,omitempty"`
	Error        *string        `json:"error,omitempty"`
	Beep         *bool          `json:"beep,omitempty"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Inventory    map[string]any `json:"inventory,omitempty"`
}

// Validate checks field ranges
func (s *DeskState) Validate() error {
	if s.Height < MinDeskHeight || s.Height > MaxDeskHeight {
		return newDataError(fmt.Sprintf(
			"height must be between %.0f and %.0f cm, got %.1f",
			MinDeskHeight, MaxDeskHeight, s.Height), nil)
	}
	return nil
}

// DeskStatus represents the desk status returned by GET /api/v1/desk/status.
// It carries the same core fields as DeskState plus REST-only diagnostics.
type DeskStatus struct {
	Height              float64 `json:"height"`
	Mode                string  `json:"mode"`
	Moving              bool    `json:"moving"`
	Beep                *bool   `json:"beep,omitempty"`
	Error               *string `json:"error,omitempty"`
	ControllerConnected bool    `json:"controller_connected"`
}

// MonitorInfo is a single entry of the monitor inventory (GET /api/v1/monitors)
type MonitorInfo struct {
	ID    int    `json:"id"`
	Bus   int    `json:"bus"`
	Model string `json:"model"`
	Type  string `json:"type"`
}

// BusID identifies a monitor on the device's DDC bus. Devices report it
// inconsistently as a JSON number or string, so both are accepted.
type BusID string

// UnmarshalJSON accepts either a JSON number or a JSON string
func (b *BusID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = BusID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*b = BusID(n.String())
	return nil
}

// String returns the bus identifier as reported by the device
func (b BusID) String() string {
	return string(b)
}

// Less orders bus identifiers numerically when both parse as integers, so
// bus 10 sorts after bus 4. Named buses fall back to string order.
func (b BusID) Less(other BusID) bool {
	bn, errB := strconv.Atoi(string(b))
	on, errO := strconv.Atoi(string(other))
	if errB == nil && errO == nil {
		return bn < on
	}
	return string(b) < string(other)
}

// MonitorState represents a monitor's full state, delivered both by
// GET /api/v1/monitor/{bus}/status and by the "monitor.state" push event.
type MonitorState struct {
	Bus           BusID           `json:"bus"`
	Power         string          `json:"power"`
	Source        *string         `json:"source,omitempty"`
	Brightness    *int            `json:"brightness,omitempty"`
	Volume        *int            `json:"volume,omitempty"`
	Model         *string         `json:"model,omitempty"`
	Type          *string         `json:"type,omitempty"`
	SN            *string         `json:"sn,omitempty"`
	Supports      map[string]bool `json:"supports,omitempty"`
	SourceOptions []string        `json:"source_options,omitempty"`
}

// Validate checks field ranges
func (s *MonitorState) Validate() error {
	if s.Brightness != nil && (*s.Brightness < 0 || *s.Brightness > 100) {
		return newDataError(fmt.Sprintf("brightness must be 0-100, got %d", *s.Brightness), nil)
	}
	if s.Volume != nil && (*s.Volume < 0 || *s.Volume > 100) {
		return newDataError(fmt.Sprintf("volume must be 0-100, got %d", *s.Volume), nil)
	}
	return nil
}

// BrowserState represents the kiosk browser service state
type BrowserState struct {
	URL string `json:"url"`
}

// SystemInfo represents device information (GET /api/v1/device/info and the
// "device.info" push event).
type SystemInfo struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	Model      string `json:"model"`
	Uptime     int64  `json:"uptime"`
}

// DefaultWSPath is the event socket path used when a device does not
// advertise one.
const DefaultWSPath = "/api/v1/ws"

// Device represents a Netlink device discovered on the local network
type Device struct {
	Name       string
	Host       string
	Port       int
	DeviceID   string
	Model      string
	Version    string
	APIVersion string
	HasDesk    bool
	Monitors   []string
	WSPath     string
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("Netlink Device %s (%s) at %s:%d", d.Name, d.Model, d.Host, d.Port)
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", d.Host, d.Port)
}

// decodeModel converts a generic JSON object (as delivered by the event
// socket or a REST body) into a typed model and validates it.
func decodeModel(data map[string]any, what string, out interface{ Validate() error }) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return newDataError(fmt.Sprintf("incomplete or invalid %s data", what), err)
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return newDataError(fmt.Sprintf("incomplete or invalid %s data", what), err)
	}
	return out.Validate()
}

// ParseDeskState builds a DeskState from a push-event payload. Payloads may
// wrap the state one level under a "state" key.
func ParseDeskState(data map[string]any) (*DeskState, error) {
	if nested, ok := data["state"].(map[string]any); ok {
		data = nested
	}
	var state DeskState
	if err := decodeModel(data, "desk state", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// ParseMonitorState builds a MonitorState from a push-event payload
func ParseMonitorState(data map[string]any) (*MonitorState, error) {
	if nested, ok := data["state"].(map[string]any); ok {
		merged := make(map[string]any, len(data)+len(nested))
		for k, v := range data {
			if k != "state" {
				merged[k] = v
			}
		}
		for k, v := range nested {
			merged[k] = v
		}
		data = merged
	}
	var state MonitorState
	if err := decodeModel(data, "monitor state", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// ParseSystemInfo builds a SystemInfo from a push-event payload
func ParseSystemInfo(data map[string]any) (*SystemInfo, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, newDataError("incomplete or invalid device info data", err)
	}
	var info SystemInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, newDataError("incomplete or invalid device info data", err)
	}
	return &info, nil
}

// validateDeskHeight is shared by the REST client and the command path so
// out-of-range values are rejected before anything is sent to the device.
func validateDeskHeight(height float64) error {
	if height < MinDeskHeight || height > MaxDeskHeight {
		return newDataError(fmt.Sprintf(
			"height must be between %.0f and %.0f cm, got %.1f",
			MinDeskHeight, MaxDeskHeight, height), nil)
	}
	return nil
}

func validatePercent(what string, value int) error {
	if value < 0 || value > 100 {
		return newDataError(fmt.Sprintf("%s must be 0-100, got %d", what, value), nil)
	}
	return nil
}

func validateBeepCount(count int) error {
	if count < MinBeepCount || count > MaxBeepCount {
		return newDataError(fmt.Sprintf(
			"beep count must be between %d and %d, got %d",
			MinBeepCount, MaxBeepCount, count), nil)
	}
	return nil
}
