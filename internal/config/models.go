package config

import "time"

// Registry represents the entire user configuration file.
// This stores known Netlink devices and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by device id
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents a known Netlink device.
// This is keyed by the device id in the Registry.
type Device struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	Host     string    `yaml:"host"`                // Last known host or IP address
	Port     int       `yaml:"port,omitempty"`      // HTTP port (defaults to 80 when omitted)
	Token    string    `yaml:"token,omitempty"`     // Bearer token; file is written with 0600 permissions
	Model    string    `yaml:"model,omitempty"`     // Device model as advertised
	WSPath   string    `yaml:"ws_path,omitempty"`   // Event socket path as advertised
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover    bool   `yaml:"auto_discover"`            // Enable mDNS discovery when a device is not in the registry
	DiscoverTimeout int    `yaml:"discover_timeout"`         // mDNS discovery timeout in seconds
	DefaultDevice   string `yaml:"default_device,omitempty"` // Nickname or device id used when a command names no device
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 10,
		},
	}
}

// GetDevice retrieves a device by id.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(deviceID string) *Device {
	return r.Devices[deviceID]
}

// Resolve finds a device by nickname or device id.
// Returns the device id and entry, or empty id when not found.
func (r *Registry) Resolve(name string) (string, *Device) {
	if device, exists := r.Devices[name]; exists {
		return name, device
	}
	for id, device := range r.Devices {
		if device.Nickname == name {
			return id, device
		}
	}
	return "", nil
}

// EnsureDevice ensures a device entry exists in the registry.
// If the device doesn't exist, creates a new entry with default values.
// Returns the device entry (existing or newly created).
func (r *Registry) EnsureDevice(deviceID string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[deviceID]; exists {
		return device
	}

	device := &Device{}
	r.Devices[deviceID] = device
	return device
}

// UpdateDeviceLastSeen updates the last seen timestamp and address for a device.
func (r *Registry) UpdateDeviceLastSeen(deviceID, host string, port int) {
	device := r.EnsureDevice(deviceID)
	device.LastSeen = time.Now()
	device.Host = host
	device.Port = port
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(deviceID, nickname string) {
	device := r.EnsureDevice(deviceID)
	device.Nickname = nickname
}

// SetDeviceToken stores the bearer token for a device.
func (r *Registry) SetDeviceToken(deviceID, token string) {
	device := r.EnsureDevice(deviceID)
	device.Token = token
}

// RemoveDevice deletes a device from the registry.
// Returns true when an entry was removed.
func (r *Registry) RemoveDevice(deviceID string) bool {
	if _, exists := r.Devices[deviceID]; !exists {
		return false
	}
	delete(r.Devices, deviceID)
	return true
}
