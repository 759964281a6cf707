// Package config provides user configuration management for the netlink CLI.
//
// This package manages a YAML-based configuration file that stores known
// Netlink devices (nickname, address, bearer token) and application
// preferences. The configuration follows OS-specific conventions for storage
// location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/netlink/config.yaml or $HOME/.config/netlink/config.yaml
//   - macOS: $HOME/.config/netlink/config.yaml
//   - Windows: %LOCALAPPDATA%\netlink\config.yaml
//
// # Security
//
// Device bearer tokens are stored in this file so commands can run without
// prompting. The file is created with owner-only permissions (0600).
// Remove a device's token field to be prompted instead.
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Register a device under its device id
//	registry.SetDeviceNickname("nl-0042", "office-west")
//	registry.UpdateDeviceLastSeen("nl-0042", "192.168.1.100", 80)
//	registry.SetDeviceToken("nl-0042", token)
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
