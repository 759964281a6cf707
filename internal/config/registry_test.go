package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	// Should not be empty
	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	// Should contain "netlink"
	if !strings.Contains(configDir, "netlink") {
		t.Errorf("GetConfigDir() = %v, should contain 'netlink'", configDir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	// Should end with config.yaml
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}

	t.Logf("Config path: %s", configPath)
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}

	if reg.Preferences == nil {
		t.Error("NewRegistry().Preferences should not be nil")
	}

	if reg.Preferences.AutoDiscover != true {
		t.Error("NewRegistry().Preferences.AutoDiscover should be true by default")
	}

	if reg.Preferences.DiscoverTimeout != 10 {
		t.Errorf("NewRegistry().Preferences.DiscoverTimeout = %v, want 10", reg.Preferences.DiscoverTimeout)
	}
}

func TestRegistryEnsureDevice(t *testing.T) {
	reg := NewRegistry()

	// First call should create device
	device1 := reg.EnsureDevice("nl-0042")
	if device1 == nil {
		t.Fatal("EnsureDevice() returned nil")
	}

	// Second call should return same device
	device2 := reg.EnsureDevice("nl-0042")
	if device1 != device2 {
		t.Error("EnsureDevice() should return same instance for same device id")
	}

	// Different id should create new device
	device3 := reg.EnsureDevice("nl-0099")
	if device1 == device3 {
		t.Error("EnsureDevice() should create new instance for different device id")
	}
}

func TestRegistryUpdateDeviceLastSeen(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.UpdateDeviceLastSeen("nl-0042", "192.168.1.100", 8080)
	after := time.Now()

	device := reg.GetDevice("nl-0042")
	if device == nil {
		t.Fatal("Device should exist after UpdateDeviceLastSeen()")
	}

	if device.Host != "192.168.1.100" {
		t.Errorf("Host = %v, want 192.168.1.100", device.Host)
	}

	if device.Port != 8080 {
		t.Errorf("Port = %v, want 8080", device.Port)
	}

	if device.LastSeen.Before(before) || device.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", device.LastSeen, before, after)
	}
}

func TestRegistrySetDeviceNickname(t *testing.T) {
	reg := NewRegistry()

	reg.SetDeviceNickname("nl-0042", "office-west")

	device := reg.GetDevice("nl-0042")
	if device == nil {
		t.Fatal("Device should exist after SetDeviceNickname()")
	}

	if device.Nickname != "office-west" {
		t.Errorf("Nickname = %v, want 'office-west'", device.Nickname)
	}
}

func TestRegistrySetDeviceToken(t *testing.T) {
	reg := NewRegistry()

	reg.SetDeviceToken("nl-0042", "secret-token")

	device := reg.GetDevice("nl-0042")
	if device == nil {
		t.Fatal("Device should exist after SetDeviceToken()")
	}
	if device.Token != "secret-token" {
		t.Errorf("Token = %v, want 'secret-token'", device.Token)
	}
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	reg.SetDeviceNickname("nl-0042", "office-west")
	reg.UpdateDeviceLastSeen("nl-0042", "192.168.1.100", 80)

	tests := []struct {
		name   string
		lookup string
		wantID string
	}{
		{"by device id", "nl-0042", "nl-0042"},
		{"by nickname", "office-west", "nl-0042"},
		{"unknown", "kitchen", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, device := reg.Resolve(tt.lookup)
			if id != tt.wantID {
				t.Errorf("Resolve(%q) id = %q, want %q", tt.lookup, id, tt.wantID)
			}
			if (device == nil) != (tt.wantID == "") {
				t.Errorf("Resolve(%q) device = %v", tt.lookup, device)
			}
		})
	}
}

func TestRegistryRemoveDevice(t *testing.T) {
	reg := NewRegistry()
	reg.SetDeviceNickname("nl-0042", "office-west")

	if !reg.RemoveDevice("nl-0042") {
		t.Error("RemoveDevice() should report removal of existing device")
	}
	if reg.GetDevice("nl-0042") != nil {
		t.Error("Device should be gone after RemoveDevice()")
	}
	if reg.RemoveDevice("nl-0042") {
		t.Error("RemoveDevice() should report false for missing device")
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	// Use a temporary directory for testing
	tmpDir, err := os.MkdirTemp("", "netlink-config-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	testConfigPath := filepath.Join(tmpDir, "config.yaml")

	// Create and populate registry
	reg := NewRegistry()
	reg.SetDeviceNickname("nl-0042", "office-west")
	reg.UpdateDeviceLastSeen("nl-0042", "192.168.1.100", 80)
	reg.SetDeviceToken("nl-0042", "secret-token")

	data, err := yaml.Marshal(reg)
	if err != nil {
		t.Fatalf("Failed to marshal registry: %v", err)
	}
	if err := os.WriteFile(testConfigPath, data, 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	// Load it back
	raw, err := os.ReadFile(testConfigPath)
	if err != nil {
		t.Fatalf("Failed to read test config: %v", err)
	}
	var loaded Registry
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		t.Fatalf("Failed to parse test config: %v", err)
	}

	device := loaded.GetDevice("nl-0042")
	if device == nil {
		t.Fatal("Device should exist in loaded registry")
	}
	if device.Nickname != "office-west" {
		t.Errorf("Loaded nickname = %v, want 'office-west'", device.Nickname)
	}
	if device.Host != "192.168.1.100" {
		t.Errorf("Loaded host = %v, want 192.168.1.100", device.Host)
	}
	if device.Token != "secret-token" {
		t.Errorf("Loaded token = %v, want 'secret-token'", device.Token)
	}
}

// Benchmark tests

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}

func BenchmarkEnsureDevice(b *testing.B) {
	reg := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.EnsureDevice("nl-0042")
	}
}
