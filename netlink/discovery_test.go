package netlink

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestDeviceFromServiceEntry(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "netlink-0042.local.",
		Port:     8080,
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
		Text: []string{
			"name=Office West",
			"device_id=nl-0042",
			"model=NL-200",
			"version=2.1.0",
			"api_version=v1",
			"has_desk=true",
			"monitors=4,5",
			"ws_path=/custom/ws",
		},
	}

	device := deviceFromServiceEntry(entry)
	if device == nil {
		t.Fatal("entry rejected")
	}
	if device.Name != "Office West" {
		t.Errorf("name = %q", device.Name)
	}
	if device.Host != "192.168.1.50" || device.Port != 8080 {
		t.Errorf("address = %s:%d", device.Host, device.Port)
	}
	if device.DeviceID != "nl-0042" || device.Model != "NL-200" {
		t.Errorf("identity = %q / %q", device.DeviceID, device.Model)
	}
	if !device.HasDesk {
		t.Error("has_desk lost")
	}
	if len(device.Monitors) != 2 || device.Monitors[0] != "4" || device.Monitors[1] != "5" {
		t.Errorf("monitors = %v", device.Monitors)
	}
	if device.WSPath != "/custom/ws" {
		t.Errorf("ws_path = %q", device.WSPath)
	}
}

func TestDeviceFromServiceEntryDefaults(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.51")},
	}

	device := deviceFromServiceEntry(entry)
	if device == nil {
		t.Fatal("minimal entry rejected")
	}
	if device.Name != "Unknown" {
		t.Errorf("name = %q, want Unknown", device.Name)
	}
	if device.WSPath != DefaultWSPath {
		t.Errorf("ws_path = %q, want %q", device.WSPath, DefaultWSPath)
	}
	if device.Port != DefaultPort {
		t.Errorf("port = %d, want %d", device.Port, DefaultPort)
	}
	if device.HasDesk {
		t.Error("has_desk defaulted to true")
	}
}

func TestDeviceFromServiceEntryPrefersIPv4(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.52")},
		AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
	}
	device := deviceFromServiceEntry(entry)
	if device == nil || device.Host != "192.168.1.52" {
		t.Fatalf("device = %+v", device)
	}

	v6only := &zeroconf.ServiceEntry{
		AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
	}
	device = deviceFromServiceEntry(v6only)
	if device == nil || device.Host != "fe80::1" {
		t.Fatalf("IPv6 fallback failed: %+v", device)
	}
}

func TestDeviceFromServiceEntryNoAddress(t *testing.T) {
	if device := deviceFromServiceEntry(&zeroconf.ServiceEntry{}); device != nil {
		t.Errorf("addressless entry accepted: %+v", device)
	}
	if device := deviceFromServiceEntry(nil); device != nil {
		t.Error("nil entry accepted")
	}
}
