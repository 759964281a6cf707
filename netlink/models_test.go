package netlink

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBusIDUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want BusID
	}{
		{"number", `{"bus": 4, "power": "on"}`, BusID("4")},
		{"string", `{"bus": "4", "power": "on"}`, BusID("4")},
		{"named bus", `{"bus": "ddc-1", "power": "on"}`, BusID("ddc-1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var state MonitorState
			if err := json.Unmarshal([]byte(tt.raw), &state); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if state.Bus != tt.want {
				t.Errorf("bus = %q, want %q", state.Bus, tt.want)
			}
		})
	}
}

func TestBusIDOrdering(t *testing.T) {
	tests := []struct {
		name string
		a, b BusID
		less bool
	}{
		{"numeric", BusID("4"), BusID("10"), true},
		{"numeric reversed", BusID("10"), BusID("4"), false},
		{"equal numeric", BusID("4"), BusID("4"), false},
		{"named buses", BusID("ddc-1"), BusID("ddc-2"), true},
		{"mixed falls back to string", BusID("4"), BusID("ddc-1"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Less(tt.b); got != tt.less {
				t.Errorf("%q.Less(%q) = %v, want %v", tt.a, tt.b, got, tt.less)
			}
		})
	}
}

func TestParseDeskState(t *testing.T) {
	payload := map[string]any{
		"height": 80.5,
		"mode":   "normal",
		"moving": true,
		"target": 100.0,
	}

	state, err := ParseDeskState(payload)
	if err != nil {
		t.Fatalf("ParseDeskState failed: %v", err)
	}
	if state.Height != 80.5 {
		t.Errorf("height = %v, want 80.5", state.Height)
	}
	if !state.Moving {
		t.Error("moving flag lost")
	}
	if state.Target == nil || *state.Target != 100.0 {
		t.Errorf("target = %v, want 100", state.Target)
	}
}

func TestParseDeskStateWrapped(t *testing.T) {
	payload := map[string]any{
		"state": map[string]any{
			"height": 72.0,
			"mode":   "normal",
			"moving": false,
		},
	}
	state, err := ParseDeskState(payload)
	if err != nil {
		t.Fatalf("ParseDeskState failed: %v", err)
	}
	if state.Height != 72.0 {
		t.Errorf("height = %v, want 72", state.Height)
	}
}

func TestParseDeskStateInvalidHeight(t *testing.T) {
	for _, height := range []float64{50, 150} {
		payload := map[string]any{"height": height, "mode": "normal", "moving": false}
		if _, err := ParseDeskState(payload); !IsDataError(err) {
			t.Errorf("height %v: expected data error, got %v", height, err)
		}
	}
}

func TestParseMonitorState(t *testing.T) {
	brightness := 75
	payload := map[string]any{
		"bus": 4,
		"state": map[string]any{
			"power":      "on",
			"brightness": brightness,
			"source":     "hdmi1",
		},
	}

	state, err := ParseMonitorState(payload)
	if err != nil {
		t.Fatalf("ParseMonitorState failed: %v", err)
	}
	if state.Bus != BusID("4") {
		t.Errorf("bus = %q, want 4", state.Bus)
	}
	if state.Power != "on" {
		t.Errorf("power = %q, want on", state.Power)
	}
	if state.Brightness == nil || *state.Brightness != brightness {
		t.Errorf("brightness = %v, want %d", state.Brightness, brightness)
	}
}

func TestParseMonitorStateOutOfRange(t *testing.T) {
	payload := map[string]any{"bus": 4, "power": "on", "brightness": 150}
	if _, err := ParseMonitorState(payload); !IsDataError(err) {
		t.Errorf("expected data error for brightness 150, got %v", err)
	}
	payload = map[string]any{"bus": 4, "power": "on", "volume": -1}
	if _, err := ParseMonitorState(payload); !IsDataError(err) {
		t.Errorf("expected data error for volume -1, got %v", err)
	}
}

func TestParseSystemInfo(t *testing.T) {
	payload := map[string]any{
		"version":     "2.1.0",
		"api_version": "v1",
		"device_id":   "nl-0042",
		"device_name": "Office West",
		"model":       "NL-200",
		"uptime":      86400,
	}
	info, err := ParseSystemInfo(payload)
	if err != nil {
		t.Fatalf("ParseSystemInfo failed: %v", err)
	}
	if info.DeviceID != "nl-0042" || info.Version != "2.1.0" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestValidateDeskHeight(t *testing.T) {
	tests := []struct {
		height float64
		ok     bool
	}{
		{MinDeskHeight, true},
		{MaxDeskHeight, true},
		{95.5, true},
		{50, false},
		{150, false},
		{MinDeskHeight - 0.1, false},
		{MaxDeskHeight + 0.1, false},
	}

	for _, tt := range tests {
		err := validateDeskHeight(tt.height)
		if tt.ok && err != nil {
			t.Errorf("height %v rejected: %v", tt.height, err)
		}
		if !tt.ok {
			if !IsDataError(err) {
				t.Errorf("height %v: expected data error, got %v", tt.height, err)
			} else if !strings.Contains(err.Error(), "height must be between") {
				t.Errorf("height %v: unexpected message: %v", tt.height, err)
			}
		}
	}
}

func TestValidateBeepCount(t *testing.T) {
	for _, count := range []int{MinBeepCount, 3, MaxBeepCount} {
		if err := validateBeepCount(count); err != nil {
			t.Errorf("count %d rejected: %v", count, err)
		}
	}
	for _, count := range []int{0, 6, -1} {
		if err := validateBeepCount(count); !IsDataError(err) {
			t.Errorf("count %d: expected data error, got %v", count, err)
		}
	}
}

func TestValidatePercent(t *testing.T) {
	if err := validatePercent("brightness", 100); err != nil {
		t.Errorf("100 rejected: %v", err)
	}
	if err := validatePercent("volume", 101); !IsDataError(err) {
		t.Errorf("expected data error for 101, got %v", err)
	}
}

func TestDeviceString(t *testing.T) {
	d := &Device{Name: "Office West", Model: "NL-200", Host: "10.0.0.12", Port: 80}
	got := d.String()
	for _, part := range []string{"Office West", "NL-200", "10.0.0.12:80"} {
		if !strings.Contains(got, part) {
			t.Errorf("String() = %q, missing %q", got, part)
		}
	}
	if base := d.BaseURL(); base != "http://10.0.0.12:80" {
		t.Errorf("BaseURL() = %q", base)
	}
}
