package core

import (
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_ENV_STRING", "value")

	if got := GetEnvOrDefault("TEST_ENV_STRING", "fallback"); got != "value" {
		t.Errorf("GetEnvOrDefault(set) = %q, want %q", got, "value")
	}
	if got := GetEnvOrDefault("TEST_ENV_UNSET_XYZ", "fallback"); got != "fallback" {
		t.Errorf("GetEnvOrDefault(unset) = %q, want %q", got, "fallback")
	}
}

func TestParseIntEnv(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback int
		want     int
	}{
		{name: "valid integer", value: "42", fallback: 7, want: 42},
		{name: "negative integer", value: "-3", fallback: 7, want: -3},
		{name: "not a number", value: "abc", fallback: 7, want: 7},
		{name: "empty", value: "", fallback: 7, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_INT", tt.value)
			if got := ParseIntEnv("TEST_ENV_INT", tt.fallback); got != tt.want {
				t.Errorf("ParseIntEnv(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback bool
		want     bool
	}{
		{name: "true", value: "true", fallback: false, want: true},
		{name: "one", value: "1", fallback: false, want: true},
		{name: "yes uppercase", value: "YES", fallback: false, want: true},
		{name: "false", value: "false", fallback: true, want: false},
		{name: "off", value: "off", fallback: true, want: false},
		{name: "garbage keeps default", value: "maybe", fallback: true, want: true},
		{name: "empty keeps default", value: "", fallback: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_BOOL", tt.value)
			if got := ParseBoolEnv("TEST_ENV_BOOL", tt.fallback); got != tt.want {
				t.Errorf("ParseBoolEnv(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseDurationSecondsEnv(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback time.Duration
		want     time.Duration
	}{
		{name: "seconds", value: "30", fallback: time.Second, want: 30 * time.Second},
		{name: "zero allowed", value: "0", fallback: time.Second, want: 0},
		{name: "negative keeps default", value: "-5", fallback: time.Second, want: time.Second},
		{name: "garbage keeps default", value: "soon", fallback: time.Second, want: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_DURATION", tt.value)
			if got := ParseDurationSecondsEnv("TEST_ENV_DURATION", tt.fallback); got != tt.want {
				t.Errorf("ParseDurationSecondsEnv(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
