package discovery

import (
	"testing"
)

func TestBackend_String(t *testing.T) {
	tests := []struct {
		name     string
		backend  *Backend
		expected string
	}{
		{
			name: "with version",
			backend: &Backend{
				Instance: "inkwell on studio",
				Hostname: "studio.local.",
				IP:       "192.168.4.16",
				Port:     8080,
				Metadata: map[string]string{"version": "1.2.0"},
			},
			expected: "inkwell on studio (studio.local., v1.2.0) at 192.168.4.16:8080",
		},
		{
			name: "without version",
			backend: &Backend{
				Instance: "inkwell",
				Hostname: "box.local.",
				IP:       "10.0.0.5",
				Port:     80,
			},
			expected: "inkwell (box.local.) at 10.0.0.5:80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.backend.String(); got != tt.expected {
				t.Errorf("Backend.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBackend_URLs(t *testing.T) {
	tests := []struct {
		name        string
		backend     *Backend
		wantBase    string
		wantPreview string
	}{
		{
			name:        "IPv4",
			backend:     &Backend{IP: "192.168.4.16", Port: 8080},
			wantBase:    "http://192.168.4.16:8080",
			wantPreview: "ws://192.168.4.16:8080/ws",
		},
		{
			name:        "IPv6 is bracketed",
			backend:     &Backend{IP: "fe80::1", Port: 8080},
			wantBase:    "http://[fe80::1]:8080",
			wantPreview: "ws://[fe80::1]:8080/ws",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.backend.BaseURL(); got != tt.wantBase {
				t.Errorf("Backend.BaseURL() = %v, want %v", got, tt.wantBase)
			}
			if got := tt.backend.PreviewURL(); got != tt.wantPreview {
				t.Errorf("Backend.PreviewURL() = %v, want %v", got, tt.wantPreview)
			}
		})
	}
}

func TestBackend_GetMetadata(t *testing.T) {
	backend := &Backend{
		Metadata: map[string]string{
			"app": "inkwell",
			"api": "/api",
		},
	}

	tests := []struct {
		key      string
		expected string
	}{
		{"app", "inkwell"},
		{"api", "/api"},
		{"nonexistent", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := backend.GetMetadata(tt.key); got != tt.expected {
				t.Errorf("GetMetadata(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}

	empty := &Backend{}
	if got := empty.GetMetadata("app"); got != "" {
		t.Errorf("GetMetadata() on nil metadata = %v, want empty string", got)
	}
}
