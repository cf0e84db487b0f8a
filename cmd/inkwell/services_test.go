package main

import (
	"testing"

	"github.com/inkwell-dev/inkwell/internal/config"
)

func TestPreviewURL(t *testing.T) {
	tests := []struct {
		base    string
		want    string
		wantErr bool
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws", false},
		{"https://ink.example.com/", "wss://ink.example.com/ws", false},
		{"https://example.com/inkwell", "wss://example.com/inkwell/ws", false},
		{"ftp://example.com", "", true},
	}
	for _, tt := range tests {
		got, err := previewURL(tt.base)
		if (err != nil) != tt.wantErr {
			t.Errorf("previewURL(%q) error = %v, wantErr %v", tt.base, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("previewURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestCatalogueDefaultFirst(t *testing.T) {
	reg := config.NewRegistry()
	reg.Assistant.Provider = "claude"
	reg.Assistant.Model = "claude-3-opus-20240229"

	models := catalogue(reg)
	if len(models) != len(reg.Models) {
		t.Fatalf("catalogue() has %d models, want %d", len(models), len(reg.Models))
	}
	if models[0].ModelID != "claude-3-opus-20240229" {
		t.Errorf("first model = %q, want the configured default", models[0].ModelID)
	}
}

func TestBuildStoreBackends(t *testing.T) {
	reg := config.NewRegistry()

	if _, err := buildStore(reg, "http://localhost:8080"); err != nil {
		t.Errorf("server backend error = %v", err)
	}

	reg.Services.AssetBackend = "github"
	if _, err := buildStore(reg, ""); err == nil {
		t.Error("github backend without owner/repo should fail")
	}

	reg.Services.AssetBackend = "s3"
	if _, err := buildStore(reg, ""); err == nil {
		t.Error("unknown backend should fail")
	}
}
