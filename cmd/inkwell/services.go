package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/assetstore"
	"github.com/inkwell-dev/inkwell/internal/config"
	"github.com/inkwell-dev/inkwell/internal/discovery"
	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/transform"
)

// resolveServer picks the server URL: --server, then mDNS when asked, then
// the config file.
func resolveServer(ctx context.Context, reg *config.Registry) (string, error) {
	if serverURL != "" {
		return strings.TrimRight(serverURL, "/"), nil
	}
	if discover || reg.Services.Discover {
		backend, err := discovery.NewScanner().First(ctx)
		if err == nil {
			logging.Info("Discovered inkwell-server", zap.Stringer("backend", backend))
			return backend.BaseURL(), nil
		}
		if discover {
			return "", fmt.Errorf("no inkwell-server found on the local network: %w", err)
		}
		logging.Warn("mDNS discovery failed, using configured server", zap.Error(err))
	}
	return strings.TrimRight(reg.Services.ServerURL, "/"), nil
}

// buildStore returns the asset store selected by the config file.
func buildStore(reg *config.Registry, base string) (assetstore.Store, error) {
	if offline {
		dir, err := offlineAssetDir()
		if err != nil {
			return nil, err
		}
		return assetstore.NewFSStore(dir, (&url.URL{Scheme: "file", Path: dir}).String()), nil
	}

	switch reg.Services.AssetBackend {
	case "", "server":
		store := assetstore.NewHTTPStore(base)
		store.Token = envValue(reg.Services.TokenEnv)
		return store, nil
	case "github":
		gh := reg.Services.GitHub
		if gh == nil || gh.Owner == "" || gh.Repo == "" {
			return nil, fmt.Errorf("asset_backend github needs services.github.owner and repo")
		}
		token := envValue(gh.TokenEnv)
		if token == "" {
			return nil, fmt.Errorf("GitHub token missing: set %s", gh.TokenEnv)
		}
		store := assetstore.NewGitHubStore(gh.Owner, gh.Repo, token)
		if gh.Branch != "" {
			store.Branch = gh.Branch
		}
		if gh.Dir != "" {
			store.Dir = gh.Dir
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown asset_backend %q (expected server or github)", reg.Services.AssetBackend)
	}
}

// buildService returns the transform service: canned results offline, the
// OpenAI API when direct is set, otherwise the server.
func buildService(reg *config.Registry, base string, direct bool) (transform.Service, error) {
	if offline {
		return &transform.MockService{}, nil
	}
	if direct {
		key := envValue(reg.Services.APIKeyEnv)
		return transform.NewOpenAIService(key, reg.Services.OpenAIBase, reg.Assistant.Model)
	}
	return transform.NewHTTPService(base, envValue(reg.Services.TokenEnv)), nil
}

// catalogue returns the model picker entries with the configured default
// first.
func catalogue(reg *config.Registry) []transform.Model {
	models := make([]transform.Model, 0, len(reg.Models))
	for _, e := range reg.Models {
		m := transform.Model{Provider: e.Provider, ModelID: e.ModelID, Name: e.Name}
		if m.Name == "" {
			m.Name = e.ModelID
		}
		if e.Provider == reg.Assistant.Provider && e.ModelID == reg.Assistant.Model {
			models = append([]transform.Model{m}, models...)
			continue
		}
		models = append(models, m)
	}
	return models
}

// previewURL maps an http(s) server URL onto its preview socket.
func previewURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("server URL %q must be http or https", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

func offlineAssetDir() (string, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "assets")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create asset directory: %w", err)
	}
	return dir, nil
}

func envValue(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
