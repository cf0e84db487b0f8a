package assetstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/remote"
	"github.com/inkwell-dev/inkwell/internal/version"
)

const (
	// DefaultGitHubAPI is the GitHub REST API root
	DefaultGitHubAPI = "https://api.github.com"

	// DefaultGitHubRaw is the root of raw file URLs
	DefaultGitHubRaw = "https://raw.githubusercontent.com"

	// DefaultGitHubBranch is used when no branch is configured
	DefaultGitHubBranch = "main"

	// DefaultGitHubDir is the repository directory assets are committed to
	DefaultGitHubDir = "assets/images"
)

const githubService = "GitHub"

// GitHubStore commits assets to a repository through the contents API and
// returns their raw URL.
type GitHubStore struct {
	Owner  string
	Repo   string
	Branch string
	Dir    string
	Token  string

	// APIBase and RawBase are overridable for tests and GitHub Enterprise
	APIBase string
	RawBase string

	HTTPClient *http.Client
	Retry      remote.RetryPolicy

	now func() time.Time
}

// NewGitHubStore creates a store for owner/repo with default branch and
// directory.
func NewGitHubStore(owner, repo, token string) *GitHubStore {
	return &GitHubStore{
		Owner:      owner,
		Repo:       repo,
		Branch:     DefaultGitHubBranch,
		Dir:        DefaultGitHubDir,
		Token:      token,
		APIBase:    DefaultGitHubAPI,
		RawBase:    DefaultGitHubRaw,
		HTTPClient: &http.Client{Timeout: remote.DefaultTimeout},
		Retry:      remote.DefaultRetryPolicy(),
		now:        time.Now,
	}
}

type githubPutRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
}

type githubPutResponse struct {
	Content struct {
		Path        string `json:"path"`
		SHA         string `json:"sha"`
		DownloadURL string `json:"download_url"`
	} `json:"content"`
}

// Upload implements Store.
func (s *GitHubStore) Upload(ctx context.Context, a Asset) (Uploaded, error) {
	if s.Owner == "" || s.Repo == "" {
		return Uploaded{}, remote.NewValidationError(githubService, "repository owner and name are required")
	}
	if s.Token == "" {
		return Uploaded{}, remote.NewAuthError(githubService, "no GitHub token configured", 0)
	}

	ct, err := validate(githubService, a)
	if err != nil {
		return Uploaded{}, err
	}

	now := time.Now()
	if s.now != nil {
		now = s.now()
	}
	name, err := UniqueName(a.Name, ct, now)
	if err != nil {
		return Uploaded{}, err
	}

	branch := s.Branch
	if branch == "" {
		branch = DefaultGitHubBranch
	}
	filePath := path.Join(strings.Trim(s.Dir, "/"), name)

	body, err := json.Marshal(githubPutRequest{
		Message: fmt.Sprintf("Upload image: %s", name),
		Content: base64.StdEncoding.EncodeToString(a.Data),
		Branch:  branch,
	})
	if err != nil {
		return Uploaded{}, remote.NewValidationError(githubService, fmt.Sprintf("failed to encode request: %v", err))
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s", strings.TrimRight(s.APIBase, "/"), s.Owner, s.Repo, filePath)

	err = s.Retry.Do(ctx, func(ctx context.Context) error {
		return s.putAttempt(ctx, endpoint, body)
	})
	if err != nil {
		return Uploaded{}, err
	}

	rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", strings.TrimRight(s.RawBase, "/"), s.Owner, s.Repo, branch, filePath)
	logging.Debug("Asset committed", zap.String("path", filePath), zap.String("url", rawURL))
	return Uploaded{URL: rawURL, Name: name}, nil
}

func (s *GitHubStore) putAttempt(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return remote.NewNetworkError(githubService, "failed to create PUT request", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return remote.NewNetworkError(githubService, "PUT request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := remote.CheckResponse(githubService, resp); err != nil {
		return err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return remote.NewNetworkError(githubService, "failed to read response body", err)
	}
	var parsed githubPutResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return remote.NewParseError(githubService, "failed to parse JSON response", err)
	}
	return nil
}
