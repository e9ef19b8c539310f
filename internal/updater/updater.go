// Package updater finds newer EasyCue releases on GitHub and installs the
// easycue and easycued binaries from them.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/easycue/easycue/internal/buildinfo"
	"github.com/easycue/easycue/internal/models"
)

// DefaultReleasesURL is the GitHub endpoint for the latest release.
const DefaultReleasesURL = "https://api.github.com/repos/easycue/easycue/releases/latest"

// Check frequencies accepted in the updates settings.
const (
	EveryLaunch = "every_launch"
	Daily       = "daily"
	Weekly      = "weekly"
)

// Release is the subset of a GitHub release the updater reads.
type Release struct {
	Tag    string  `json:"tag_name"`
	URL    string  `json:"html_url"`
	Assets []Asset `json:"assets"`
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
	Size        int64  `json:"size"`
}

// Asset returns the asset called name, or nil.
func (r *Release) Asset(name string) *Asset {
	for i := range r.Assets {
		if r.Assets[i].Name == name {
			return &r.Assets[i]
		}
	}
	return nil
}

// Version returns the release tag without its "v" prefix.
func (r *Release) Version() string {
	return strings.TrimPrefix(r.Tag, "v")
}

// Result is the outcome of comparing the running build with the latest release.
type Result struct {
	Available bool
	Current   string
	Latest    string
	Release   *Release // nil when the repository has no releases
}

// Client talks to the GitHub releases API.
type Client struct {
	ReleasesURL string
	HTTP        *http.Client
	Current     string // running version, e.g. "1.2.0" or "dev"
}

// NewClient returns a client for the public release feed and this build.
// Requests are bounded by the caller's context.
func NewClient() *Client {
	return &Client{
		ReleasesURL: DefaultReleasesURL,
		HTTP:        &http.Client{},
		Current:     buildinfo.Version,
	}
}

// Check fetches the latest release and reports whether it is newer.
func (c *Client) Check(ctx context.Context) (*Result, error) {
	rel, err := c.latest(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{Current: c.Current, Release: rel}
	if rel == nil {
		return res, nil
	}
	res.Latest = rel.Version()
	if !semver.IsValid(canonical(res.Latest)) {
		return nil, fmt.Errorf("release tag %q is not a semantic version", rel.Tag)
	}
	res.Available = Newer(c.Current, res.Latest)
	return res, nil
}

func (c *Client) latest(ctx context.Context) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ReleasesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "easycue/"+c.Current)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("release feed returned %s", resp.Status)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}
	return &rel, nil
}

// Newer reports whether latest is a newer version than current. A current
// version that is not semver, such as a "dev" build, is always older.
func Newer(current, latest string) bool {
	l := canonical(latest)
	if !semver.IsValid(l) {
		return false
	}
	cur := canonical(current)
	if !semver.IsValid(cur) {
		return true
	}
	return semver.Compare(cur, l) < 0
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Due reports whether the updates settings call for a check at now.
func Due(cfg models.UpdatesConfig, now time.Time) bool {
	if cfg.LastChecked == nil {
		return true
	}
	since := now.Sub(*cfg.LastChecked)
	switch cfg.CheckFrequency {
	case Daily:
		return since >= 24*time.Hour
	case Weekly:
		return since >= 7*24*time.Hour
	default:
		return true
	}
}
