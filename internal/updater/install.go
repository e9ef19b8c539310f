package updater

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"

	update "github.com/inconshreveable/go-update"
)

// ChecksumsAsset is the release file listing "<sha256>  <asset>" lines.
const ChecksumsAsset = "checksums.txt"

// Binary names an installable program of the release.
type Binary string

// Binaries shipped in each release.
const (
	CLI    Binary = "easycue"
	Daemon Binary = "easycued"
)

// AssetName returns the release asset for b on goos/goarch.
func (b Binary) AssetName(goos, goarch string) string {
	name := fmt.Sprintf("%s-%s-%s", b, goos, goarch)
	if goos == "windows" {
		name += ".exe"
	}
	return name
}

// Target is one binary to replace on disk.
type Target struct {
	Binary Binary
	Path   string
	GOOS   string
	GOARCH string
}

// Install downloads the asset for t from rel and swaps it in at t.Path.
// When the release publishes checksums the download is verified before the
// old binary is touched; a failed swap is rolled back.
func (c *Client) Install(ctx context.Context, rel *Release, t Target) error {
	name := t.Binary.AssetName(t.GOOS, t.GOARCH)
	asset := rel.Asset(name)
	if asset == nil {
		return fmt.Errorf("release %s has no %s", rel.Tag, name)
	}

	opts := update.Options{TargetPath: t.Path}
	if err := opts.CheckPermissions(); err != nil {
		return fmt.Errorf("cannot replace %s: %w", t.Path, err)
	}

	sums, err := c.checksums(ctx, rel)
	if err != nil {
		return err
	}
	if sums != nil {
		sum, ok := sums[name]
		if !ok {
			return fmt.Errorf("%s does not list %s", ChecksumsAsset, name)
		}
		opts.Checksum = sum
	}

	body, err := c.download(ctx, asset.DownloadURL)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", name, err)
	}
	defer body.Close()

	if err := update.Apply(body, opts); err != nil {
		if rerr := update.RollbackError(err); rerr != nil {
			return fmt.Errorf("failed to install %s and roll back (%v): %w", t.Path, rerr, err)
		}
		return fmt.Errorf("failed to install %s: %w", t.Path, err)
	}
	return nil
}

// checksums returns the parsed checksums file, or nil if the release has none.
func (c *Client) checksums(ctx context.Context, rel *Release) (map[string][]byte, error) {
	asset := rel.Asset(ChecksumsAsset)
	if asset == nil {
		return nil, nil
	}
	body, err := c.download(ctx, asset.DownloadURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", ChecksumsAsset, err)
	}
	defer body.Close()
	return parseChecksums(body)
}

func parseChecksums(r io.Reader) (map[string][]byte, error) {
	sums := make(map[string][]byte)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed checksum line %q", sc.Text())
		}
		sum, err := hex.DecodeString(fields[0])
		if err != nil {
			return nil, fmt.Errorf("malformed checksum for %s: %w", fields[1], err)
		}
		sums[strings.TrimPrefix(fields[1], "*")] = sum
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checksums: %w", err)
	}
	return sums, nil
}

func (c *Client) download(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "easycue/"+c.Current)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download returned %s", resp.Status)
	}
	return resp.Body, nil
}
