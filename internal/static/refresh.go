// Package static keeps the monthly trip files on disk up to date by
// downloading the published dataset archive when it is missing or stale.
package static

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// ManifestName is written next to the extracted files after a refresh
const ManifestName = "manifest.json"

// GeneratorVersion is bumped when the extraction layout changes so existing
// data directories are refreshed even if their manifest is recent.
const GeneratorVersion = "1"

var monthFilePattern = regexp.MustCompile(`^OD_\d{4}-\d{2}\.csv$`)

// Manifest records when and from where the data directory was populated
type Manifest struct {
	UpdatedAt        string   `json:"updated_at"`
	GeneratedAt      string   `json:"generated_at,omitempty"`
	SourceURL        string   `json:"source_url"`
	Files            []string `json:"files"`
	GeneratorVersion string   `json:"generator_version,omitempty"`
}

// Refresher downloads and unpacks the trip archive
type Refresher struct {
	ArchiveURL string
	DataDir    string
	MaxAgeDays int
	Client     *http.Client
	Logger     *zap.Logger
}

// RefreshIfStale downloads the archive when the manifest in DataDir is
// missing, unreadable, older than MaxAgeDays or from another generator version.
// It is a no-op without an ArchiveURL.
func (r *Refresher) RefreshIfStale(ctx context.Context) error {
	if r.ArchiveURL == "" {
		r.Logger.Debug("no dataset archive configured, skipping refresh")
		return nil
	}

	manifestPath := filepath.Join(r.DataDir, ManifestName)
	if !isStaleOrMissing(manifestPath, r.MaxAgeDays) && getStoredGeneratorVersion(manifestPath) == GeneratorVersion {
		r.Logger.Info("trip data is fresh, skipping refresh", zap.String("dir", r.DataDir))
		return nil
	}

	if err := os.MkdirAll(r.DataDir, 0755); err != nil {
		return err
	}

	zipPath := filepath.Join(r.DataDir, "archive.zip.partial")
	defer os.Remove(zipPath)

	r.Logger.Info("downloading trip archive", zap.String("url", r.ArchiveURL))
	if err := r.download(ctx, zipPath); err != nil {
		return err
	}

	files, err := extractMonthFiles(zipPath, r.DataDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("archive %s contains no OD_<year>-<month>.csv files", r.ArchiveURL)
	}

	manifest := Manifest{
		UpdatedAt:        time.Now().UTC().Format(time.RFC3339),
		SourceURL:        r.ArchiveURL,
		Files:            files,
		GeneratorVersion: GeneratorVersion,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	r.Logger.Info("trip data refreshed", zap.Int("files", len(files)))
	return nil
}

func (r *Refresher) download(ctx context.Context, dest string) error {
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.ArchiveURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download archive: status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to save archive: %w", err)
	}
	return out.Close()
}

// extractMonthFiles copies every OD_<year>-<month>.csv entry, wherever it
// sits inside the archive, flat into dir. Other entries are ignored.
func extractMonthFiles(zipPath, dir string) ([]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer zr.Close()

	var files []string
	for _, f := range zr.File {
		name := filepath.Base(f.Name)
		if f.FileInfo().IsDir() || !monthFilePattern.MatchString(name) {
			continue
		}
		if err := extractFile(f, filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
		files = append(files, name)
	}
	return files, nil
}

func extractFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func isStaleOrMissing(manifestPath string, maxAgeDays int) bool {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return true
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return true
	}

	stamp := manifest.UpdatedAt
	if stamp == "" {
		stamp = manifest.GeneratedAt
	}
	updatedAt, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return true
	}

	return time.Since(updatedAt) > time.Duration(maxAgeDays)*24*time.Hour
}

func getStoredGeneratorVersion(manifestPath string) string {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return ""
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	return manifest.GeneratorVersion
}
