// Package installer implements the "install" subcommand: fetching a page
// catalog from a GitHub "user/repo" shorthand, a direct URL, or a local ZIP
// archive, and unpacking it into a destination directory.
package installer

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
)

// DefaultDest is where catalogs land unless the caller overrides it.
const DefaultDest = "~/.robopages/"

// Install resolves source (a "user/repo" shorthand, an http(s) URL, or a
// local .zip path) to a ZIP archive, then extracts it under dest.
func Install(source, dest string) error {
	expandedDest, err := homedir.Expand(dest)
	if err != nil {
		return fmt.Errorf("expanding destination %q: %w", dest, err)
	}
	if err := os.MkdirAll(expandedDest, 0o755); err != nil {
		return fmt.Errorf("creating destination %q: %w", expandedDest, err)
	}

	archivePath, cleanup, err := resolveArchive(source)
	if err != nil {
		return err
	}
	defer cleanup()

	return extractZip(archivePath, expandedDest)
}

// resolveArchive turns source into a local ZIP file path, downloading it
// first if necessary. The returned cleanup func removes any temp file it
// created.
func resolveArchive(source string) (string, func(), error) {
	noop := func() {}

	if strings.HasSuffix(source, ".zip") && !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		if _, err := os.Stat(source); err != nil {
			return "", noop, fmt.Errorf("local archive %q does not exist: %w", source, err)
		}
		return source, noop, nil
	}

	url := source
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		// "user/repo" shorthand resolves to the zip archive of the repo's
		// "main" branch; no other branch name is tried.
		url = fmt.Sprintf("https://github.com/%s/archive/refs/heads/main.zip", source)
	}

	tmp, err := os.CreateTemp("", "robopages-install-*.zip")
	if err != nil {
		return "", noop, fmt.Errorf("creating temp download file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if err := download(url, tmp); err != nil {
		cleanup()
		return "", noop, err
	}

	return tmp.Name(), cleanup, nil
}

func download(url string, dst *os.File) error {
	defer dst.Close()

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: unexpected status %s", url, resp.Status)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("writing downloaded archive: %w", err)
	}
	return nil
}

func extractZip(archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", archivePath, err)
	}
	defer reader.Close()

	for _, f := range reader.File {
		target := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return err
		}
	}

	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating parent directory for %s: %w", target, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening archive entry %s: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("extracting %s: %w", target, err)
	}
	return nil
}
