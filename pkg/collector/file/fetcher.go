// Package file implements collector interfaces against a local directory,
// typically a share or drop folder the job host exports its logs into.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/astrobl1904/prtg-custom-sensors/pkg/collector"
)

// Config configures the local fetcher.
type Config struct {
	// BaseDir is the directory all fetched paths are resolved under.
	BaseDir string
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseDir) == "" {
		return fmt.Errorf("base dir is required")
	}
	return nil
}

// Fetcher reads files below a base directory. Paths may be doublestar glob
// patterns; a pattern resolves to its lexically greatest match, which for
// timestamp-suffixed log names is the most recent export.
type Fetcher struct {
	baseDir string
}

// Ensure Fetcher implements the collector interface.
var _ collector.FileFetcher = (*Fetcher)(nil)

// New creates a fetcher rooted at the configured base directory.
func New(cfg Config) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Fetcher{baseDir: filepath.Clean(cfg.BaseDir)}, nil
}

// Close implements collector.FileFetcher; the local fetcher holds no session.
func (f *Fetcher) Close() error { return nil }

// FetchFileLines returns the content of the named file split into lines.
// A path containing glob metacharacters is resolved to the lexically
// greatest match first. A missing file (or a pattern without matches)
// yields collector.ErrFileNotFound.
func (f *Fetcher) FetchFileLines(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, f.wrapError("FetchFileLines", path, err)
	}
	if strings.TrimSpace(path) == "" {
		return nil, f.wrapError("FetchFileLines", path, fmt.Errorf("path is required"))
	}

	rel, err := cleanRelPath(path)
	if err != nil {
		return nil, f.wrapError("FetchFileLines", path, err)
	}

	resolved := rel
	if isGlobPattern(rel) {
		match, err := f.latestMatch(rel)
		if err != nil {
			return nil, err
		}
		resolved = match
	}

	data, err := os.ReadFile(filepath.Join(f.baseDir, filepath.FromSlash(resolved)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, f.wrapError("FetchFileLines", path, collector.ErrFileNotFound)
		}
		return nil, f.wrapError("FetchFileLines", path, err)
	}

	return splitLines(string(data)), nil
}

// latestMatch resolves a glob pattern to its lexically greatest match.
func (f *Fetcher) latestMatch(pattern string) (string, error) {
	matches, err := doublestar.Glob(os.DirFS(f.baseDir), pattern)
	if err != nil {
		return "", f.wrapError("FetchFileLines", pattern, err)
	}
	if len(matches) == 0 {
		return "", f.wrapError("FetchFileLines", pattern, collector.ErrFileNotFound)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

func isGlobPattern(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

// cleanRelPath normalizes a fetch path to a slash-separated path relative
// to the base directory. Prevent path traversal: a path that still points
// above the base directory after cleaning is rejected.
func cleanRelPath(path string) (string, error) {
	rel := strings.TrimPrefix(filepath.ToSlash(path), "/")
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel)))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid file path")
	}
	return clean, nil
}

// splitLines splits file content on line breaks, tolerating CRLF and a
// trailing newline.
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}

func (f *Fetcher) wrapError(op, path string, err error) error {
	return &collector.CollectorError{Op: op, Source: "file", Path: path, Err: err}
}
