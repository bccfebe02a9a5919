package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photo-filters/internal/algorithms"
	"photo-filters/internal/io"
)

const (
	processedSuffix = "_processed"
	outputExt       = ".jpg"
	fallbackBase    = "image"
)

// BaseName is the first underscore-delimited token of the file stem, so
// chained outputs keep the original prefix.
func BaseName(path string) string {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	token, _, _ := strings.Cut(stem, "_")
	if token == "" || token == "." {
		return fallbackBase
	}
	return token
}

// OutputPath builds <dir>/<base>_<filter>_<unix millis>_processed.jpg next to source.
func OutputPath(source string, filter algorithms.Filter, at time.Time) string {
	name := fmt.Sprintf("%s_%s_%d%s%s", BaseName(source), filter, at.UnixMilli(), processedSuffix, outputExt)
	dir := filepath.Dir(source)
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir + name
	}
	return dir + string(filepath.Separator) + name
}

// maxOutputAttempts bounds the timestamp bumps in uniqueOutputPath.
const maxOutputAttempts = 1000

// uniqueOutputPath moves the timestamp forward one millisecond at a time until
// the name is free. Outputs are never overwritten. Stat errors other than
// "not found" and running out of attempts are reported as ErrEncode.
func uniqueOutputPath(source string, filter algorithms.Filter, at time.Time, attempts int) (string, error) {
	for i := 0; i < attempts; i++ {
		path := OutputPath(source, filter, at)
		_, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return path, nil
		case err != nil:
			return "", fmt.Errorf("%w: %v", io.ErrEncode, err)
		}
		at = at.Add(time.Millisecond)
	}
	return "", fmt.Errorf("%w: no free output name for %s after %d attempts", io.ErrEncode, source, attempts)
}

// IsProcessed reports whether path names a file produced by the engine.
func IsProcessed(path string) bool {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasSuffix(stem, processedSuffix)
}

// IsOutputOf reports whether the file name of path encodes filter.
func IsOutputOf(path string, filter algorithms.Filter) bool {
	if filter == "" {
		return false
	}
	return strings.Contains(filepath.Base(path), "_"+string(filter)+"_")
}

// OriginalPath strips everything from the last "_processed" in path. The
// result is only a guess: callers must check that it exists and decodes.
func OriginalPath(path string) (string, bool) {
	if !IsProcessed(path) {
		return "", false
	}
	i := strings.LastIndex(path, processedSuffix)
	if i <= 0 {
		return "", false
	}
	return path[:i], true
}
