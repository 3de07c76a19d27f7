// Package exclusionstore persists the exclusion registry across process
// restarts. The on-disk format is UTF-8 text, one canonical identifier per
// line, sorted ascending, no header - reproducible diffs by construction.
package exclusionstore

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/annolab/vidmark/internal/domain/exclusion"
	"github.com/annolab/vidmark/internal/domain/stimulus"
)

// ErrNotFound indicates no persisted exclusion file exists at the path.
// Callers treat this as "run the probe", not as a failure.
var ErrNotFound = errors.New("exclusion file not found")

// Load deserializes a persisted exclusion registry.
func Load(path string) (*exclusion.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening exclusion file: %w", err)
	}
	defer f.Close()

	var ids []stimulus.ID

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ids = append(ids, stimulus.Normalize(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading exclusion file: %w", err)
	}

	return exclusion.NewRegistry(ids...), nil
}

// Save serializes the registry atomically so a crash mid-write never leaves
// a truncated file behind.
func Save(path string, reg *exclusion.Registry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating exclusion dir: %w", err)
		}
	}

	var b strings.Builder
	for _, id := range reg.IDs() {
		b.WriteString(string(id))
		b.WriteByte('\n')
	}

	if err := atomic.WriteFile(path, strings.NewReader(b.String())); err != nil {
		return fmt.Errorf("writing exclusion file: %w", err)
	}

	return nil
}
