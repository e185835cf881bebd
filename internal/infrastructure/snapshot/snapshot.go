// Package snapshot stores fetched article batches as JSON files so they can be
// re-processed offline without calling the search API again.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"NewsTracker/internal/domain"
	"NewsTracker/internal/validation"
)

// Save writes batch to path with two-space indentation, creating parent directories.
func Save(path string, batch domain.ArticleBatch) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	raw, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load reads and validates a batch previously written by Save.
func Load(path string) (domain.ArticleBatch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.ArticleBatch{}, fmt.Errorf("read snapshot: %w", err)
	}

	var batch domain.ArticleBatch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return domain.ArticleBatch{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	if err := validation.New().Struct("snapshot", batch); err != nil {
		return domain.ArticleBatch{}, err
	}
	return batch, nil
}
