package store

import (
	"context"
	"fmt"
	"os"
	"time"
)

// RecordCachedImage registers a downloaded image file in the cache
// bookkeeping table, updating the access time if already present
func (s *Store) RecordCachedImage(ctx context.Context, path string, sizeBytes int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO image_cache (path, size_bytes, last_accessed)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size_bytes = excluded.size_bytes,
			last_accessed = excluded.last_accessed
	`, path, sizeBytes, time.Now())
	if err != nil {
		return fmt.Errorf("record cached image: %w", err)
	}
	return nil
}

// TouchCachedImage updates the access time of a cached image
func (s *Store) TouchCachedImage(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE image_cache SET last_accessed = ? WHERE path = ?",
		time.Now(), path,
	)
	if err != nil {
		return fmt.Errorf("touch cached image: %w", err)
	}
	return nil
}

// ImageCacheSize returns the total size of all tracked image files
func (s *Store) ImageCacheSize(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(size_bytes), 0) FROM image_cache",
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("image cache size: %w", err)
	}
	return total, nil
}

// PruneImageCache evicts least-recently-accessed images until the cache
// fits within budgetBytes. Evicted files are removed from disk; a file
// that is already gone is still dropped from the bookkeeping. Returns
// the paths that were evicted.
func (s *Store) PruneImageCache(ctx context.Context, budgetBytes int64) ([]string, error) {
	total, err := s.ImageCacheSize(ctx)
	if err != nil {
		return nil, err
	}
	if total <= budgetBytes {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT path, size_bytes FROM image_cache ORDER BY last_accessed",
	)
	if err != nil {
		return nil, fmt.Errorf("list cached images: %w", err)
	}
	defer rows.Close()

	var evicted []string
	for rows.Next() && total > budgetBytes {
		var path string
		var size int64
		if err := rows.Scan(&path, &size); err != nil {
			return evicted, fmt.Errorf("scan cached image: %w", err)
		}
		evicted = append(evicted, path)
		total -= size
	}
	if err := rows.Err(); err != nil {
		return evicted, err
	}
	rows.Close()

	for _, path := range evicted {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return evicted, fmt.Errorf("remove cached image: %w", err)
		}
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM image_cache WHERE path = ?", path); err != nil {
			return evicted, fmt.Errorf("evict cached image: %w", err)
		}
	}

	return evicted, nil
}
