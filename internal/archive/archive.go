// Package archive rotates the media directory out of the way so a new
// study round starts with a clean slate, while keeping the card database
// consistent with the moved files.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/feitsma/stapel/internal/card"
)

// CardStore is the slice of the card database the archiver needs to
// reconcile cards whose media just moved.
type CardStore interface {
	AllCards(ctx context.Context) ([]*card.Card, error)
	SaveCard(ctx context.Context, c *card.Card) error
}

// Result describes a completed rotation.
type Result struct {
	ArchivePath string
	Reconciled  int
}

// Rotate moves mediaDir into a sibling archive directory stamped with the
// current time, then reconciles every card that pointed into it: image
// attachments are dropped and regained on the next run, reference audio is
// marked expired so regeneration picks it up, and practice recordings are
// re-pointed at their archived location so the history stays replayable.
func Rotate(ctx context.Context, mediaDir string, store CardStore) (*Result, error) {
	if _, err := os.Stat(mediaDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("media directory does not exist: %s", mediaDir)
	}

	archiveDir := filepath.Join(filepath.Dir(mediaDir), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := filepath.Base(mediaDir)
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, time.Now().Format("20060102-150405")))
	if _, err := os.Stat(archivePath); err == nil {
		// Same-second rotation, disambiguate with microseconds
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, time.Now().Format("20060102-150405.000000")))
	}

	if err := os.Rename(mediaDir, archivePath); err != nil {
		return nil, fmt.Errorf("failed to archive media directory: %w", err)
	}

	reconciled, err := reconcileCards(ctx, store, mediaDir, archivePath)
	if err != nil {
		return &Result{ArchivePath: archivePath, Reconciled: reconciled}, err
	}

	return &Result{ArchivePath: archivePath, Reconciled: reconciled}, nil
}

func reconcileCards(ctx context.Context, store CardStore, mediaDir, archivePath string) (int, error) {
	if store == nil {
		return 0, nil
	}

	cards, err := store.AllCards(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list cards: %w", err)
	}

	prefix := mediaDir + string(os.PathSeparator)
	movedAt := time.Now()

	reconciled := 0
	for _, c := range cards {
		changed := false

		if c.Image != nil && strings.HasPrefix(c.Image.CachedPath, prefix) {
			c.Image = nil
			changed = true
		}

		if c.Audio != nil {
			if strings.HasPrefix(c.Audio.ReferenceMP3, prefix) {
				c.Audio.ReferenceMP3 = ""
				expiry := movedAt
				c.Audio.AudioExpiresAt = &expiry
				changed = true
			}
			for i, rec := range c.Audio.UserRecordings {
				if strings.HasPrefix(rec, prefix) {
					c.Audio.UserRecordings[i] = filepath.Join(archivePath, strings.TrimPrefix(rec, prefix))
					changed = true
				}
			}
		}

		if !changed {
			continue
		}
		if err := store.SaveCard(ctx, c); err != nil {
			return reconciled, fmt.Errorf("failed to reconcile card %s: %w", c.ID, err)
		}
		reconciled++
	}

	return reconciled, nil
}
