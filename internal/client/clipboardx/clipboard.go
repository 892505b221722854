// Package clipboardx copies secrets to the system clipboard and clears them
// again after a delay.
package clipboardx

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
)

// DefaultClearAfter matches how long a copied secret stays available.
const DefaultClearAfter = 12 * time.Second

// Seams over the system clipboard.
var (
	writeAll = clipboard.WriteAll
	readAll  = clipboard.ReadAll
)

// Supported reports whether a clipboard backend is present.
func Supported() bool {
	return !clipboard.Unsupported
}

// CopyTemporarily writes text to the clipboard and clears it after d, unless
// the clipboard was changed in the meantime or ctx ends first. The returned
// channel is closed once the clear attempt is done.
func CopyTemporarily(ctx context.Context, text string, d time.Duration) (<-chan struct{}, error) {
	if err := writeAll(text); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-ctx.Done():
		case <-t.C:
		}
		if cur, err := readAll(); err == nil && cur == text {
			_ = writeAll("")
		}
	}()
	return done, nil
}
