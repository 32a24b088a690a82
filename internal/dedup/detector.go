// Package dedup decides when the screen has stopped changing by comparing
// perceptual fingerprints of consecutive frames.
package dedup

import (
	"context"
	"image"
	"log/slog"
	"sync"
)

// DefaultThreshold tolerates near-zero perceptual noise only (a blinking
// cursor or clock), not real content change.
const DefaultThreshold = 0.05

// Fingerprint is a compact perceptual feature vector derived from a frame.
// Opaque to callers; used only for distance computation.
type Fingerprint interface {
	// Distance returns a non-negative scalar: 0 means perceptually
	// identical, larger means more different.
	Distance(other Fingerprint) (float64, error)
}

// Fingerprinter derives a Fingerprint from a raw frame. Extraction is the
// dominant cost of each duplicate check.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, frame image.Image) (Fingerprint, error)
}

// Detector is a stateful duplicate-frame detector. It retains exactly one
// fingerprint — the last processed frame — and compares each incoming frame
// against it. It never accumulates history.
//
// A Detector supports one duplicate check in flight at a time; issuing a
// second IsDuplicate before the first resolves leaves the baseline in an
// undefined order. The capture loop's await-then-tick discipline upholds
// this. Reset and SetThreshold are safe to call at any time.
type Detector struct {
	fp Fingerprinter

	mu        sync.Mutex
	last      Fingerprint
	threshold float64
}

// New creates a detector with the default threshold.
func New(fp Fingerprinter) *Detector {
	return &Detector{fp: fp, threshold: DefaultThreshold}
}

// Reset clears the stored baseline so the next frame is unconditionally
// treated as new. The threshold is untouched. Idempotent.
func (d *Detector) Reset() {
	d.mu.Lock()
	d.last = nil
	d.mu.Unlock()
}

// SetThreshold replaces the duplicate cutoff for subsequent comparisons.
// The value is not validated here; the settings layer clamps to a sane
// range before calling.
func (d *Detector) SetThreshold(v float64) {
	d.mu.Lock()
	d.threshold = v
	d.mu.Unlock()
}

// Threshold returns the current cutoff.
func (d *Detector) Threshold() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.threshold
}

// IsDuplicate reports whether frame is perceptually identical to the
// previously processed frame, within the current threshold (inclusive).
//
// The first frame after construction or Reset is never a duplicate; it
// becomes the baseline. Every successfully fingerprinted frame replaces the
// baseline regardless of verdict, so comparisons always run against the
// immediately preceding frame. That way the detector notices when motion
// stops even after the sequence has drifted far from where it started.
//
// Failures never surface to the caller: a frame that cannot be
// fingerprinted reports "not a duplicate" and leaves the baseline alone; a
// comparison failure reports "not a duplicate" but still installs the new
// fingerprint. A broken check must never halt a capture run.
func (d *Detector) IsDuplicate(ctx context.Context, frame image.Image) bool {
	// Extraction runs outside the lock; it is the expensive part.
	fp, err := d.fp.Fingerprint(ctx, frame)
	if err != nil {
		slog.Debug("fingerprint extraction failed", "error", err)
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.last == nil {
		d.last = fp
		return false
	}

	dist, err := d.last.Distance(fp)
	d.last = fp
	if err != nil {
		slog.Debug("fingerprint comparison failed", "error", err)
		return false
	}

	dup := dist <= d.threshold
	slog.Debug("duplicate check", "distance", dist, "threshold", d.threshold, "duplicate", dup)
	return dup
}
