package dedup

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"testing"
)

// fakeFingerprint places frames on a number line; distance is the gap.
type fakeFingerprint struct {
	pos float64
}

func (f *fakeFingerprint) Distance(other Fingerprint) (float64, error) {
	o, ok := other.(*fakeFingerprint)
	if !ok {
		return 0, fmt.Errorf("incompatible fingerprint type %T", other)
	}
	return math.Abs(f.pos - o.pos), nil
}

// brokenFingerprint fails every comparison it initiates.
type brokenFingerprint struct{}

func (brokenFingerprint) Distance(Fingerprint) (float64, error) {
	return 0, errors.New("comparison failed")
}

// scriptedFingerprinter returns queued fingerprints (or errors) in order.
type scriptedFingerprinter struct {
	results []Fingerprint
	errs    []error
	calls   int
}

func (s *scriptedFingerprinter) Fingerprint(_ context.Context, _ image.Image) (Fingerprint, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.results[i], nil
}

func at(positions ...float64) *scriptedFingerprinter {
	fps := make([]Fingerprint, len(positions))
	for i, p := range positions {
		fps[i] = &fakeFingerprint{pos: p}
	}
	return &scriptedFingerprinter{results: fps}
}

func frame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 1, 1))
}

func TestFirstFrameNeverDuplicate(t *testing.T) {
	d := New(at(0))

	if d.IsDuplicate(context.Background(), frame()) {
		t.Error("first frame should not be a duplicate")
	}
}

func TestIdenticalFrameIsDuplicate(t *testing.T) {
	d := New(at(0.3, 0.3))

	if d.IsDuplicate(context.Background(), frame()) {
		t.Error("first frame should not be a duplicate")
	}
	if !d.IsDuplicate(context.Background(), frame()) {
		t.Error("identical frame should be a duplicate")
	}
}

func TestComparesAgainstPrecedingFrame(t *testing.T) {
	// F1 at 0, F2 at 0.2 (far from F1), F3 at 0.21 (close to F2 only).
	d := New(at(0, 0.2, 0.21))
	d.SetThreshold(0.05)
	ctx := context.Background()

	if d.IsDuplicate(ctx, frame()) {
		t.Error("F1 should not be a duplicate")
	}
	if d.IsDuplicate(ctx, frame()) {
		t.Error("F2 should not be a duplicate of F1")
	}
	if !d.IsDuplicate(ctx, frame()) {
		t.Error("F3 should be a duplicate of F2, not compared against F1")
	}
}

func TestSetThresholdAffectsLaterComparisonsOnly(t *testing.T) {
	d := New(at(0, 0.02))
	d.SetThreshold(0.05)
	ctx := context.Background()

	d.IsDuplicate(ctx, frame()) // baseline F1
	d.SetThreshold(0.0)
	if d.IsDuplicate(ctx, frame()) {
		t.Error("distance 0.02 should not be a duplicate under threshold 0")
	}
}

func TestResetClearsBaseline(t *testing.T) {
	d := New(at(0.5, 0.5))
	ctx := context.Background()

	d.IsDuplicate(ctx, frame())
	d.Reset()
	if d.IsDuplicate(ctx, frame()) {
		t.Error("frame after reset should not be a duplicate, however similar")
	}
}

func TestResetKeepsThreshold(t *testing.T) {
	d := New(at(0))
	d.SetThreshold(0.2)

	d.Reset()
	if d.Threshold() != 0.2 {
		t.Errorf("Threshold() = %v after reset, want 0.2", d.Threshold())
	}
}

func TestResetBeforeFirstFrame(t *testing.T) {
	d := New(at(0))

	d.Reset() // no-op, must not panic
	if d.IsDuplicate(context.Background(), frame()) {
		t.Error("first frame should not be a duplicate")
	}
}

func TestBoundaryDistanceIsDuplicate(t *testing.T) {
	d := New(at(0, 0.05))
	d.SetThreshold(0.05)
	ctx := context.Background()

	d.IsDuplicate(ctx, frame())
	if !d.IsDuplicate(ctx, frame()) {
		t.Error("distance exactly at threshold should count as duplicate")
	}
}

func TestRollingBaselineScenario(t *testing.T) {
	// F1 at 0, F2 at 0.05 (dup), F3 at 0.25 (0.2 from F2, not dup),
	// F4 at 0.29 (0.04 from F3, dup).
	d := New(at(0, 0.05, 0.25, 0.29))
	d.SetThreshold(0.05)
	ctx := context.Background()

	if d.IsDuplicate(ctx, frame()) {
		t.Error("F1: want not duplicate")
	}
	if !d.IsDuplicate(ctx, frame()) {
		t.Error("F2: want duplicate at threshold boundary")
	}
	if d.IsDuplicate(ctx, frame()) {
		t.Error("F3: want not duplicate")
	}
	if !d.IsDuplicate(ctx, frame()) {
		t.Error("F4: want duplicate against F3 baseline")
	}
}

func TestExtractionFailureKeepsBaseline(t *testing.T) {
	// F2 extraction fails; F3 at 0.01 must be compared against F1, not F2.
	fp := &scriptedFingerprinter{
		results: []Fingerprint{&fakeFingerprint{pos: 0}, nil, &fakeFingerprint{pos: 0.01}},
		errs:    []error{nil, errors.New("extraction failed"), nil},
	}
	d := New(fp)
	d.SetThreshold(0.05)
	ctx := context.Background()

	if d.IsDuplicate(ctx, frame()) {
		t.Error("F1: want not duplicate")
	}
	if d.IsDuplicate(ctx, frame()) {
		t.Error("F2: extraction failure must report not duplicate")
	}
	if !d.IsDuplicate(ctx, frame()) {
		t.Error("F3: want duplicate of F1, the surviving baseline")
	}
}

func TestComparisonFailureReplacesBaseline(t *testing.T) {
	// F1's fingerprint cannot be compared; the F2 check fails open but F2
	// still becomes the baseline, so F3 compares cleanly against it.
	fp := &scriptedFingerprinter{results: []Fingerprint{
		brokenFingerprint{},
		&fakeFingerprint{pos: 0.4},
		&fakeFingerprint{pos: 0.42},
	}}
	d := New(fp)
	d.SetThreshold(0.05)
	ctx := context.Background()

	if d.IsDuplicate(ctx, frame()) {
		t.Error("F1: want not duplicate")
	}
	if d.IsDuplicate(ctx, frame()) {
		t.Error("F2: comparison failure must report not duplicate")
	}
	if !d.IsDuplicate(ctx, frame()) {
		t.Error("F3: want duplicate of F2, installed despite comparison failure")
	}
}

func TestDefaultThreshold(t *testing.T) {
	d := New(at(0))
	if d.Threshold() != DefaultThreshold {
		t.Errorf("Threshold() = %v, want %v", d.Threshold(), DefaultThreshold)
	}
}
