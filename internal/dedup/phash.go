package dedup

import (
	"context"
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
	"github.com/nfnt/resize"
)

const (
	// 16x16 DCT grid, 256-bit hash. Finer than the default 8x8 so small
	// content changes still move the distance.
	hashWidth  = 16
	hashHeight = 16

	// Raw captures are display-sized; shrink before the DCT.
	maxHashInputWidth = 512
)

// PerceptionHasher fingerprints frames with a DCT perceptual hash.
// Distances are Hamming distances normalized to [0, 1].
type PerceptionHasher struct{}

type phashFingerprint struct {
	hash *goimagehash.ExtImageHash
}

// Fingerprint derives a perceptual hash of frame.
func (p *PerceptionHasher) Fingerprint(ctx context.Context, frame image.Image) (Fingerprint, error) {
	if frame == nil {
		return nil, fmt.Errorf("nil frame")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := frame.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("empty frame %dx%d", b.Dx(), b.Dy())
	}
	if b.Dx() > maxHashInputWidth {
		frame = resize.Resize(maxHashInputWidth, 0, frame, resize.Bilinear)
	}

	hash, err := goimagehash.ExtPerceptionHash(frame, hashWidth, hashHeight)
	if err != nil {
		return nil, fmt.Errorf("perception hash: %w", err)
	}
	return &phashFingerprint{hash: hash}, nil
}

func (f *phashFingerprint) Distance(other Fingerprint) (float64, error) {
	o, ok := other.(*phashFingerprint)
	if !ok {
		return 0, fmt.Errorf("incompatible fingerprint type %T", other)
	}
	bits, err := f.hash.Distance(o.hash)
	if err != nil {
		return 0, err
	}
	return float64(bits) / float64(f.hash.Bits()), nil
}
