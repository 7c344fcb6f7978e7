package pixelcache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Skryldev/pixelcache/core"
	apperrors "github.com/Skryldev/pixelcache/errors"
	"github.com/Skryldev/pixelcache/fingerprint"
)

// ── HashableList ──────────────────────────────────────────────────────────────

// HashableList is an ordered, immutable sequence of images with a lazily
// computed aggregate fingerprint.  The aggregate is order-sensitive and
// carries a type discriminator, so a list never collides with a dict over
// the same members.
type HashableList struct {
	eng   *Engine
	items []*HashableImage

	mu   sync.Mutex
	fpOK bool
	fp   fingerprint.Fingerprint
}

// NewList builds a list container over the given images.
func (e *Engine) NewList(imgs ...*HashableImage) *HashableList {
	items := make([]*HashableImage, len(imgs))
	copy(items, imgs)
	return &HashableList{eng: e, items: items}
}

// Len returns the number of members.
func (l *HashableList) Len() int { return len(l.items) }

// At returns the i-th member.
func (l *HashableList) At(i int) *HashableImage { return l.items[i] }

// Images returns a copy of the member slice.
func (l *HashableList) Images() []*HashableImage {
	out := make([]*HashableImage, len(l.items))
	copy(out, l.items)
	return out
}

// Fingerprint returns the aggregate digest, computed once from the
// members' digests.
func (l *HashableList) Fingerprint() (fingerprint.Fingerprint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fpOK {
		return l.fp, nil
	}
	children := make([]fingerprint.Fingerprint, len(l.items))
	for i, img := range l.items {
		fp, err := img.Fingerprint()
		if err != nil {
			return fingerprint.Fingerprint{}, err
		}
		children[i] = fp
	}
	l.fp = fingerprint.OfList(children)
	l.fpOK = true
	return l.fp, nil
}

// Grid assembles the members into a cols-wide grid image, row-major.
// All members must share one size.  The result is memoized under the
// aggregate fingerprint plus the column count.
func (l *HashableList) Grid(ctx context.Context, cols int) (*HashableImage, error) {
	if len(l.items) == 0 || cols <= 0 {
		return nil, apperrors.New(apperrors.CategoryValidation, "grid",
			fmt.Errorf("%w: %d tiles, %d columns", apperrors.ErrInvalidParameter, len(l.items), cols))
	}
	tileSize := l.items[0].Size()
	for i, img := range l.items[1:] {
		if img.Size() != tileSize {
			return nil, apperrors.New(apperrors.CategoryValidation, "grid",
				fmt.Errorf("%w: tile %d is %s, want %s",
					apperrors.ErrSizeMismatch, i+1, img.Size(), tileSize))
		}
	}

	aggFP, err := l.Fingerprint()
	if err != nil {
		return nil, err
	}
	key, err := fingerprint.Combine(aggFP, "grid", map[string]any{"cols": cols})
	if err != nil {
		return nil, err
	}

	v, err := l.eng.cache.GetOrCompute(key, func() (any, error) {
		bufs := make([]*core.PixelBuffer, len(l.items))
		for i, img := range l.items {
			buf, err := img.canonical()
			if err != nil {
				return nil, err
			}
			bufs[i] = buf
		}
		out, err := l.eng.ops.Grid(ctx, bufs, cols)
		if err != nil {
			return nil, apperrors.New(apperrors.CategoryCompute, "grid",
				fmt.Errorf("%w: %w", apperrors.ErrComputationFailed, err))
		}
		adapter, ok := l.eng.reg.AdapterFor(l.items[0].Kind())
		if !ok {
			return nil, apperrors.New(apperrors.CategoryBackend, "grid",
				fmt.Errorf("%w: %s", apperrors.ErrUnsupportedBackend, l.items[0].Kind()))
		}
		backing, err := adapter.FromCanonical(out)
		if err != nil {
			return nil, err
		}
		return l.eng.newImage(backing), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*HashableImage), nil
}

// Map applies fn to every member concurrently and returns a new list in
// the original order.  The first failure cancels the remaining work.
func (l *HashableList) Map(ctx context.Context, fn func(context.Context, *HashableImage) (*HashableImage, error)) (*HashableList, error) {
	out := make([]*HashableImage, len(l.items))
	g, ctx := errgroup.WithContext(ctx)
	for i, img := range l.items {
		i, img := i, img
		g.Go(func() error {
			result, err := fn(ctx, img)
			if err != nil {
				return err
			}
			out[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return l.eng.NewList(out...), nil
}

// ── HashableDict ──────────────────────────────────────────────────────────────

// HashableDict is a string-keyed, immutable mapping of images.  Its
// aggregate fingerprint is key-sensitive but insertion-order-insensitive.
type HashableDict struct {
	eng   *Engine
	items map[string]*HashableImage

	mu   sync.Mutex
	fpOK bool
	fp   fingerprint.Fingerprint
}

// NewDict builds a dict container, copying the map.
func (e *Engine) NewDict(m map[string]*HashableImage) *HashableDict {
	items := make(map[string]*HashableImage, len(m))
	for k, v := range m {
		items[k] = v
	}
	return &HashableDict{eng: e, items: items}
}

// Len returns the number of entries.
func (d *HashableDict) Len() int { return len(d.items) }

// Get returns the image stored under key.
func (d *HashableDict) Get(key string) (*HashableImage, bool) {
	img, ok := d.items[key]
	return img, ok
}

// Keys returns the keys in sorted order.
func (d *HashableDict) Keys() []string {
	keys := make([]string, 0, len(d.items))
	for k := range d.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fingerprint returns the aggregate digest, computed once.
func (d *HashableDict) Fingerprint() (fingerprint.Fingerprint, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fpOK {
		return d.fp, nil
	}
	children := make(map[string]fingerprint.Fingerprint, len(d.items))
	for k, img := range d.items {
		fp, err := img.Fingerprint()
		if err != nil {
			return fingerprint.Fingerprint{}, err
		}
		children[k] = fp
	}
	d.fp = fingerprint.OfDict(children)
	d.fpOK = true
	return d.fp, nil
}
