package pixelcache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"os"

	// Register stdlib and webp decoders for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/Skryldev/pixelcache/adapters/bitmap"
	"github.com/Skryldev/pixelcache/core"
	apperrors "github.com/Skryldev/pixelcache/errors"
	"github.com/Skryldev/pixelcache/utils"
)

// FromImage wraps a decoded image.Image, copying the pixels into a bitmap
// backing.
func (e *Engine) FromImage(src image.Image) *HashableImage {
	return e.newImage(bitmap.FromImage(src))
}

// FromBacking wraps an existing backing representation.  The backing's
// kind must have a registered adapter.
func (e *Engine) FromBacking(b core.Backing) (*HashableImage, error) {
	if _, ok := e.reg.AdapterFor(b.Kind()); !ok {
		return nil, apperrors.New(apperrors.CategoryBackend, "from_backing",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedBackend, b.Kind()))
	}
	return e.newImage(b), nil
}

// FromBytes decodes an encoded image (PNG, JPEG, GIF, WebP) from data.
func (e *Engine) FromBytes(data []byte) (*HashableImage, error) {
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, "from_bytes",
			apperrors.ErrDecodeFailed)
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.New(apperrors.CategoryDecode, "from_bytes",
			fmt.Errorf("%w (%s): %v", apperrors.ErrDecodeFailed, utils.DetectFormat(data), err))
	}
	return e.FromImage(decoded), nil
}

// FromPath loads and decodes an image file.
func (e *Engine) FromPath(path string) (*HashableImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.New(apperrors.CategorySource, "from_path",
			fmt.Errorf("%w: %s: %v", apperrors.ErrSourceNotFound, path, err))
	}
	img, err := e.FromBytes(data)
	if err != nil {
		return nil, err
	}
	e.debugf("pixelcache.load", "path", path, "size", img.Size().String())
	return img, nil
}

// FromURL fetches and decodes an image over HTTP, bounded by the
// configured payload limit and request timeout.
func (e *Engine) FromURL(ctx context.Context, url string) (*HashableImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.New(apperrors.CategorySource, "from_url",
			fmt.Errorf("%w: %s: %v", apperrors.ErrSourceNotFound, url, err))
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, apperrors.New(apperrors.CategorySource, "from_url",
			fmt.Errorf("%w: %s: %v", apperrors.ErrSourceNotFound, url, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.CategorySource, "from_url",
			fmt.Errorf("%w: %s: HTTP %d", apperrors.ErrSourceNotFound, url, resp.StatusCode))
	}

	body := &utils.LimitedReader{R: resp.Body, Max: e.cfg.MaxImageBytes}
	buf, err := utils.DrainReader(ctx, body, e.cfg.ChunkSize)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategorySource, "from_url", err)
	}
	data := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	img, err := e.FromBytes(data)
	if err != nil {
		return nil, err
	}
	e.debugf("pixelcache.fetch", "url", url, "size", img.Size().String())
	return img, nil
}
