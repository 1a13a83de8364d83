// Package media provides image content checks used by the integrity scanner
package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// MaxVerifyBytes caps how much of an object is read while decoding.
const MaxVerifyBytes = 64 << 20

// ImageVerifier decodes stored raster images to prove they are readable.
type ImageVerifier struct {
	store repositories.ObjectStore
}

func NewImageVerifier(store repositories.ObjectStore) *ImageVerifier {
	return &ImageVerifier{store: store}
}

// Verify opens key and decodes it as an image. SVG and non-image objects are not
// decoded and always pass.
func (v *ImageVerifier) Verify(ctx context.Context, key, contentType string) error {
	contentType = strings.ToLower(contentType)
	if !strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "image/svg") {
		return nil
	}

	rc, err := v.store.Open(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	r := io.LimitReader(rc, MaxVerifyBytes)
	if strings.HasPrefix(contentType, "image/webp") {
		// webp is decoded directly rather than through image.RegisterFormat
		if _, err := webp.Decode(r); err != nil {
			return fmt.Errorf("corrupt webp image %s: %w", key, err)
		}
		return nil
	}

	if _, err := imaging.Decode(r); err != nil {
		return fmt.Errorf("corrupt image %s: %w", key, err)
	}
	return nil
}
