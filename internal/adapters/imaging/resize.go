// Package imaging writes scaled-down copies of uploaded hotel images.
package imaging

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/domain"
)

var DefaultWidths = []int{1000, 200}

type Resizer struct {
	widths []int
}

func NewResizer(widths ...int) *Resizer {
	if len(widths) == 0 {
		widths = DefaultWidths
	}
	return &Resizer{widths: widths}
}

// VariantPath names the copy of src scaled to width, e.g. a.jpg -> a_200px.jpg.
func VariantPath(src string, width int) string {
	ext := filepath.Ext(src)
	return fmt.Sprintf("%s_%dpx%s", strings.TrimSuffix(src, ext), width, ext)
}

// Resize writes one variant per configured width next to src, keeping the aspect ratio.
// Images narrower than a width are not upscaled.
func (r *Resizer) Resize(ctx context.Context, src string) ([]string, error) {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	out := make([]string, 0, len(r.widths))
	for _, w := range r.widths {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		dst := img
		if img.Bounds().Dx() > w {
			dst = imaging.Resize(img, w, 0, imaging.Lanczos)
		}
		p := VariantPath(src, w)
		if err := imaging.Save(dst, p, imaging.JPEGQuality(85)); err != nil {
			return out, fmt.Errorf("save %s: %w", p, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// HandleJob resizes the file named by an image.resize job.
func (r *Resizer) HandleJob(ctx context.Context, job domain.Job) error {
	path, _ := job.Data["path"].(string)
	if path == "" {
		return fmt.Errorf("job %s: missing path", job.ID)
	}
	written, err := r.Resize(ctx, path)
	if err != nil {
		return err
	}
	log.Info().Str("job_id", job.ID).Strs("variants", written).Msg("image resized")
	return nil
}
