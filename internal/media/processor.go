package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/postflow/internal/models"
)

const (
	DefaultQuality = 85
	MinQuality     = 60
)

var (
	ErrThumbnailUnsupported = errors.New("video thumbnail generation is not supported")
	ErrMediaRejected        = errors.New("media rejected")
)

type ProcessedImage struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
	Quality  int
}

type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

// ProcessImage fits the image inside the platform's maximum dimensions and
// re-encodes it as JPEG. When the result is still over the size limit it is
// encoded once more at a proportionally lower quality, never below
// MinQuality. The output may still exceed the limit.
func (p *Processor) ProcessImage(data []byte, reqs models.Requirements) (*ProcessedImage, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", ErrMediaRejected, err)
	}

	if d := reqs.MaxImageDimensions; d != nil && d.Width > 0 && d.Height > 0 {
		img = imaging.Fit(img, d.Width, d.Height, imaging.Lanczos)
	}

	out, err := encodeJPEG(img, DefaultQuality)
	if err != nil {
		return nil, err
	}
	quality := DefaultQuality

	if reqs.MaxImageSize > 0 && int64(len(out)) > reqs.MaxImageSize {
		quality = reducedQuality(reqs.MaxImageSize, int64(len(out)))
		out, err = encodeJPEG(img, quality)
		if err != nil {
			return nil, err
		}
	}

	bounds := img.Bounds()
	return &ProcessedImage{
		Data:     out,
		MimeType: "image/jpeg",
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Quality:  quality,
	}, nil
}

func reducedQuality(maxSize, size int64) int {
	q := int(math.Floor(float64(maxSize) / float64(size) * DefaultQuality))
	if q < MinQuality {
		return MinQuality
	}
	return q
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateVideoThumbnail is not implemented; callers get an error rather than
// a placeholder image.
func (p *Processor) GenerateVideoThumbnail(ctx context.Context, video models.MediaFile) ([]byte, error) {
	return nil, ErrThumbnailUnsupported
}

// DetectMimeType sniffs the content type from the leading bytes.
func DetectMimeType(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return ""
	}
	return kind.MIME.Value
}

// ValidateMedia checks one media file against the platform requirements and
// returns every violation joined into a single error.
func ValidateMedia(m models.MediaFile, reqs models.Requirements) error {
	var errs []error

	mime := m.MimeType
	if mime == "" && len(m.Data) > 0 {
		mime = DetectMimeType(m.Data)
	}
	if len(reqs.AllowedMimeTypes) > 0 && !reqs.AllowsMimeType(mime) {
		errs = append(errs, fmt.Errorf("%w: mime type %q not allowed", ErrMediaRejected, mime))
	}

	size := m.Size
	if size == 0 {
		size = int64(len(m.Data))
	}

	switch m.Type {
	case models.MediaTypeImage, models.MediaTypeGIF:
		if reqs.MaxImageSize > 0 && size > reqs.MaxImageSize {
			errs = append(errs, fmt.Errorf("%w: image size %d exceeds %d bytes", ErrMediaRejected, size, reqs.MaxImageSize))
		}
	case models.MediaTypeVideo:
		if reqs.MaxVideoSize > 0 && size > reqs.MaxVideoSize {
			errs = append(errs, fmt.Errorf("%w: video size %d exceeds %d bytes", ErrMediaRejected, size, reqs.MaxVideoSize))
		}
		if max := reqs.MaxVideoDuration.Seconds(); max > 0 && m.Duration > max {
			errs = append(errs, fmt.Errorf("%w: video duration %.0fs exceeds %.0fs", ErrMediaRejected, m.Duration, max))
		}
	}

	return errors.Join(errs...)
}
