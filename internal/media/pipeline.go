package media

import (
	"context"
	"fmt"

	"github.com/maheshrc27/postflow/internal/models"
)

type fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Pipeline prepares the images of a post for one platform: it loads the
// bytes, runs them through the Processor and, when a Store is set, replaces
// the URL with the processed copy.
type Pipeline struct {
	processor *Processor
	fetcher   fetcher
	store     Store
}

// NewPipeline builds a pipeline. fetcher and store may be nil; images that
// only carry a URL are then left untouched.
func NewPipeline(processor *Processor, f fetcher, store Store) *Pipeline {
	return &Pipeline{processor: processor, fetcher: f, store: store}
}

// Prepare returns a copy of c with every still image processed. Errors
// wrapping ErrMediaRejected are permanent; the rest may be retried.
func (p *Pipeline) Prepare(ctx context.Context, c models.PostContent, reqs models.Requirements) (models.PostContent, error) {
	out := c.Clone()
	for i, m := range out.Media {
		if m.Type != models.MediaTypeImage {
			continue
		}

		data := m.Data
		if len(data) == 0 {
			if m.URL == "" {
				return out, fmt.Errorf("%w: media %s has neither data nor url", ErrMediaRejected, m.ID)
			}
			if p.fetcher == nil {
				continue
			}
			var err error
			if data, err = p.fetcher.Fetch(ctx, m.URL); err != nil {
				return out, fmt.Errorf("fetch media %s: %w", m.ID, err)
			}
		}

		img, err := p.processor.ProcessImage(data, reqs)
		if err != nil {
			return out, fmt.Errorf("media %s: %w", m.ID, err)
		}
		m.Data = img.Data
		m.MimeType = img.MimeType
		m.Width = img.Width
		m.Height = img.Height
		m.Size = int64(len(img.Data))

		if p.store != nil {
			url, err := p.store.Put(ctx, img.Data, img.MimeType)
			if err != nil {
				return out, fmt.Errorf("store media %s: %w", m.ID, err)
			}
			m.URL = url
		}
		out.Media[i] = m
	}
	return out, nil
}
