package receipt

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/gcsuploader"
)

// Archiver stores a text copy of every receipt in a bucket.
type Archiver struct {
	store  gcsuploader.ObjectStore
	bucket string
	text   *TextRenderer
	log    zerolog.Logger
}

// NewArchiver creates an Archiver writing to bucket through store.
func NewArchiver(store gcsuploader.ObjectStore, bucket string, log zerolog.Logger) *Archiver {
	return &Archiver{store: store, bucket: bucket, text: &TextRenderer{}, log: log}
}

// ObjectName returns where a receipt is stored, e.g.
// "receipts/2026/03/14/<reference>.txt".
func ObjectName(r Receipt) string {
	return fmt.Sprintf("receipts/%s/%s.txt", r.Timestamp.UTC().Format("2006/01/02"), r.ReferenceID)
}

// Render implements Renderer by uploading the receipt text.
func (a *Archiver) Render(ctx context.Context, r Receipt) error {
	if r.ReferenceID == "" {
		return errors.New("receipt: archive: empty reference id")
	}

	body, err := a.text.Format(r)
	if err != nil {
		return err
	}

	uri, err := a.store.Put(ctx, a.bucket, ObjectName(r), "text/plain; charset=utf-8", body)
	if err != nil {
		return fmt.Errorf("receipt: archive %s: %w", r.ReferenceID, err)
	}

	a.log.Info().
		Str("reference_id", r.ReferenceID).
		Str("gcs_uri", uri).
		Int("bytes", len(body)).
		Msg("Receipt archived")
	return nil
}

// Multi renders to every renderer in order and joins their errors.
func Multi(renderers ...Renderer) Renderer {
	return RenderFunc(func(ctx context.Context, r Receipt) error {
		var errs []error
		for _, rr := range renderers {
			if err := rr.Render(ctx, r); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
