package usecase

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/naka-gawa/wiki-edit-report/internal/artifact"
	"github.com/naka-gawa/wiki-edit-report/internal/domain"
	"github.com/naka-gawa/wiki-edit-report/internal/render"
	"golang.org/x/sync/errgroup"
)

// Publisher persists a report and renders its documents.
type Publisher struct {
	renderers []render.Renderer
	logger    *log.Logger
}

// NewPublisher creates a Publisher rendering the given formats.
func NewPublisher(formats []render.Format, logger *log.Logger) (*Publisher, error) {
	renderers := make([]render.Renderer, 0, len(formats))
	for _, f := range formats {
		r, err := render.New(f)
		if err != nil {
			return nil, err
		}
		renderers = append(renderers, r)
	}
	return &Publisher{renderers: renderers, logger: logger}, nil
}

// Publish saves report as a JSON record in dir, then renders every document
// next to it. The record path comes first in the returned paths.
func (p *Publisher) Publish(ctx context.Context, dir string, report *domain.Report, title string, capturedAt time.Time) ([]string, error) {
	recordPath, err := artifact.Save(dir, report, capturedAt)
	if err != nil {
		return nil, err
	}
	p.logger.Printf("Report saved as %s\n", recordPath)

	docs, err := p.RenderDocuments(ctx, recordPath, render.NewDocument(report, title, capturedAt))
	if err != nil {
		return []string{recordPath}, err
	}
	return append([]string{recordPath}, docs...), nil
}

// RenderDocuments renders doc once per configured format, each to the record
// path with the format's extension. Documents are rendered concurrently.
func (p *Publisher) RenderDocuments(ctx context.Context, recordPath string, doc render.Document) ([]string, error) {
	paths := make([]string, len(p.renderers))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, r := range p.renderers {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			path := artifact.SiblingPath(recordPath, r.Extension())
			if err := writeDocument(path, r, doc); err != nil {
				return err
			}
			p.logger.Printf("Document saved as %s\n", path)
			paths[i] = path
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func writeDocument(path string, r render.Renderer, doc render.Document) (err error) {
	f, err := os.Create(path) //nolint:gosec // Path is derived from the output directory
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if err := r.Render(f, doc); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return nil
}
