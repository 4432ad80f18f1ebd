// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"unicode/utf8"

	"github.com/naka-gawa/wiki-edit-report/internal/diff"
	"github.com/naka-gawa/wiki-edit-report/internal/domain"
	"github.com/naka-gawa/wiki-edit-report/internal/gateway"
)

// ErrPartialReport is returned alongside a report built from incomplete data
// because a fetch failed part way.
var ErrPartialReport = errors.New("report built from partial revision data")

// Reporter is the use case for building an edit report.
// It orchestrates fetching revisions, resolving the baseline and diffing.
type Reporter struct {
	source gateway.Source
	logger *log.Logger
}

// NewReporter creates a new Reporter instance.
func NewReporter(source gateway.Source, logger *log.Logger) *Reporter {
	return &Reporter{
		source: source,
		logger: logger,
	}
}

// Run fetches every revision username made on pageURL and builds the report.
// Fetch failures do not abort the run: the report is built from whatever was
// fetched and returned together with an error wrapping ErrPartialReport.
// Cancellation of ctx returns a nil report.
func (r *Reporter) Run(ctx context.Context, pageURL, username string, limit int) (*domain.Report, error) {
	r.logger.Println("Usecase: Starting report generation...")
	var fetchErrs []error
	title := domain.TitleFromURL(pageURL)

	revisions, err := r.source.FetchUserRevisions(ctx, title, username, limit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logFetchError("revision history", err)
		fetchErrs = append(fetchErrs, err)
		r.logger.Printf("Usecase: Continuing with %d revisions fetched before the failure.\n", len(revisions))
	}

	SortRevisions(revisions)
	report, err := r.build(ctx, revisions, pageURL, username)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		fetchErrs = append(fetchErrs, err)
	}
	r.logger.Println("Usecase: Report generation complete.")
	if len(fetchErrs) > 0 {
		return report, fmt.Errorf("%w: %w", ErrPartialReport, errors.Join(fetchErrs...))
	}
	return report, nil
}

// SortRevisions orders revisions oldest first. Revisions sharing a timestamp keep their relative order.
func SortRevisions(revisions []domain.Revision) {
	sort.SliceStable(revisions, func(i, j int) bool {
		return revisions[i].Timestamp.Before(revisions[j].Timestamp)
	})
}

// Build walks revisions, which must already be sorted oldest first, and diffs
// each one against the last revision that had content. The first revision is
// diffed against the page state preceding it, or against an empty page when
// that state cannot be fetched.
func (r *Reporter) Build(ctx context.Context, revisions []domain.Revision, pageURL, username string) *domain.Report {
	report, _ := r.build(ctx, revisions, pageURL, username)
	return report
}

// build is Build that also returns the baseline fetch error, if any.
func (r *Reporter) build(ctx context.Context, revisions []domain.Revision, pageURL, username string) (*domain.Report, error) {
	title := domain.TitleFromURL(pageURL)
	entries := make([]domain.Entry, 0, len(revisions))

	var previousText string
	var baselineErr error
	for i, rev := range revisions {
		entry := domain.Entry{
			RevisionID: rev.ID,
			Timestamp:  rev.Timestamp,
			Comment:    rev.Comment,
		}

		currentText, ok := rev.Text()
		if !ok {
			r.logger.Printf("Usecase: Revision %d has no content slot, skipping its diff.\n", rev.ID)
			entry.Warning = domain.MissingContentWarning
			entries = append(entries, entry)
			continue
		}

		if i == 0 {
			previousText, baselineErr = r.baselineText(ctx, title, rev.ID)
		}

		length := utf8.RuneCountInString(currentText)
		changes := diff.Compute(previousText, currentText)
		entry.ContentLength = &length
		entry.Changes = &changes
		entries = append(entries, entry)
		previousText = currentText
	}

	return &domain.Report{
		PageURL:        pageURL,
		PageTitle:      title,
		Username:       username,
		TotalRevisions: len(entries),
		Revisions:      entries,
	}, baselineErr
}

// baselineText returns the content of the revision preceding revisionID, or
// the empty string if there is none or it cannot be fetched.
func (r *Reporter) baselineText(ctx context.Context, title string, revisionID int64) (string, error) {
	prior, err := r.source.FindPriorRevision(ctx, title, revisionID)
	if err != nil {
		r.logFetchError("baseline revision", err)
		return "", err
	}
	if prior == nil {
		r.logger.Printf("Usecase: Revision %d has no predecessor, diffing against an empty page.\n", revisionID)
		return "", nil
	}
	text, _ := prior.Text()
	return text, nil
}

func (r *Reporter) logFetchError(what string, err error) {
	var srcErr *gateway.SourceError
	switch {
	case errors.As(err, &srcErr):
		r.logger.Printf("Error: source rejected %s request: %s\n", what, srcErr.Info)
	case errors.Is(err, gateway.ErrContinuationLoop):
		r.logger.Printf("Error: pagination of %s stopped: %v\n", what, err)
	default:
		r.logger.Printf("Error: failed to fetch %s: %v\n", what, err)
	}
}
