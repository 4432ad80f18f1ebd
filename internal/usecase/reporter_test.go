package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/naka-gawa/wiki-edit-report/internal/domain"
	"github.com/naka-gawa/wiki-edit-report/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockSource is a mock implementation of the gateway.Source interface.
// It allows us to simulate the revision source without making real API calls.
type mockSource struct {
	mock.Mock
}

func (m *mockSource) FetchUserRevisions(ctx context.Context, title, username string, limit int) ([]domain.Revision, error) {
	args := m.Called(ctx, title, username, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Revision), args.Error(1)
}

func (m *mockSource) FindPriorRevision(ctx context.Context, title string, revisionID int64) (*domain.Revision, error) {
	args := m.Called(ctx, title, revisionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Revision), args.Error(1)
}

const pageURL = "https://en.wikipedia.org/wiki/Example"

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func rev(id int64, d int, content *domain.Content) domain.Revision {
	return domain.Revision{ID: id, Timestamp: day(d), User: "Alice", Comment: fmt.Sprintf("edit %d", id), Content: content}
}

func intPtr(n int) *int { return &n }

func newTestReporter(source gateway.Source) *Reporter {
	return NewReporter(source, log.New(io.Discard, "", 0))
}

func TestReporter_Run_EndToEnd(t *testing.T) {
	source := new(mockSource)
	// Returned newest first, as the API does by default.
	source.On("FetchUserRevisions", mock.Anything, "Example", "Alice", 500).Return([]domain.Revision{
		rev(20, 2, domain.NewContent("line1\nline2\nline3")),
		rev(10, 1, domain.NewContent("line1\nline2")),
	}, nil)
	baseline := rev(5, 1, domain.NewContent("line1"))
	source.On("FindPriorRevision", mock.Anything, "Example", int64(10)).Return(&baseline, nil)

	report, err := newTestReporter(source).Run(context.Background(), pageURL, "Alice", 500)
	require.NoError(t, err)

	assert.Equal(t, &domain.Report{
		PageURL:        pageURL,
		PageTitle:      "Example",
		Username:       "Alice",
		TotalRevisions: 2,
		Revisions: []domain.Entry{
			{
				RevisionID:    10,
				Timestamp:     day(1),
				Comment:       "edit 10",
				ContentLength: intPtr(11),
				Changes:       &domain.Changes{Added: 5, Removed: 0, Diff: "+line2"},
			},
			{
				RevisionID:    20,
				Timestamp:     day(2),
				Comment:       "edit 20",
				ContentLength: intPtr(17),
				Changes:       &domain.Changes{Added: 5, Removed: 0, Diff: "+line3"},
			},
		},
	}, report)
	source.AssertExpectations(t)
}

func TestReporter_Run_FetchFailures(t *testing.T) {
	testCases := []struct {
		name          string
		revisions     []domain.Revision
		fetchErr      error
		baselineErr   error
		expectedCount int
		expectPartial bool
	}{
		{
			name:          "empty fetch still yields a valid report",
			expectedCount: 0,
		},
		{
			name:          "transport failure keeps accumulated revisions",
			revisions:     []domain.Revision{rev(10, 1, domain.NewContent("a"))},
			fetchErr:      fmt.Errorf("failed to fetch revisions: %w", gateway.ErrTransport),
			expectedCount: 1,
			expectPartial: true,
		},
		{
			name:          "source error with nothing fetched",
			fetchErr:      &gateway.SourceError{Code: "invalidtitle", Info: "Bad title"},
			expectedCount: 0,
			expectPartial: true,
		},
		{
			name:          "continuation loop",
			revisions:     []domain.Revision{rev(10, 1, domain.NewContent("a"))},
			fetchErr:      gateway.ErrContinuationLoop,
			expectedCount: 1,
			expectPartial: true,
		},
		{
			name:          "baseline failure diffs against empty text",
			revisions:     []domain.Revision{rev(10, 1, domain.NewContent("a"))},
			baselineErr:   gateway.ErrTransport,
			expectedCount: 1,
			expectPartial: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			source := new(mockSource)
			source.On("FetchUserRevisions", mock.Anything, "Example", "Alice", 50).Return(tc.revisions, tc.fetchErr)
			source.On("FindPriorRevision", mock.Anything, "Example", int64(10)).Return(nil, tc.baselineErr).Maybe()

			report, err := newTestReporter(source).Run(context.Background(), pageURL, "Alice", 50)

			require.NotNil(t, report)
			assert.Equal(t, tc.expectedCount, report.TotalRevisions)
			assert.Len(t, report.Revisions, report.TotalRevisions)
			assert.NotNil(t, report.Revisions)
			assert.NoError(t, report.Validate())
			if tc.expectPartial {
				assert.ErrorIs(t, err, ErrPartialReport)
			} else {
				assert.NoError(t, err)
			}
			if tc.expectedCount == 1 {
				assert.Equal(t, &domain.Changes{Added: 1, Diff: "+a"}, report.Revisions[0].Changes)
			}
			source.AssertExpectations(t)
		})
	}
}

func TestReporter_Run_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := new(mockSource)
	source.On("FetchUserRevisions", mock.Anything, "Example", "Alice", 500).Return(nil, fmt.Errorf("%w: %w", gateway.ErrTransport, context.Canceled))

	report, err := newTestReporter(source).Run(ctx, pageURL, "Alice", 500)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReporter_Build_MissingContentKeepsPreviousText(t *testing.T) {
	source := new(mockSource)
	source.On("FindPriorRevision", mock.Anything, "Example", int64(1)).Return(nil, nil)

	revisions := []domain.Revision{
		rev(1, 1, domain.NewContent("a")),
		rev(2, 2, nil),
		rev(3, 3, domain.NewContent("a\nb")),
	}
	report := newTestReporter(source).Build(context.Background(), revisions, pageURL, "Alice")

	require.Len(t, report.Revisions, 3)
	assert.Equal(t, 3, report.TotalRevisions)

	missing := report.Revisions[1]
	assert.Equal(t, domain.MissingContentWarning, missing.Warning)
	assert.Nil(t, missing.ContentLength)
	assert.Nil(t, missing.Changes)

	// r3 diffs against r1, not against the missing r2.
	assert.Equal(t, &domain.Changes{Added: 1, Diff: "+b"}, report.Revisions[2].Changes)
	assert.NoError(t, report.Validate())
	source.AssertExpectations(t)
}

func TestReporter_Build_FirstRevisionWithoutContent(t *testing.T) {
	source := new(mockSource)

	revisions := []domain.Revision{
		rev(1, 1, nil),
		rev(2, 2, domain.NewContent("x")),
	}
	report := newTestReporter(source).Build(context.Background(), revisions, pageURL, "Alice")

	// No baseline is requested when the first revision has no content.
	source.AssertNotCalled(t, "FindPriorRevision", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, domain.MissingContentWarning, report.Revisions[0].Warning)
	assert.Equal(t, &domain.Changes{Added: 1, Diff: "+x"}, report.Revisions[1].Changes)
}

func TestReporter_Build_BaselineWithoutContent(t *testing.T) {
	source := new(mockSource)
	hidden := rev(4, 1, nil)
	source.On("FindPriorRevision", mock.Anything, "Example", int64(5)).Return(&hidden, nil)

	report := newTestReporter(source).Build(context.Background(), []domain.Revision{rev(5, 2, domain.NewContent("x"))}, pageURL, "Alice")
	assert.Equal(t, &domain.Changes{Added: 1, Diff: "+x"}, report.Revisions[0].Changes)
}

func TestSortRevisions(t *testing.T) {
	revisions := []domain.Revision{rev(3, 3, nil), rev(1, 1, nil), rev(2, 3, nil), rev(4, 2, nil)}
	SortRevisions(revisions)

	var ids []int64
	for _, r := range revisions {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{1, 4, 3, 2}, ids)
}

func TestReporter_ReusedAcrossRuns(t *testing.T) {
	source := new(mockSource)
	source.On("FetchUserRevisions", mock.Anything, "Example", "Alice", 500).
		Return([]domain.Revision{}, gateway.ErrContinuationLoop).Once()
	source.On("FindPriorRevision", mock.Anything, "Example", int64(10)).
		Return(nil, gateway.ErrTransport).Once()
	source.On("FetchUserRevisions", mock.Anything, "Example", "Alice", 500).
		Return([]domain.Revision{rev(10, 1, domain.NewContent("a"))}, nil).Once()
	source.On("FindPriorRevision", mock.Anything, "Example", int64(10)).
		Return(nil, nil).Once()

	reporter := newTestReporter(source)

	_, err := reporter.Run(context.Background(), pageURL, "Alice", 500)
	assert.ErrorIs(t, err, ErrPartialReport)

	// A failed baseline lookup in a direct Build must not leak into later runs.
	report := reporter.Build(context.Background(), []domain.Revision{rev(10, 1, domain.NewContent("a"))}, pageURL, "Alice")
	assert.Equal(t, &domain.Changes{Added: 1, Diff: "+a"}, report.Revisions[0].Changes)

	report, err = reporter.Run(context.Background(), pageURL, "Alice", 500)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalRevisions)
	source.AssertExpectations(t)
}
