package render

import (
	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/wiki-edit-report/internal/domain"
)

// Summary aggregates the character deltas of a report.
type Summary struct {
	Diffed        int
	Warnings      int
	Added         int
	Removed       int
	MeanAdded     float64
	MedianAdded   float64
	MeanRemoved   float64
	MedianRemoved float64
}

// Summarize computes totals and per-revision averages over the entries that carry changes.
func Summarize(report *domain.Report) Summary {
	var s Summary
	var added, removed stats.Float64Data
	for _, e := range report.Revisions {
		if !e.HasContent() {
			s.Warnings++
			continue
		}
		added = append(added, float64(e.Changes.Added))
		removed = append(removed, float64(e.Changes.Removed))
	}
	s.Diffed = len(added)
	if s.Diffed == 0 {
		return s
	}

	// Errors are only returned for empty input, which is excluded above.
	total, _ := stats.Sum(added)
	s.Added = int(total)
	total, _ = stats.Sum(removed)
	s.Removed = int(total)
	s.MeanAdded, _ = stats.Round(meanOf(added), 1)
	s.MeanRemoved, _ = stats.Round(meanOf(removed), 1)
	s.MedianAdded, _ = stats.Median(added)
	s.MedianRemoved, _ = stats.Median(removed)
	return s
}

func meanOf(data stats.Float64Data) float64 {
	m, _ := stats.Mean(data)
	return m
}
