package storage

import (
	"sort"
	"time"

	"NewsTracker/internal/domain"
)

type dayKey struct {
	day       time.Time
	sentiment domain.Sentiment
}

func aggregateDaily(records []domain.Record) []domain.DailySentiment {
	counts := map[dayKey]int{}
	for _, rec := range records {
		if rec.PublishedAt == nil {
			continue
		}
		day := rec.PublishedAt.UTC().Truncate(24 * time.Hour)
		counts[dayKey{day: day, sentiment: rec.Sentiment}]++
	}

	out := make([]domain.DailySentiment, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.DailySentiment{Day: k.day, Sentiment: k.sentiment, Count: n})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day) {
			return out[i].Day.Before(out[j].Day)
		}
		return out[i].Sentiment < out[j].Sentiment
	})
	return out
}
