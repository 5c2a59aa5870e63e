package achievement

import (
	"context"
	"testing"
	"time"

	"anoa.com/kopilka/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLoginStreak(t *testing.T) {
	now := day("2026-03-10").Add(15 * time.Hour)

	cases := []struct {
		name string
		days []time.Time
		want int64
	}{
		{"no logins", nil, 0},
		{"today only", []time.Time{day("2026-03-10")}, 1},
		{"yesterday keeps streak", []time.Time{day("2026-03-09"), day("2026-03-08")}, 2},
		{"broken before yesterday", []time.Time{day("2026-03-07"), day("2026-03-06")}, 0},
		{"gap ends streak", []time.Time{day("2026-03-10"), day("2026-03-09"), day("2026-03-07")}, 2},
		{"duplicates ignored", []time.Time{day("2026-03-10"), day("2026-03-10"), day("2026-03-09")}, 2},
		{"month boundary", []time.Time{day("2026-03-10"), day("2026-03-09"), day("2026-03-08"), day("2026-03-07"), day("2026-03-06"), day("2026-03-05"), day("2026-03-04")}, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, loginStreak(tc.days, now))
		})
	}
}

func TestUserStatsValue(t *testing.T) {
	stats := UserStats{
		ApplicationsSubmitted: 2,
		GameBestScores:        map[string]int64{entity.GameCoinCatch: 120, entity.GameMemory: 300},
	}

	assert.EqualValues(t, 2, stats.Value(entity.MetricApplicationsSubmitted, ""))
	assert.EqualValues(t, 120, stats.Value(entity.MetricGameBestScore, entity.GameCoinCatch))
	assert.EqualValues(t, 300, stats.Value(entity.MetricGameBestScore, ""))
	assert.EqualValues(t, 0, stats.Value(entity.MetricGameBestScore, entity.GameQuiz))
	assert.EqualValues(t, 0, stats.Value(entity.Metric("unknown"), ""))
}

func TestAggregatorCountsWordsWithoutMarkup(t *testing.T) {
	counters := &fakeCounters{contents: []string{"<p>Thank you <b>so much</b></p>", "help arrived"}}
	agg := newStatsAggregator(Sources{Stories: counters})

	stats, err := agg.Load(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.EqualValues(t, 6, stats.WordsWrittenTotal)
	assert.NotNil(t, stats.GameBestScores)
}
