package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHeroStatus(t *testing.T) {
	cases := []struct {
		points   int
		rank     string
		next     string
		target   int
		progress float64
	}{
		{0, RankNewcomer, RankHelper, PointsHelper, 0},
		{50, RankNewcomer, RankHelper, PointsHelper, 50},
		{100, RankHelper, RankSupporter, PointsSupporter, 16.67},
		{3000, RankPatron, RankGuardian, PointsGuardian, 37.5},
		{25000, RankLegend, RankMax, PointsLegend, 100},
	}

	for _, tc := range cases {
		status := GetHeroStatus(tc.points)
		assert.Equal(t, tc.rank, status.RankName, "points=%d", tc.points)
		assert.Equal(t, tc.next, status.NextRank, "points=%d", tc.points)
		assert.Equal(t, tc.target, status.TargetPoints, "points=%d", tc.points)
		assert.InDelta(t, tc.progress, status.Progress, 0.001, "points=%d", tc.points)
	}
}

func TestWeeklyLabel(t *testing.T) {
	assert.Empty(t, GetHeroStatusWithWeekly(0, 5).WeeklyLabel)
	assert.Contains(t, GetHeroStatusWithWeekly(0, 20).WeeklyLabel, "Active")
	assert.Contains(t, GetHeroStatusWithWeekly(0, 60).WeeklyLabel, "Trending")
	assert.Contains(t, GetHeroStatusWithWeekly(0, 150).WeeklyLabel, "On Fire")
}

func TestDonationPoints(t *testing.T) {
	assert.Equal(t, 1, DonationPoints(1))
	assert.Equal(t, 1, DonationPoints(1999))
	assert.Equal(t, 50, DonationPoints(50_000))
}
