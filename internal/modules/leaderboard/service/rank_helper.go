package service

import (
	"math"

	commonDto "anoa.com/kopilka/pkg/dto"
)

// All-time rank thresholds. Ranks never demote.
const (
	PointsLegend    = 20000
	PointsGuardian  = 8000
	PointsPatron    = 3000
	PointsSupporter = 600
	PointsHelper    = 100
)

const (
	RankNewcomer  = "Newcomer"
	RankHelper    = "Helper"
	RankSupporter = "Supporter"
	RankPatron    = "Patron"
	RankGuardian  = "Guardian"
	RankLegend    = "Legend"
	RankMax       = "Max Level"
)

// Weekly activity label thresholds.
const (
	WeeklyOnFire   = 100
	WeeklyTrending = 50
	WeeklyActive   = 20
)

var ranks = []struct {
	name   string
	points int
}{
	{RankLegend, PointsLegend},
	{RankGuardian, PointsGuardian},
	{RankPatron, PointsPatron},
	{RankSupporter, PointsSupporter},
	{RankHelper, PointsHelper},
	{RankNewcomer, 0},
}

func GetHeroStatus(allTimePoints int) commonDto.HeroStatus {
	return GetHeroStatusWithWeekly(allTimePoints, 0)
}

// GetHeroStatusWithWeekly computes the rank from all-time points and the activity label from weekly points.
func GetHeroStatusWithWeekly(allTimePoints, weeklyPoints int) commonDto.HeroStatus {
	status := commonDto.HeroStatus{
		CurrentPoints: allTimePoints,
		WeeklyPoints:  weeklyPoints,
	}

	for i, r := range ranks {
		if allTimePoints < r.points {
			continue
		}
		status.RankName = r.name
		if i == 0 {
			status.NextRank = RankMax
			status.TargetPoints = r.points
			status.Progress = 100
		} else {
			next := ranks[i-1]
			status.NextRank = next.name
			status.TargetPoints = next.points
			status.Progress = float64(allTimePoints) / float64(next.points) * 100
		}
		break
	}

	switch {
	case weeklyPoints >= WeeklyOnFire:
		status.WeeklyLabel = "🔥 On Fire!"
	case weeklyPoints >= WeeklyTrending:
		status.WeeklyLabel = "⚡ Trending"
	case weeklyPoints >= WeeklyActive:
		status.WeeklyLabel = "📈 Active"
	}

	status.Progress = math.Round(status.Progress*100) / 100
	return status
}
