package achievement

import (
	"context"
	"strings"
	"time"

	"anoa.com/kopilka/internal/entity"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"
)

type ApplicationCounter interface {
	CountSubmitted(ctx context.Context, userID uuid.UUID) (int64, error)
	CountApproved(ctx context.Context, userID uuid.UUID) (int64, error)
}

type StoryCounter interface {
	SumLikesReceived(ctx context.Context, userID uuid.UUID) (int64, error)
	MaxLikesOnStory(ctx context.Context, userID uuid.UUID) (int64, error)
	StoryContents(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type FriendCounter interface {
	CountFriends(ctx context.Context, userID uuid.UUID) (int64, error)
}

type GameCounter interface {
	BestScores(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
}

type LoginCounter interface {
	CountLogins(ctx context.Context, userID uuid.UUID) (int64, error)
	// LoginDays returns the latest run of consecutive UTC login days, newest first.
	LoginDays(ctx context.Context, userID uuid.UUID) ([]time.Time, error)
}

type DonationCounter interface {
	CountByDonor(ctx context.Context, userID uuid.UUID) (int64, error)
	SumByDonor(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Sources are the activity read models the engine evaluates. A nil source reads as zero.
type Sources struct {
	Applications ApplicationCounter
	Stories      StoryCounter
	Friends      FriendCounter
	Games        GameCounter
	Logins       LoginCounter
	Donations    DonationCounter
}

// UserStats is a projection over activity records. A user with no activity has all zeros.
type UserStats struct {
	ApplicationsSubmitted int64            `json:"applications_submitted"`
	ApplicationsApproved  int64            `json:"applications_approved"`
	LikesReceivedTotal    int64            `json:"likes_received_total"`
	LikesSingleStory      int64            `json:"likes_single_story"`
	WordsWrittenTotal     int64            `json:"words_written_total"`
	FriendsCount          int64            `json:"friends_count"`
	GameBestScores        map[string]int64 `json:"game_best_scores"`
	LoginStreakDays       int64            `json:"login_streak_days"`
	TotalLogins           int64            `json:"total_logins"`
	DonationsCount        int64            `json:"donations_count"`
	DonationsTotal        int64            `json:"donations_total"`
}

// Value resolves a metric. For game_best_score an empty scope means the best score across all games.
func (s UserStats) Value(metric entity.Metric, scope string) int64 {
	switch metric {
	case entity.MetricApplicationsSubmitted:
		return s.ApplicationsSubmitted
	case entity.MetricApplicationsApproved:
		return s.ApplicationsApproved
	case entity.MetricLikesReceivedTotal:
		return s.LikesReceivedTotal
	case entity.MetricLikesSingleStory:
		return s.LikesSingleStory
	case entity.MetricWordsWrittenTotal:
		return s.WordsWrittenTotal
	case entity.MetricFriendsCount:
		return s.FriendsCount
	case entity.MetricGameBestScore:
		if scope != "" {
			return s.GameBestScores[scope]
		}
		var best int64
		for _, score := range s.GameBestScores {
			best = max(best, score)
		}
		return best
	case entity.MetricLoginStreakDays:
		return s.LoginStreakDays
	case entity.MetricTotalLogins:
		return s.TotalLogins
	case entity.MetricDonationsCount:
		return s.DonationsCount
	case entity.MetricDonationsTotal:
		return s.DonationsTotal
	}
	return 0
}

type statsAggregator struct {
	src   Sources
	strip *bluemonday.Policy
	now   func() time.Time
}

func newStatsAggregator(src Sources) *statsAggregator {
	return &statsAggregator{
		src:   src,
		strip: bluemonday.StrictPolicy(),
		now:   time.Now,
	}
}

// Load reads every counter concurrently. Any failing source fails the whole read.
func (a *statsAggregator) Load(ctx context.Context, userID uuid.UUID) (UserStats, error) {
	var stats UserStats
	g, ctx := errgroup.WithContext(ctx)

	if src := a.src.Applications; src != nil {
		g.Go(func() (err error) {
			stats.ApplicationsSubmitted, err = src.CountSubmitted(ctx, userID)
			return
		})
		g.Go(func() (err error) {
			stats.ApplicationsApproved, err = src.CountApproved(ctx, userID)
			return
		})
	}
	if src := a.src.Stories; src != nil {
		g.Go(func() (err error) {
			stats.LikesReceivedTotal, err = src.SumLikesReceived(ctx, userID)
			return
		})
		g.Go(func() (err error) {
			stats.LikesSingleStory, err = src.MaxLikesOnStory(ctx, userID)
			return
		})
		g.Go(func() error {
			contents, err := src.StoryContents(ctx, userID)
			if err != nil {
				return err
			}
			stats.WordsWrittenTotal = a.countWords(contents)
			return nil
		})
	}
	if src := a.src.Friends; src != nil {
		g.Go(func() (err error) {
			stats.FriendsCount, err = src.CountFriends(ctx, userID)
			return
		})
	}
	if src := a.src.Games; src != nil {
		g.Go(func() (err error) {
			stats.GameBestScores, err = src.BestScores(ctx, userID)
			return
		})
	}
	if src := a.src.Logins; src != nil {
		g.Go(func() (err error) {
			stats.TotalLogins, err = src.CountLogins(ctx, userID)
			return
		})
		g.Go(func() error {
			days, err := src.LoginDays(ctx, userID)
			if err != nil {
				return err
			}
			stats.LoginStreakDays = loginStreak(days, a.now())
			return nil
		})
	}
	if src := a.src.Donations; src != nil {
		g.Go(func() (err error) {
			stats.DonationsCount, err = src.CountByDonor(ctx, userID)
			return
		})
		g.Go(func() (err error) {
			stats.DonationsTotal, err = src.SumByDonor(ctx, userID)
			return
		})
	}

	if err := g.Wait(); err != nil {
		return UserStats{}, err
	}
	if stats.GameBestScores == nil {
		stats.GameBestScores = map[string]int64{}
	}
	return stats, nil
}

func (a *statsAggregator) countWords(contents []string) int64 {
	var total int64
	for _, c := range contents {
		total += int64(len(strings.Fields(a.strip.Sanitize(c))))
	}
	return total
}

// loginStreak counts consecutive UTC days ending at the newest login.
// The streak is broken when the newest login is older than yesterday.
func loginStreak(days []time.Time, now time.Time) int64 {
	if len(days) == 0 {
		return 0
	}
	today := truncateDay(now)
	newest := truncateDay(days[0])
	if today.Sub(newest) > 24*time.Hour {
		return 0
	}

	streak := int64(1)
	prev := newest
	for _, d := range days[1:] {
		d = truncateDay(d)
		if d.Equal(prev) {
			continue
		}
		if !prev.AddDate(0, 0, -1).Equal(d) {
			break
		}
		streak++
		prev = d
	}
	return streak
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
