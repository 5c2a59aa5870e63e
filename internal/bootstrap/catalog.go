package bootstrap

import "anoa.com/kopilka/internal/entity"

// DefaultCatalog is the seeded achievement catalog in display order.
func DefaultCatalog() []entity.AchievementDefinition {
	normal := func(slug, name, desc, icon string, metric entity.Metric, threshold int64) entity.AchievementDefinition {
		return entity.AchievementDefinition{
			Slug: slug, Name: name, Description: desc, Icon: icon,
			Kind: entity.KindNormal, Metric: metric, Threshold: threshold,
		}
	}

	catalog := []entity.AchievementDefinition{
		normal("first_application", "First Step", "Submit your first application", "📝", entity.MetricApplicationsSubmitted, 1),
		normal("applications_5", "Persistent", "Submit 5 applications", "📚", entity.MetricApplicationsSubmitted, 5),
		normal("first_approved", "Heard", "Get an application approved", "✅", entity.MetricApplicationsApproved, 1),
		normal("first_donation", "Kind Heart", "Make your first donation", "💛", entity.MetricDonationsCount, 1),
		normal("donations_10", "Regular Donor", "Make 10 donations", "🎗️", entity.MetricDonationsCount, 10),
		normal("donated_100k", "Patron", "Donate 100 000 in total", "🏛️", entity.MetricDonationsTotal, 100_000),
		normal("first_like", "Noticed", "Receive a like on one of your stories", "👍", entity.MetricLikesReceivedTotal, 1),
		normal("likes_100", "Beloved", "Receive 100 likes across your stories", "❤️", entity.MetricLikesReceivedTotal, 100),
		normal("viral_story", "Viral", "Get 50 likes on a single story", "🔥", entity.MetricLikesSingleStory, 50),
		normal("writer_1000", "Storyteller", "Write 1 000 words in your stories", "✍️", entity.MetricWordsWrittenTotal, 1000),
		normal("first_friend", "Not Alone", "Make your first friend", "🤝", entity.MetricFriendsCount, 1),
		normal("friends_10", "Circle", "Have 10 friends", "👥", entity.MetricFriendsCount, 10),
		normal("login_streak_7", "Week Strong", "Log in 7 days in a row", "📅", entity.MetricLoginStreakDays, 7),
		normal("logins_30", "Regular", "Log in 30 times", "🔑", entity.MetricTotalLogins, 30),
	}

	coin := normal("coin_catcher", "Coin Catcher", "Score 500 in Coin Catch", "🪙", entity.MetricGameBestScore, 500)
	coin.MetricScope = entity.GameCoinCatch
	memory := normal("sharp_memory", "Sharp Memory", "Score 300 in Memory", "🧠", entity.MetricGameBestScore, 300)
	memory.MetricScope = entity.GameMemory
	catalog = append(catalog, coin, memory)

	catalog = append(catalog,
		entity.AchievementDefinition{
			Slug: "founder", Name: "Founder", Description: "One of the first members of Kopilka", Icon: "🌱",
			Kind: entity.KindExclusive, IsExclusive: true, Metric: entity.MetricTotalLogins, Threshold: 1,
		},
		entity.AchievementDefinition{
			Slug: "night_owl", Name: "Night Owl", Description: "A secret for those who stay up late", Icon: "🦉",
			Kind: entity.KindHidden, IsHidden: true, Metric: entity.MetricTotalLogins, Threshold: 1,
		},
		entity.AchievementDefinition{
			Slug: "new_year_giver", Name: "New Year Giver", Description: "Donate during the New Year campaign", Icon: "🎄",
			Kind: entity.KindSeasonal, IsSeasonal: true, Metric: entity.MetricDonationsCount, Threshold: 1,
		},
	)
	return catalog
}
