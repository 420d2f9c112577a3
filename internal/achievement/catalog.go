package achievement

import (
	"time"

	"github.com/asertelegram/Sparkaph/internal/stats"
)

// DefaultCatalog builds the production achievement set.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		&Definition{
			ID: "first_challenge", Name: "First Step", Icon: "🎯",
			Description: "Completed your first challenge",
			Type:        TypeChallenge, Points: 10, Badge: "first_challenge",
			Predicate: completedAtLeast(1),
		},
		&Definition{
			ID: "challenge_master", Name: "Challenge Master", Icon: "🏆",
			Description: "Completed 50 challenges",
			Type:        TypeChallenge, Points: 50, Badge: "challenge_master", Title: "Master",
			Predicate: completedAtLeast(50),
		},
		&Definition{
			ID: "challenge_legend", Name: "Legend", Icon: "👑",
			Description: "Completed 100 challenges",
			Type:        TypeChallenge, Points: 100, Badge: "challenge_legend", Title: "Legend",
			Predicate: completedAtLeast(100),
		},

		&Definition{
			ID: "streak_3", Name: "Hot Streak", Icon: "🔥",
			Description: "Completed challenges 3 days in a row",
			Type:        TypeStreak, Points: 15, Badge: "streak_3",
			Predicate: streakAtLeast(3),
		},
		&Definition{
			ID: "streak_7", Name: "Week of Power", Icon: "⚡",
			Description: "Completed challenges 7 days in a row",
			Type:        TypeStreak, Points: 30, Badge: "streak_7",
			Bonus:     &Bonus{Multiplier: 2, Duration: 24 * time.Hour},
			Predicate: streakAtLeast(7),
		},
		&Definition{
			ID: "streak_30", Name: "Month of Power", Icon: "🌟",
			Description: "Completed challenges 30 days in a row",
			Type:        TypeStreak, Points: 100, Badge: "streak_30", Title: "Relentless",
			Bonus:     &Bonus{Multiplier: 3, Duration: 24 * time.Hour},
			Predicate: streakAtLeast(30),
		},

		&Definition{
			ID: "social_butterfly", Name: "Social Butterfly", Icon: "🦋",
			Description: "Invited 5 friends",
			Type:        TypeSocial, Points: 25, Badge: "social_butterfly",
			Predicate: func(s stats.Snapshot) bool { return s.ReferralCount >= 5 },
		},
		&Definition{
			ID: "social_queen", Name: "Network Royalty", Icon: "👑",
			Description: "Invited 20 friends",
			Type:        TypeSocial, Points: 50, Badge: "social_queen", Title: "Social Leader",
			Predicate: func(s stats.Snapshot) bool { return s.ReferralCount >= 20 },
		},
		&Definition{
			ID: "content_creator", Name: "Content Creator", Icon: "📱",
			Description: "Shared 10 challenges on social media",
			Type:        TypeSocial, Points: 30, Badge: "content_creator",
			Predicate: func(s stats.Snapshot) bool { return s.SocialShares >= 10 },
		},

		&Definition{
			ID: "level_5", Name: "Level Five", Icon: "⭐️",
			Description: "Reached level 5",
			Type:        TypeLevel, Points: 20, Badge: "level_5",
			Predicate: levelAtLeast(5),
		},
		&Definition{
			ID: "level_10", Name: "Level Ten", Icon: "🌟",
			Description: "Reached level 10",
			Type:        TypeLevel, Points: 50, Badge: "level_10", Title: "Seasoned",
			Predicate: levelAtLeast(10),
		},
		&Definition{
			ID: "level_20", Name: "Level Twenty", Icon: "👑",
			Description: "Reached level 20",
			Type:        TypeLevel, Points: 100, Badge: "level_20", Title: "Master",
			Predicate: levelAtLeast(20),
		},

		&Definition{
			ID: "early_bird", Name: "Early Bird", Icon: "🌅",
			Description: "Got a challenge approved before 8 AM",
			Type:        TypeSpecial, Points: 15, Badge: "early_bird",
			Predicate: approvedBeforeHour(8),
		},
		&Definition{
			ID: "night_owl", Name: "Night Owl", Icon: "🦉",
			Description: "Got a challenge approved after 10 PM",
			Type:        TypeSpecial, Points: 15, Badge: "night_owl",
			Predicate: approvedAtOrAfterHour(22),
		},
		&Definition{
			ID: "perfect_week", Name: "Perfect Week", Icon: "✨",
			Description: "Completed a challenge every day of the week",
			Type:        TypeSpecial, Points: 50, Badge: "perfect_week",
			Bonus:     &Bonus{Multiplier: 2, Duration: 7 * 24 * time.Hour},
			Predicate: func(s stats.Snapshot) bool { return s.DaysActiveThisWeek >= 7 },
		},

		&Definition{
			ID: "collection_starter", Name: "Badge Collector", Icon: "📚",
			Description: "Collected 5 badges",
			Type:        TypeCollection, Points: 20, Badge: "collection_starter",
			Predicate: func(s stats.Snapshot) bool { return s.BadgeCount >= 5 },
		},
		&Definition{
			ID: "collection_master", Name: "Collection Master", Icon: "🏆",
			Description: "Collected 20 badges",
			Type:        TypeCollection, Points: 50, Badge: "collection_master", Title: "Collector",
			Predicate: func(s stats.Snapshot) bool { return s.BadgeCount >= 20 },
		},

		&Definition{
			ID: "summer_champion", Name: "Summer Champion", Icon: "☀️",
			Description: "Completed 30 challenges during summer",
			Type:        TypeEvent, Points: 100, Badge: "summer_champion", Title: "Summer Champion",
			Season:    SeasonSummer,
			Predicate: func(s stats.Snapshot) bool { return s.SeasonCompleted >= 30 },
		},
		&Definition{
			ID: "winter_warrior", Name: "Winter Warrior", Icon: "❄️",
			Description: "Completed 30 challenges during winter",
			Type:        TypeEvent, Points: 100, Badge: "winter_warrior", Title: "Winter Warrior",
			Season:    SeasonWinter,
			Predicate: func(s stats.Snapshot) bool { return s.SeasonCompleted >= 30 },
		},
	)
}

func completedAtLeast(n int) Predicate {
	return func(s stats.Snapshot) bool { return s.CompletedCount >= n }
}

func streakAtLeast(n int) Predicate {
	return func(s stats.Snapshot) bool { return s.StreakDays >= n }
}

func levelAtLeast(n int) Predicate {
	return func(s stats.Snapshot) bool { return s.Level >= n }
}

func approvedBeforeHour(h int) Predicate {
	return func(s stats.Snapshot) bool {
		return s.LastApprovedAt != nil && s.LastApprovedAt.UTC().Hour() < h
	}
}

func approvedAtOrAfterHour(h int) Predicate {
	return func(s stats.Snapshot) bool {
		return s.LastApprovedAt != nil && s.LastApprovedAt.UTC().Hour() >= h
	}
}
