package model

import "sort"

type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	TotalScore    int    `json:"total_score"`
	CurrentStreak int    `json:"current_streak"`
	MaxStreak     int    `json:"max_streak"`
}

// RankLeaderboard orders entries by total score then current streak, both
// descending, keeping input order for full ties, and numbers them from 1.
func RankLeaderboard(entries []LeaderboardEntry) []LeaderboardEntry {
	out := make([]LeaderboardEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].CurrentStreak > out[j].CurrentStreak
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
