package app

import (
	"sort"

	"trivia-match-service/internal/domain"
)

// rank orders players by score descending. Ties keep join order, and rank
// numbers stay contiguous across ties.
func rank(players []domain.Player, scores map[string]int) []domain.RankingEntry {
	entries := make([]domain.RankingEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, domain.RankingEntry{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			Score:       scores[p.ID],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
