// Package scoring turns a correct answer's response latency into points.
package scoring

import (
	"time"

	"trivia-match-service/internal/domain"
)

const (
	// BasePoints is awarded for any correct answer inside the time budget.
	BasePoints = 100
	// MaxSpeedBonus is awarded in full up to the bonus threshold.
	MaxSpeedBonus = 50
	// BonusThreshold is the latency/budget ratio up to which the full bonus applies.
	BonusThreshold = 0.5
)

// Score returns the points for a correct answer. Answers slower than the
// budget earn nothing regardless of difficulty. Negative inputs count as zero;
// a zero budget leaves no time to answer in and scores zero.
func Score(latency, budget time.Duration, difficulty domain.Difficulty) int {
	if latency < 0 {
		latency = 0
	}
	if budget <= 0 || latency > budget {
		return 0
	}

	points := BasePoints + speedBonus(float64(latency)/float64(budget))
	return applyMultiplier(points, difficulty)
}

// MaxScore is the best possible score for a question of the given difficulty.
func MaxScore(difficulty domain.Difficulty) int {
	return applyMultiplier(BasePoints+MaxSpeedBonus, difficulty)
}

func speedBonus(ratio float64) int {
	if ratio <= BonusThreshold {
		return MaxSpeedBonus
	}
	// linear decay from the threshold to zero at the deadline
	return int(MaxSpeedBonus * (1 - ratio) / (1 - BonusThreshold))
}

func applyMultiplier(points int, difficulty domain.Difficulty) int {
	switch domain.ParseDifficulty(string(difficulty)) {
	case domain.DifficultyMedium:
		return points * 3 / 2
	case domain.DifficultyHard:
		return points * 2
	default:
		return points
	}
}
