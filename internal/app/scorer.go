package app

import "live-quiz-service/internal/domain"

// Score decides correctness and points for a submission. It is the sole
// scoring authority: no other component computes points, so host- and
// player-facing scores cannot diverge.
//
// A correct answer earns points weighted by remaining time,
// floor(points * (limit-taken)/limit), clamped so a correct answer at or
// after the deadline still counts as correct but earns zero.
func Score(q domain.Question, answerIndex int, timeTakenMs int64) (correct bool, points int) {
	if answerIndex != q.CorrectIndex {
		return false, 0
	}
	limitMs := int64(q.TimeLimitSec) * 1000
	remaining := limitMs - timeTakenMs
	if remaining < 0 {
		remaining = 0
	}
	if remaining > limitMs {
		remaining = limitMs
	}
	return true, int(int64(q.Points) * remaining / limitMs)
}
