package domain

import (
	"fmt"
	"time"
)

// NoAnswer is the answer-index sentinel recorded when a player lets the
// question deadline pass without submitting.
const NoAnswer = -1

// Question is a single-correct-answer multiple-choice question.
type Question struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	TimeLimitSec int      `json:"timeLimit"`
	Points       int      `json:"points"`
}

// TimeLimit returns the question's answering window as a duration.
func (q Question) TimeLimit() time.Duration {
	return time.Duration(q.TimeLimitSec) * time.Second
}

// Validate checks the structural invariants of a question.
func (q Question) Validate() error {
	if len(q.Options) < 2 || len(q.Options) > 6 {
		return fmt.Errorf("%w: question needs 2-6 options, has %d", ErrInvalidQuiz, len(q.Options))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: correct index %d out of range", ErrInvalidQuiz, q.CorrectIndex)
	}
	if q.TimeLimitSec <= 0 {
		return fmt.Errorf("%w: time limit must be positive", ErrInvalidQuiz)
	}
	if q.Points < 0 {
		return fmt.Errorf("%w: points must not be negative", ErrInvalidQuiz)
	}
	return nil
}

// Quiz is the source question bank; read-only to the game core.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Validate checks the quiz and every question in it.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz has no questions", ErrInvalidQuiz)
	}
	for i, question := range q.Questions {
		if err := question.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}

// Settings control how a session is built from its quiz.
type Settings struct {
	RandomizeQuestions bool `json:"randomizeQuestions"`
	MaxQuestions       int  `json:"maxQuestions"`
	ShowLeaderboard    bool `json:"showLeaderboard"`
}

// Answer records one player's submission for one question index.
type Answer struct {
	AnswerIndex int   `json:"answerIndex"`
	Correct     bool  `json:"correct"`
	TimeTakenMs int64 `json:"timeTakenMs"`
	Points      int   `json:"points"`
}

// Player is a participant in a session. JoinOrder is assigned at join time
// and breaks leaderboard ties (earlier joiner ranks higher).
type Player struct {
	ID        string         `json:"playerId"`
	Name      string         `json:"name"`
	Score     int            `json:"score"`
	JoinOrder int            `json:"joinOrder"`
	Answers   map[int]Answer `json:"answers"`
}

// Status is the session lifecycle state. Transitions are monotonic:
// waiting -> active -> finished.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// LeaderboardEntry is one ranked row of a session leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// SessionSnapshot is the persisted form of a session: enough to reconstruct
// full game history without the live in-memory record. Writes are
// last-write-wins.
type SessionSnapshot struct {
	Pin             string     `json:"pin"`
	HostID          string     `json:"hostId"`
	QuizID          string     `json:"quizId"`
	Questions       []Question `json:"questions"`
	Players         []Player   `json:"players"`
	Status          Status     `json:"status"`
	CurrentQuestion int        `json:"currentQuestion"`
	Settings        Settings   `json:"settings"`
	CreatedAt       time.Time  `json:"createdAt"`
	StartedAt       time.Time  `json:"startedAt,omitempty"`
	EndedAt         time.Time  `json:"endedAt,omitempty"`
}

// PlayerResult summarizes one player's final standing.
type PlayerResult struct {
	Name           string `json:"name"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
}

// Results is the read-only export view of a finished session.
type Results struct {
	Pin             string         `json:"pin"`
	Players         []PlayerResult `json:"players"`
	TotalQuestions  int            `json:"totalQuestions"`
	DurationSeconds float64        `json:"durationSeconds"`
}
