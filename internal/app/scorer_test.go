package app

import (
	"testing"

	"live-quiz-service/internal/domain"
)

func TestScoreTimeWeighting(t *testing.T) {
	q := domain.Question{
		Text:         "q",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 1,
		TimeLimitSec: 10,
		Points:       1000,
	}

	correct, points := Score(q, 1, 2000)
	if !correct {
		t.Fatalf("expected correct answer")
	}
	if points != 800 {
		t.Fatalf("expected 800 points for 2s of 10s, got %d", points)
	}

	correct, points = Score(q, 1, 0)
	if !correct || points != 1000 {
		t.Fatalf("instant answer should earn full points, got correct=%v points=%d", correct, points)
	}
}

func TestScoreAtOrAfterDeadline(t *testing.T) {
	q := domain.Question{
		Options:      []string{"a", "b"},
		CorrectIndex: 0,
		TimeLimitSec: 10,
		Points:       500,
	}

	correct, points := Score(q, 0, 10000)
	if !correct {
		t.Fatalf("a late correct answer still counts as correct")
	}
	if points != 0 {
		t.Fatalf("expected 0 points at deadline, got %d", points)
	}

	correct, points = Score(q, 0, 25000)
	if !correct || points != 0 {
		t.Fatalf("expected correct with 0 points past deadline, got correct=%v points=%d", correct, points)
	}
}

func TestScoreIncorrectAndNoAnswer(t *testing.T) {
	q := domain.Question{
		Options:      []string{"a", "b", "c"},
		CorrectIndex: 2,
		TimeLimitSec: 10,
		Points:       1000,
	}

	if correct, points := Score(q, 0, 100); correct || points != 0 {
		t.Fatalf("wrong option must score 0, got correct=%v points=%d", correct, points)
	}
	if correct, points := Score(q, domain.NoAnswer, 10000); correct || points != 0 {
		t.Fatalf("no-answer sentinel must be incorrect, got correct=%v points=%d", correct, points)
	}
}

func TestScoreBoundsAndMonotonicity(t *testing.T) {
	q := domain.Question{
		Options:      []string{"a", "b"},
		CorrectIndex: 0,
		TimeLimitSec: 7,
		Points:       333,
	}

	prev := q.Points + 1
	for taken := int64(0); taken <= 8000; taken += 250 {
		_, points := Score(q, 0, taken)
		if points < 0 || points > q.Points {
			t.Fatalf("points %d out of [0,%d] at taken=%d", points, q.Points, taken)
		}
		if points > prev {
			t.Fatalf("points increased with slower answer: %d -> %d at taken=%d", prev, points, taken)
		}
		prev = points
	}
}
