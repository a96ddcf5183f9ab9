package app

import (
	"math/rand"

	"live-quiz-service/internal/domain"
)

// BuildSession produces the per-session question sequence from a source
// quiz. With RandomizeQuestions it samples min(len, MaxQuestions) questions
// uniformly without replacement and shuffles their order; otherwise it
// preserves source order truncated to MaxQuestions. The input quiz is not
// mutated.
func BuildSession(quiz domain.Quiz, settings domain.Settings, rnd *rand.Rand) []domain.Question {
	limit := settings.MaxQuestions
	if limit <= 0 || limit > len(quiz.Questions) {
		limit = len(quiz.Questions)
	}

	questions := make([]domain.Question, len(quiz.Questions))
	copy(questions, quiz.Questions)
	if settings.RandomizeQuestions {
		rnd.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	return questions[:limit:limit]
}

// ShuffleOptions independently permutes each question's options and remaps
// the correct index to its new position. The permutation is a bijection:
// no option is dropped or duplicated. Fresh option slices are returned so
// the input remains untouched.
func ShuffleOptions(questions []domain.Question, rnd *rand.Rand) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		perm := rnd.Perm(len(q.Options))
		options := make([]string, len(q.Options))
		correct := q.CorrectIndex
		for pos, orig := range perm {
			options[pos] = q.Options[orig]
			if orig == q.CorrectIndex {
				correct = pos
			}
		}
		q.Options = options
		q.CorrectIndex = correct
		out[i] = q
	}
	return out
}
