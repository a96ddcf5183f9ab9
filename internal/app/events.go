package app

import "live-quiz-service/internal/domain"

// Event is the envelope pushed to connected hosts and players.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	EventPlayerJoined   = "playerJoined"
	EventQuestionStart  = "questionStart"
	EventQuestionEnd    = "questionEnd"
	EventPlayerAnswered = "playerAnswered"
	EventAnswerResult   = "answerResult"
	EventGameEnd        = "gameEnd"
)

type PlayerJoinedPayload struct {
	PlayerID    string `json:"playerId"`
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
}

// QuestionStartPayload deliberately omits the correct index.
type QuestionStartPayload struct {
	Index     int      `json:"index"`
	Text      string   `json:"text"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"timeLimit"`
}

type QuestionEndPayload struct {
	Index              int                       `json:"index"`
	CorrectAnswerIndex int                       `json:"correctAnswerIndex"`
	Leaderboard        []domain.LeaderboardEntry `json:"leaderboard,omitempty"`
}

// PlayerAnsweredPayload goes to the host as each answer lands.
type PlayerAnsweredPayload struct {
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	IsCorrect  bool   `json:"isCorrect"`
	Points     int    `json:"points"`
	TotalScore int    `json:"totalScore"`
	Answered   int    `json:"answered"`
}

// AnswerResultPayload acknowledges a submission to the answering player.
type AnswerResultPayload struct {
	QuestionIndex      int  `json:"questionIndex"`
	IsCorrect          bool `json:"isCorrect"`
	PointsEarned       int  `json:"pointsEarned"`
	CorrectAnswerIndex int  `json:"correctAnswerIndex"`
}

type GameEndPayload struct {
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}
