package app

import (
	"sort"
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

// Session is the live in-memory record of one game. All mutation happens
// under mu via GameService, one logical actor per session; independent
// sessions never contend.
type Session struct {
	mu sync.Mutex

	pin       string
	hostID    string
	quizID    string
	questions []domain.Question
	settings  domain.Settings

	players   map[string]*domain.Player
	joinOrder int

	status  domain.Status
	current int
	grading bool

	// Exactly one timer may be pending per session. Arming replaces the
	// handle and bumps timerGen so a stale callback recognizes itself.
	timer    *time.Timer
	timerGen int

	createdAt time.Time
	startedAt time.Time
	endedAt   time.Time
}

func NewSession(pin, hostID, quizID string, questions []domain.Question, settings domain.Settings) *Session {
	return NewSessionWithClock(pin, hostID, quizID, questions, settings, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(pin, hostID, quizID string, questions []domain.Question, settings domain.Settings, now func() time.Time) *Session {
	return &Session{
		pin:       pin,
		hostID:    hostID,
		quizID:    quizID,
		questions: questions,
		settings:  settings,
		players:   make(map[string]*domain.Player),
		status:    domain.StatusWaiting,
		createdAt: now(),
	}
}

// Pin returns the session's join code.
func (s *Session) Pin() string {
	return s.pin
}

// HostID returns the creating host's identity. Immutable after creation.
func (s *Session) HostID() string {
	return s.hostID
}

// Status returns the current lifecycle status.
func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns an immutable copy of the session document.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	players := make([]domain.Player, 0, len(s.players))
	for _, p := range s.players {
		cp := *p
		cp.Answers = make(map[int]domain.Answer, len(p.Answers))
		for idx, ans := range p.Answers {
			cp.Answers[idx] = ans
		}
		players = append(players, cp)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].JoinOrder < players[j].JoinOrder })

	questions := make([]domain.Question, len(s.questions))
	copy(questions, s.questions)

	return domain.SessionSnapshot{
		Pin:             s.pin,
		HostID:          s.hostID,
		QuizID:          s.quizID,
		Questions:       questions,
		Players:         players,
		Status:          s.status,
		CurrentQuestion: s.current,
		Settings:        s.settings,
		CreatedAt:       s.createdAt,
		StartedAt:       s.startedAt,
		EndedAt:         s.endedAt,
	}
}

// leaderboardLocked ranks players by score descending, ties broken by join
// order (first joined ranks higher). limit <= 0 means the full ranking.
func (s *Session) leaderboardLocked(limit int) []domain.LeaderboardEntry {
	players := make([]*domain.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].JoinOrder < players[j].JoinOrder
	})

	if limit > 0 && limit < len(players) {
		players = players[:limit]
	}
	entries := make([]domain.LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = domain.LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    p.Score,
		}
	}
	return entries
}

// allAnsweredLocked reports whether every registered player has a recorded
// answer for the question index.
func (s *Session) allAnsweredLocked(index int) bool {
	if len(s.players) == 0 {
		return false
	}
	for _, p := range s.players {
		if _, ok := p.Answers[index]; !ok {
			return false
		}
	}
	return true
}

// answeredCountLocked counts recorded answers for the question index.
func (s *Session) answeredCountLocked(index int) int {
	n := 0
	for _, p := range s.players {
		if _, ok := p.Answers[index]; ok {
			n++
		}
	}
	return n
}

// cancelTimerLocked invalidates any pending timer. Bumping the generation
// is what actually neutralizes a callback already past Stop.
func (s *Session) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

// armTimerLocked replaces the pending timer, returning the generation the
// new callback must present.
func (s *Session) armTimerLocked(d time.Duration, fire func(gen int)) {
	s.cancelTimerLocked()
	gen := s.timerGen
	s.timer = time.AfterFunc(d, func() { fire(gen) })
}
