package app

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"live-quiz-service/internal/domain"
)

// SessionStore owns live session records and their persisted snapshots
// (in-memory, Redis, etc). The GameService is the only writer.
type SessionStore interface {
	Put(session *Session)
	Get(pin string) (*Session, bool)
	Delete(pin string)
	SaveSnapshot(ctx context.Context, snap domain.SessionSnapshot) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Options tune the coordinator's timing behavior.
type Options struct {
	// GradingInterval is the pause between a question's grading broadcast
	// and the next question (or the finish).
	GradingInterval time.Duration
	// Retention is how long a finished session stays readable before it is
	// reaped and its pin released.
	Retention time.Duration
	// DefaultMaxQuestions caps the session question count when the host's
	// settings leave it unset.
	DefaultMaxQuestions int
}

func (o Options) withDefaults() Options {
	if o.GradingInterval <= 0 {
		o.GradingInterval = 5 * time.Second
	}
	if o.Retention <= 0 {
		o.Retention = 10 * time.Minute
	}
	if o.DefaultMaxQuestions <= 0 {
		o.DefaultMaxQuestions = 20
	}
	return o
}

// GameService is the real-time game-session coordinator: it owns session
// lifecycle, drives question timing, accepts concurrent answer
// submissions, computes scores through Score, and fans state out to
// connected hosts and players.
type GameService struct {
	sessions SessionStore
	quizzes  QuizRepository
	registry *ConnectionRegistry
	pins     *PinAllocator
	opts     Options
	log      zerolog.Logger
	now      func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewGameService(store SessionStore, quizzes QuizRepository, registry *ConnectionRegistry, pins *PinAllocator, opts Options, log zerolog.Logger) *GameService {
	return &GameService{
		sessions: store,
		quizzes:  quizzes,
		registry: registry,
		pins:     pins,
		opts:     opts.withDefaults(),
		log:      log,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the sequencing random source; test-only.
func (g *GameService) SetRand(rnd *rand.Rand) {
	g.rndMu.Lock()
	g.rnd = rnd
	g.rndMu.Unlock()
}

// SetClock replaces the timestamp source; test-only.
func (g *GameService) SetClock(now func() time.Time) {
	g.now = now
}

// CreateSession loads and validates the quiz, builds the per-session
// question sequence, allocates a pin and registers the waiting session.
func (g *GameService) CreateSession(ctx context.Context, hostID, quizID string, settings domain.Settings) (string, int, error) {
	quiz, err := g.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return "", 0, err
	}
	if err := quiz.Validate(); err != nil {
		return "", 0, err
	}

	if settings.MaxQuestions <= 0 {
		settings.MaxQuestions = g.opts.DefaultMaxQuestions
	}

	g.rndMu.Lock()
	questions := ShuffleOptions(BuildSession(quiz, settings, g.rnd), g.rnd)
	g.rndMu.Unlock()

	pin, err := g.pins.Generate()
	if err != nil {
		return "", 0, err
	}

	session := NewSessionWithClock(pin, hostID, quizID, questions, settings, g.now)
	g.sessions.Put(session)
	g.persist(session.Snapshot())

	g.log.Info().Str("pin", pin).Str("quiz", quizID).Int("questions", len(questions)).Msg("session created")
	return pin, len(questions), nil
}

// Join adds a player while the session is still waiting and announces the
// join. Returns the new player's id.
func (g *GameService) Join(ctx context.Context, pin, name string) (string, error) {
	s, ok := g.sessions.Get(pin)
	if !ok {
		return "", domain.ErrSessionNotFound
	}

	s.mu.Lock()
	if s.status != domain.StatusWaiting {
		s.mu.Unlock()
		return "", domain.ErrInvalidState
	}
	player := &domain.Player{
		ID:        uuid.NewString(),
		Name:      name,
		JoinOrder: s.joinOrder,
		Answers:   make(map[int]domain.Answer),
	}
	s.joinOrder++
	s.players[player.ID] = player
	count := len(s.players)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	g.registry.Broadcast(pin, Event{Type: EventPlayerJoined, Payload: PlayerJoinedPayload{
		PlayerID:    player.ID,
		Name:        name,
		PlayerCount: count,
	}})
	g.persist(snap)
	return player.ID, nil
}

// Start transitions waiting -> active and begins the first question.
// Host-only; requires at least one player.
func (g *GameService) Start(ctx context.Context, pin, callerID string) error {
	s, ok := g.sessions.Get(pin)
	if !ok {
		return domain.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == domain.StatusFinished {
		return domain.ErrSessionNotFound
	}
	if callerID != s.hostID {
		return domain.ErrNotHost
	}
	if s.status != domain.StatusWaiting {
		return domain.ErrInvalidState
	}
	if len(s.players) == 0 {
		return domain.ErrNoPlayers
	}

	s.status = domain.StatusActive
	s.startedAt = g.now()
	g.log.Info().Str("pin", pin).Int("players", len(s.players)).Msg("game started")
	g.startQuestionLocked(s, 0)
	g.persist(s.snapshotLocked())
	return nil
}

// SubmitAnswer records one player's answer for the active question. The
// first accepted submission per (player, question) wins; score update and
// answer record are applied as one step under the session lock.
func (g *GameService) SubmitAnswer(ctx context.Context, pin, playerID string, questionIndex, answerIndex int, timeTakenMs int64) (domain.Answer, error) {
	s, ok := g.sessions.Get(pin)
	if !ok {
		return domain.Answer{}, domain.ErrSessionNotFound
	}

	s.mu.Lock()
	if s.status == domain.StatusFinished {
		s.mu.Unlock()
		return domain.Answer{}, domain.ErrSessionNotFound
	}
	if s.status != domain.StatusActive {
		s.mu.Unlock()
		return domain.Answer{}, domain.ErrInvalidState
	}
	player, ok := s.players[playerID]
	if !ok {
		s.mu.Unlock()
		return domain.Answer{}, domain.ErrPlayerNotFound
	}
	if s.grading || questionIndex != s.current {
		s.mu.Unlock()
		return domain.Answer{}, domain.ErrStaleQuestion
	}
	if _, answered := player.Answers[questionIndex]; answered {
		s.mu.Unlock()
		return domain.Answer{}, domain.ErrDuplicateAnswer
	}

	question := s.questions[questionIndex]
	// Client-reported elapsed time, clamped to the question window so a
	// bad report cannot push points outside [0, question.Points].
	limitMs := int64(question.TimeLimitSec) * 1000
	if timeTakenMs < 0 {
		timeTakenMs = 0
	}
	if timeTakenMs > limitMs {
		timeTakenMs = limitMs
	}

	correct, points := Score(question, answerIndex, timeTakenMs)
	answer := domain.Answer{
		AnswerIndex: answerIndex,
		Correct:     correct,
		TimeTakenMs: timeTakenMs,
		Points:      points,
	}
	player.Answers[questionIndex] = answer
	player.Score += points

	total := player.Score
	name := player.Name
	answered := s.answeredCountLocked(questionIndex)
	complete := s.allAnsweredLocked(questionIndex)
	snap := s.snapshotLocked()

	g.registry.RouteTo(PlayerIdentity(pin, playerID), Event{Type: EventAnswerResult, Payload: AnswerResultPayload{
		QuestionIndex:      questionIndex,
		IsCorrect:          correct,
		PointsEarned:       points,
		CorrectAnswerIndex: question.CorrectIndex,
	}})
	g.registry.RouteTo(HostIdentity(pin), Event{Type: EventPlayerAnswered, Payload: PlayerAnsweredPayload{
		PlayerID:   playerID,
		Name:       name,
		IsCorrect:  correct,
		Points:     points,
		TotalScore: total,
		Answered:   answered,
	}})

	// Early grading once everyone answered; the pending deadline is
	// cancelled so grading cannot fire twice.
	if complete {
		g.gradeLocked(s)
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	g.persist(snap)
	return answer, nil
}

// EndGame force-finishes a session mid-game. Host-only.
func (g *GameService) EndGame(ctx context.Context, pin, callerID string) error {
	s, ok := g.sessions.Get(pin)
	if !ok {
		return domain.ErrSessionNotFound
	}

	s.mu.Lock()
	if s.status == domain.StatusFinished {
		s.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	if callerID != s.hostID {
		s.mu.Unlock()
		return domain.ErrNotHost
	}
	g.finishLocked(s)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	g.persist(snap)
	return nil
}

// VerifyHost checks that callerID is the host of the session behind pin,
// e.g. before handing out the host event stream.
func (g *GameService) VerifyHost(pin, callerID string) error {
	s, ok := g.sessions.Get(pin)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if s.HostID() != callerID {
		return domain.ErrNotHost
	}
	return nil
}

// Snapshot returns the session document for a pin in any state.
func (g *GameService) Snapshot(pin string) (domain.SessionSnapshot, error) {
	s, ok := g.sessions.Get(pin)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return s.Snapshot(), nil
}

// Leaderboard returns the current full ranking for a pin.
func (g *GameService) Leaderboard(pin string) ([]domain.LeaderboardEntry, error) {
	s, ok := g.sessions.Get(pin)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboardLocked(0), nil
}

// Results exposes the read-only export view once a session is finished.
func (g *GameService) Results(pin string) (domain.Results, error) {
	s, ok := g.sessions.Get(pin)
	if !ok {
		return domain.Results{}, domain.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusFinished {
		return domain.Results{}, domain.ErrInvalidState
	}

	players := make([]domain.PlayerResult, 0, len(s.players))
	for _, p := range s.players {
		correct := 0
		for _, ans := range p.Answers {
			if ans.Correct {
				correct++
			}
		}
		players = append(players, domain.PlayerResult{
			Name:           p.Name,
			Score:          p.Score,
			CorrectAnswers: correct,
		})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Score > players[j].Score })

	duration := 0.0
	if !s.startedAt.IsZero() && !s.endedAt.IsZero() {
		duration = s.endedAt.Sub(s.startedAt).Seconds()
	}
	return domain.Results{
		Pin:             s.pin,
		Players:         players,
		TotalQuestions:  len(s.questions),
		DurationSeconds: duration,
	}, nil
}

// startQuestionLocked enters QuestionActive(index): broadcasts the
// question (without its correct index) and arms the deadline timer.
func (g *GameService) startQuestionLocked(s *Session, index int) {
	s.current = index
	s.grading = false
	question := s.questions[index]

	g.registry.Broadcast(s.pin, Event{Type: EventQuestionStart, Payload: QuestionStartPayload{
		Index:     index,
		Text:      question.Text,
		Options:   question.Options,
		TimeLimit: question.TimeLimitSec,
	}})

	pin := s.pin
	s.armTimerLocked(question.TimeLimit(), func(gen int) {
		g.onQuestionDeadline(pin, index, gen)
	})
}

// onQuestionDeadline is the timer callback for QuestionActive(index). The
// generation check makes a timer that lost the race to early grading (or
// to a host end) a no-op.
func (g *GameService) onQuestionDeadline(pin string, index, gen int) {
	s, ok := g.sessions.Get(pin)
	if !ok {
		return
	}
	s.mu.Lock()
	if s.status != domain.StatusActive || s.grading || s.current != index || s.timerGen != gen {
		s.mu.Unlock()
		return
	}
	g.gradeLocked(s)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	g.persist(snap)
}

// gradeLocked enters QuestionGrading(current): records the no-answer
// sentinel for silent players, reveals the correct index with the top-10
// leaderboard, and arms the grading-interval timer toward the next
// question or the finish.
func (g *GameService) gradeLocked(s *Session) {
	index := s.current
	question := s.questions[index]
	s.grading = true

	for _, p := range s.players {
		if _, ok := p.Answers[index]; ok {
			continue
		}
		p.Answers[index] = domain.Answer{
			AnswerIndex: domain.NoAnswer,
			Correct:     false,
			TimeTakenMs: int64(question.TimeLimitSec) * 1000,
			Points:      0,
		}
	}

	payload := QuestionEndPayload{
		Index:              index,
		CorrectAnswerIndex: question.CorrectIndex,
	}
	if s.settings.ShowLeaderboard {
		payload.Leaderboard = s.leaderboardLocked(10)
	}
	g.registry.Broadcast(s.pin, Event{Type: EventQuestionEnd, Payload: payload})

	pin := s.pin
	s.armTimerLocked(g.opts.GradingInterval, func(gen int) {
		g.onGradingDone(pin, index, gen)
	})
}

// onGradingDone advances QuestionGrading(index) to the next question or to
// Finished.
func (g *GameService) onGradingDone(pin string, index, gen int) {
	s, ok := g.sessions.Get(pin)
	if !ok {
		return
	}
	s.mu.Lock()
	if s.status != domain.StatusActive || !s.grading || s.current != index || s.timerGen != gen {
		s.mu.Unlock()
		return
	}
	if index+1 < len(s.questions) {
		g.startQuestionLocked(s, index+1)
	} else {
		g.finishLocked(s)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	g.persist(snap)
}

// finishLocked is the terminal transition: cancels any pending timer,
// broadcasts the final leaderboard and schedules the reap that releases
// the pin after the retention window.
func (g *GameService) finishLocked(s *Session) {
	s.cancelTimerLocked()
	s.status = domain.StatusFinished
	s.endedAt = g.now()

	g.registry.Broadcast(s.pin, Event{Type: EventGameEnd, Payload: GameEndPayload{
		Leaderboard: s.leaderboardLocked(0),
	}})
	g.log.Info().Str("pin", s.pin).Int("players", len(s.players)).Msg("game finished")

	pin := s.pin
	time.AfterFunc(g.opts.Retention, func() { g.reap(pin) })
}

// reap drops a finished session and frees its pin for reuse.
func (g *GameService) reap(pin string) {
	s, ok := g.sessions.Get(pin)
	if !ok {
		return
	}
	if s.Status() != domain.StatusFinished {
		return
	}
	g.sessions.Delete(pin)
	g.pins.Release(pin)
	g.log.Debug().Str("pin", pin).Msg("session reaped")
}

// persist writes a session snapshot asynchronously. Store failures are
// logged and never block or roll back the state machine.
func (g *GameService) persist(snap domain.SessionSnapshot) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.sessions.SaveSnapshot(ctx, snap); err != nil {
			g.log.Warn().Err(err).Str("pin", snap.Pin).Msg("snapshot write failed")
		}
	}()
}
