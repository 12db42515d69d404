package app

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"provia-quiz-service/internal/domain"
)

// Battle is a short timed duel against a simulated opponent.
type Battle struct {
	id        string
	opponent  domain.Opponent
	questions []domain.QuestionRecord
	stake     int
	now       func() time.Time
	chance    func() float64

	mu            sync.Mutex
	index         int
	rounds        []domain.BattleRound
	playerScore   int
	opponentScore int
	deadline      time.Time
	outcome       domain.BattleOutcome
	payout        int
}

// NewBattle starts the clock on the first question. chance returns values in
// [0,1) and drives the opponent's answers.
func NewBattle(id string, opponent domain.Opponent, questions []domain.QuestionRecord, stake int, now func() time.Time, chance func() float64) *Battle {
	b := &Battle{
		id:        id,
		opponent:  opponent,
		questions: questions,
		stake:     stake,
		now:       now,
		chance:    chance,
	}
	b.deadline = now().Add(domain.BattleQuestionTime)
	return b
}

// Answer plays option for the current question. An answer after the question
// timer ran out counts as a timeout.
func (b *Battle) Answer(option int) (domain.BattleSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.outcome != domain.OutcomePending {
		return b.snapshotLocked(), domain.ErrBattleFinished
	}
	q := b.questions[b.index]
	if option < 0 || option >= len(q.Options) {
		return b.snapshotLocked(), domain.ErrOptionOutOfRange
	}
	round := domain.BattleRound{QuestionID: q.ID}
	if b.now().After(b.deadline) {
		round.TimedOut = true
	} else {
		chosen := option
		round.PlayerOption = &chosen
		round.PlayerCorrect = option == q.CorrectOptionIndex
	}
	b.playRoundLocked(round)
	return b.snapshotLocked(), nil
}

// Timeout forfeits the current question.
func (b *Battle) Timeout() (domain.BattleSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.outcome != domain.OutcomePending {
		return b.snapshotLocked(), domain.ErrBattleFinished
	}
	b.playRoundLocked(domain.BattleRound{QuestionID: b.questions[b.index].ID, TimedOut: true})
	return b.snapshotLocked(), nil
}

// Snapshot returns the transport view of the battle.
func (b *Battle) Snapshot() domain.BattleSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Outcome returns the final standing, or OutcomePending.
func (b *Battle) Outcome() domain.BattleOutcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outcome
}

func (b *Battle) playRoundLocked(round domain.BattleRound) {
	round.OpponentCorrect = b.chance() < float64(b.opponent.WinRate)/100
	if round.PlayerCorrect {
		b.playerScore++
	}
	if round.OpponentCorrect {
		b.opponentScore++
	}
	b.rounds = append(b.rounds, round)
	b.index++
	if b.index < len(b.questions) {
		b.deadline = b.now().Add(domain.BattleQuestionTime)
		return
	}
	switch {
	case b.playerScore > b.opponentScore:
		b.outcome = domain.OutcomeWon
	case b.playerScore == b.opponentScore:
		b.outcome = domain.OutcomeTie
	default:
		b.outcome = domain.OutcomeLost
	}
}

func (b *Battle) snapshotLocked() domain.BattleSnapshot {
	snap := domain.BattleSnapshot{
		ID:            b.id,
		Opponent:      b.opponent,
		Index:         b.index,
		Total:         len(b.questions),
		PlayerScore:   b.playerScore,
		OpponentScore: b.opponentScore,
		Rounds:        append([]domain.BattleRound(nil), b.rounds...),
		Stake:         b.stake,
		Outcome:       b.outcome,
		XP:            b.outcome.XP(),
		Payout:        b.payout,
	}
	if b.outcome == domain.OutcomePending {
		q := b.questions[b.index]
		snap.Question = &domain.QuestionView{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Options: append([]string(nil), q.Options...),
			Topic:   q.Topic,
			Day:     q.Day,
		}
		deadline := b.deadline
		snap.Deadline = &deadline
	}
	return snap
}

// BattleService runs one battle per user and settles credit stakes.
type BattleService struct {
	sampler  *Sampler
	progress *ProgressTracker
	logger   *slog.Logger
	now      func() time.Time
	chance   func() float64

	mu      sync.Mutex
	battles map[string]*Battle
}

func NewBattleService(sampler *Sampler, progress *ProgressTracker, logger *slog.Logger) *BattleService {
	var mu sync.Mutex
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	chance := func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return rnd.Float64()
	}
	return NewBattleServiceWithRand(sampler, progress, logger, time.Now, chance)
}

// NewBattleServiceWithRand is used by tests to script the opponent.
func NewBattleServiceWithRand(sampler *Sampler, progress *ProgressTracker, logger *slog.Logger, now func() time.Time, chance func() float64) *BattleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BattleService{
		sampler:  sampler,
		progress: progress,
		logger:   logger,
		now:      now,
		chance:   chance,
		battles:  make(map[string]*Battle),
	}
}

// Start spends stake and opens a battle against opponentID, replacing any
// battle the user had in progress.
func (s *BattleService) Start(ctx context.Context, userID, opponentID string, stake int) (domain.BattleSnapshot, error) {
	opponent, err := domain.OpponentByID(opponentID)
	if err != nil {
		return domain.BattleSnapshot{}, err
	}
	if stake < 0 {
		stake = 0
	}
	questions, err := s.sampler.SampleMock(ctx, 1, domain.CurriculumDays, domain.BattleQuestionCount)
	if err != nil || len(questions) < domain.BattleQuestionCount {
		questions = domain.BattleQuestions()
	}
	if stake > 0 {
		if _, err := s.progress.SpendCredits(ctx, userID, stake); err != nil {
			return domain.BattleSnapshot{}, err
		}
	}
	battle := NewBattle(uuid.NewString(), opponent, questions, stake, s.now, s.chance)

	s.mu.Lock()
	s.battles[userID] = battle
	s.mu.Unlock()

	s.logger.Info("battle started", "user", userID, "battle", battle.id, "opponent", opponent.ID, "stake", stake)
	return battle.Snapshot(), nil
}

// Answer plays option in the user's battle.
func (s *BattleService) Answer(ctx context.Context, userID string, option int) (domain.BattleSnapshot, error) {
	battle, err := s.Current(userID)
	if err != nil {
		return domain.BattleSnapshot{}, err
	}
	snap, err := battle.Answer(option)
	if err != nil {
		return snap, err
	}
	return s.settle(ctx, userID, battle, snap)
}

// Timeout forfeits the current question of the user's battle.
func (s *BattleService) Timeout(ctx context.Context, userID string) (domain.BattleSnapshot, error) {
	battle, err := s.Current(userID)
	if err != nil {
		return domain.BattleSnapshot{}, err
	}
	snap, err := battle.Timeout()
	if err != nil {
		return snap, err
	}
	return s.settle(ctx, userID, battle, snap)
}

// Current returns the user's latest battle.
func (s *BattleService) Current(userID string) (*Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	battle, ok := s.battles[userID]
	if !ok {
		return nil, domain.ErrBattleNotFound
	}
	return battle, nil
}

// settle pays out twice the stake on a win.
func (s *BattleService) settle(ctx context.Context, userID string, battle *Battle, snap domain.BattleSnapshot) (domain.BattleSnapshot, error) {
	if snap.Outcome == domain.OutcomePending {
		return snap, nil
	}
	s.logger.Info("battle finished", "user", userID, "battle", battle.id, "outcome", snap.Outcome, "xp", snap.XP)
	if snap.Outcome != domain.OutcomeWon || battle.stake == 0 {
		return snap, nil
	}
	payout := 2 * battle.stake
	if _, err := s.progress.AddCredits(ctx, userID, payout); err != nil {
		return snap, err
	}
	battle.mu.Lock()
	battle.payout = payout
	battle.mu.Unlock()
	snap.Payout = payout
	return snap, nil
}
