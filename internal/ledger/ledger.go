// Package ledger owns the cash position of each registered scenario. Every
// change goes through Apply, which serializes writers per scenario and
// recomputes the projection metrics from the updated position.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/finance-projection/internal/projection"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Posting is a signed change to a scenario's cash position. Key makes the
// posting idempotent: a key applied within the store's retention window is
// acknowledged without changing the position again.
type Posting struct {
	Key    string          `json:"key"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason,omitempty"`
}

// Position is the stored state of one scenario.
type Position struct {
	ScenarioID string              `json:"scenario_id"`
	Scenario   projection.Scenario `json:"scenario"`
	Balance    decimal.Decimal     `json:"balance"`
	Version    int64               `json:"version"`
	Metrics    projection.Metrics  `json:"metrics"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func (p Position) clone() Position {
	out := p
	out.Scenario.Series = p.Scenario.Series.Clone()
	out.Scenario.Metrics = nil
	return out
}

// Ledger serializes position updates through a Locker and persists them
// through a Store.
type Ledger struct {
	store  Store
	locker Locker
	logger *zap.Logger
	now    func() time.Time
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock replaces the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates a ledger over the given store and locker.
// If logger is nil, it will use a no-op logger to prevent panics.
func New(store Store, locker Locker, logger *zap.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		store:  store,
		locker: locker,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewMemory creates a ledger backed by an in-process store and lock that
// remembers posting keys for DefaultPostingKeyTTL.
func NewMemory(logger *zap.Logger, opts ...Option) *Ledger {
	return New(NewMemoryStore(DefaultPostingKeyTTL), NewLocalLocker(), logger, opts...)
}

// Register creates the position for a scenario. The opening balance is the
// scenario's baseline capital, or zero when unset. Registering an existing
// scenario fails with ErrAlreadyRegistered.
func (l *Ledger) Register(ctx context.Context, id string, scenario projection.Scenario) (Position, error) {
	if id == "" {
		return Position{}, ErrMissingScenarioID
	}

	unlock, err := l.locker.Lock(ctx, id)
	if err != nil {
		return Position{}, fmt.Errorf("failed to lock scenario %q: %w", id, err)
	}
	defer l.release(unlock, id, "ledger.Register")

	if _, ok, err := l.store.Load(ctx, id); err != nil {
		return Position{}, fmt.Errorf("failed to load scenario %q: %w", id, err)
	} else if ok {
		return Position{}, fmt.Errorf("scenario %q: %w", id, ErrAlreadyRegistered)
	}

	balance := decimal.Zero
	if scenario.BaselineCapital.Valid {
		balance = scenario.BaselineCapital.Decimal
	}
	metrics, err := projection.Calculate(scenario.Series, scenario.DiscountRate, balance)
	if err != nil {
		var ce *projection.ComputationError
		if errors.As(err, &ce) {
			ce.Scenario = scenario.Name
		}
		return Position{}, err
	}

	scenario.Series = scenario.Series.Clone()
	scenario.Metrics = nil
	pos := Position{
		ScenarioID: id,
		Scenario:   scenario,
		Balance:    balance,
		Version:    1,
		Metrics:    metrics,
		UpdatedAt:  l.now(),
	}
	if err := l.store.Save(ctx, pos); err != nil {
		return Position{}, fmt.Errorf("failed to save scenario %q: %w", id, err)
	}

	l.logger.Info("registered scenario",
		zap.String("op", "ledger.Register"),
		zap.String("scenario", id),
		zap.String("balance", balance.StringFixed(2)),
	)
	return pos, nil
}

// Apply adds the posting's amount to the scenario's balance and recomputes
// its metrics with the new balance as baseline capital. The load, update
// and save happen under the scenario's lock. The returned bool is false
// when the posting's key had already been applied.
func (l *Ledger) Apply(ctx context.Context, id string, posting Posting) (Position, bool, error) {
	if posting.Key == "" {
		return Position{}, false, ErrMissingPostingKey
	}

	unlock, err := l.locker.Lock(ctx, id)
	if err != nil {
		return Position{}, false, fmt.Errorf("failed to lock scenario %q: %w", id, err)
	}
	defer l.release(unlock, id, "ledger.Apply")

	current, ok, err := l.store.Load(ctx, id)
	if err != nil {
		return Position{}, false, fmt.Errorf("failed to load scenario %q: %w", id, err)
	}
	if !ok {
		return Position{}, false, fmt.Errorf("scenario %q: %w", id, ErrUnknownScenario)
	}

	seen, err := l.store.Applied(ctx, id, posting.Key)
	if err != nil {
		return Position{}, false, fmt.Errorf("failed to check posting %q for scenario %q: %w", posting.Key, id, err)
	}
	if seen {
		l.logger.Debug("posting already applied",
			zap.String("op", "ledger.Apply"),
			zap.String("scenario", id),
			zap.String("key", posting.Key),
		)
		return current, false, nil
	}

	next := current.clone()
	next.Balance = current.Balance.Add(posting.Amount)
	metrics, err := projection.Calculate(next.Scenario.Series, next.Scenario.DiscountRate, next.Balance)
	if err != nil {
		return Position{}, false, fmt.Errorf("failed to recompute metrics for scenario %q: %w", id, err)
	}
	next.Metrics = metrics
	next.Version = current.Version + 1
	next.UpdatedAt = l.now()

	if err := l.store.SaveApplied(ctx, next, posting.Key); err != nil {
		return Position{}, false, fmt.Errorf("failed to save scenario %q: %w", id, err)
	}

	l.logger.Debug("applied posting",
		zap.String("op", "ledger.Apply"),
		zap.String("scenario", id),
		zap.String("key", posting.Key),
		zap.String("amount", posting.Amount.String()),
		zap.String("balance", next.Balance.StringFixed(2)),
		zap.Int64("version", next.Version),
	)
	return next, true, nil
}

// Get returns the current position of a scenario.
func (l *Ledger) Get(ctx context.Context, id string) (Position, error) {
	pos, ok, err := l.store.Load(ctx, id)
	if err != nil {
		return Position{}, fmt.Errorf("failed to load scenario %q: %w", id, err)
	}
	if !ok {
		return Position{}, fmt.Errorf("scenario %q: %w", id, ErrUnknownScenario)
	}
	return pos, nil
}

func (l *Ledger) release(unlock UnlockFunc, id, op string) {
	// The caller's context may already be done; release must still run.
	if err := unlock(context.Background()); err != nil {
		l.logger.Warn("failed to release scenario lock",
			zap.String("op", op),
			zap.String("scenario", id),
			zap.Error(err),
		)
	}
}
