package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/iwvelando/finance-projection/internal/cashflow"
	"github.com/iwvelando/finance-projection/internal/projection"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testScenario() projection.Scenario {
	return projection.Scenario{
		Name:            "expansion",
		Type:            projection.Realistic,
		DiscountRate:    d("0.10"),
		BaselineCapital: decimal.NewNullDecimal(d("1000")),
		Series:          cashflow.FromNetProfits(d("500"), d("500"), d("500")),
	}
}

type backend struct {
	name   string
	ledger func(t *testing.T) *Ledger
}

func backends() []backend {
	return []backend{
		{
			name: "memory",
			ledger: func(t *testing.T) *Ledger {
				return NewMemory(nil)
			},
		},
		{
			name: "redis",
			ledger: func(t *testing.T) *Ledger {
				mr := miniredis.RunT(t)
				client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() { _ = client.Close() })
				return New(NewRedisStore(client, "test:", time.Hour), NewRedisLocker(client, "test:", time.Second), nil)
			},
		},
	}
}

func TestRegister(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			l := b.ledger(t)

			pos, err := l.Register(ctx, "s1", testScenario())
			require.NoError(t, err)
			assert.True(t, pos.Balance.Equal(d("1000")))
			assert.Equal(t, int64(1), pos.Version)
			assert.Equal(t, 3, pos.Metrics.PaybackPeriod)
			assert.True(t, pos.Metrics.ROI.Equal(d("150")))

			got, err := l.Get(ctx, "s1")
			require.NoError(t, err)
			assert.True(t, got.Balance.Equal(pos.Balance))
			assert.True(t, got.Metrics.Equal(pos.Metrics))

			_, err = l.Register(ctx, "s1", testScenario())
			assert.ErrorIs(t, err, ErrAlreadyRegistered)
		})
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	l := NewMemory(nil)
	ctx := context.Background()

	_, err := l.Register(ctx, "", testScenario())
	assert.ErrorIs(t, err, ErrMissingScenarioID)

	empty := testScenario()
	empty.Series = nil
	_, err = l.Register(ctx, "empty", empty)
	var ce *projection.ComputationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "expansion", ce.Scenario)

	_, err = l.Get(ctx, "empty")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestRegisterWithoutBaselineStartsAtZero(t *testing.T) {
	s := testScenario()
	s.BaselineCapital = decimal.NullDecimal{}

	pos, err := NewMemory(nil).Register(context.Background(), "s1", s)
	require.NoError(t, err)
	assert.True(t, pos.Balance.IsZero())
	assert.Equal(t, 0, pos.Metrics.PaybackPeriod)
	assert.True(t, pos.Metrics.PaybackReached)
}

func TestApply(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			l := b.ledger(t)
			_, err := l.Register(ctx, "s1", testScenario())
			require.NoError(t, err)

			pos, applied, err := l.Apply(ctx, "s1", Posting{Key: "p1", Amount: d("500"), Reason: "equipment"})
			require.NoError(t, err)
			assert.True(t, applied)
			assert.True(t, pos.Balance.Equal(d("1500")))
			assert.Equal(t, int64(2), pos.Version)

			want, err := projection.Calculate(testScenario().Series, d("0.10"), d("1500"))
			require.NoError(t, err)
			assert.True(t, pos.Metrics.Equal(want), "metrics should follow the new balance")
			assert.Equal(t, 3, pos.Metrics.PaybackPeriod)
			assert.True(t, pos.Metrics.ROI.Equal(d("100")))

			pos, applied, err = l.Apply(ctx, "s1", Posting{Key: "p1", Amount: d("500")})
			require.NoError(t, err)
			assert.False(t, applied, "a repeated key must not apply twice")
			assert.True(t, pos.Balance.Equal(d("1500")))
			assert.Equal(t, int64(2), pos.Version)

			pos, applied, err = l.Apply(ctx, "s1", Posting{Key: "p2", Amount: d("-1500")})
			require.NoError(t, err)
			assert.True(t, applied)
			assert.True(t, pos.Balance.IsZero())
			assert.True(t, pos.Metrics.ROI.IsZero())
		})
	}
}

func TestApplyErrors(t *testing.T) {
	ctx := context.Background()
	l := NewMemory(nil)

	_, _, err := l.Apply(ctx, "missing", Posting{Key: "p1", Amount: d("1")})
	assert.ErrorIs(t, err, ErrUnknownScenario)

	_, err = l.Register(ctx, "s1", testScenario())
	require.NoError(t, err)
	_, _, err = l.Apply(ctx, "s1", Posting{Amount: d("1")})
	assert.ErrorIs(t, err, ErrMissingPostingKey)
}

func TestApplyConcurrentWritersAreSerialized(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			l := b.ledger(t)
			_, err := l.Register(ctx, "s1", testScenario())
			require.NoError(t, err)

			const writers = 20
			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, _, err := l.Apply(ctx, "s1", Posting{Key: fmt.Sprintf("p%d", i), Amount: d("10")})
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			pos, err := l.Get(ctx, "s1")
			require.NoError(t, err)
			assert.True(t, pos.Balance.Equal(d("1200")), "balance = %s", pos.Balance)
			assert.Equal(t, int64(writers+1), pos.Version)
		})
	}
}

func TestWithClock(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemory(nil, WithClock(func() time.Time { return fixed }))
	pos, err := l.Register(context.Background(), "s1", testScenario())
	require.NoError(t, err)
	assert.Equal(t, fixed, pos.UpdatedAt)
}

func TestLocalLockerHonorsContext(t *testing.T) {
	locker := NewLocalLocker()
	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "k")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	_, err = locker.Lock(context.Background(), "other")
	require.NoError(t, err, "locks on different keys are independent")

	require.NoError(t, unlock(context.Background()))
	require.NoError(t, unlock(context.Background()), "unlock is safe to repeat")

	again, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	require.NoError(t, again(context.Background()))
}

func TestRedisLockerHonorsContext(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	locker := NewRedisLocker(client, "test:", time.Second)
	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "k")
	require.Error(t, err)

	require.NoError(t, unlock(context.Background()))
	again, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	require.NoError(t, again(context.Background()))
}

func TestMemoryStoreIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	pos := Position{ScenarioID: "s1", Scenario: testScenario()}
	require.NoError(t, store.Save(ctx, pos))

	pos.Scenario.Series[0].NetProfit = d("0")

	loaded, ok, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, loaded.Scenario.Series[0].NetProfit.Equal(d("500")))
}

func TestMemoryStorePostingKeysExpire(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Hour)
	store.now = func() time.Time { return clock }

	l := New(store, NewLocalLocker(), nil)
	_, err := l.Register(ctx, "s1", testScenario())
	require.NoError(t, err)

	_, applied, err := l.Apply(ctx, "s1", Posting{Key: "p1", Amount: d("100")})
	require.NoError(t, err)
	require.True(t, applied)

	clock = clock.Add(59 * time.Minute)
	pos, applied, err := l.Apply(ctx, "s1", Posting{Key: "p1", Amount: d("100")})
	require.NoError(t, err)
	assert.False(t, applied, "a replay inside the window is ignored")
	assert.True(t, pos.Balance.Equal(d("1100")))

	clock = clock.Add(2 * time.Minute)
	_, applied, err = l.Apply(ctx, "s1", Posting{Key: "p2", Amount: d("1")})
	require.NoError(t, err)
	require.True(t, applied)
	assert.NotContains(t, store.applied["s1"], "p1", "expired keys are pruned on write")
	assert.Contains(t, store.applied["s1"], "p2")

	pos, applied, err = l.Apply(ctx, "s1", Posting{Key: "p1", Amount: d("100")})
	require.NoError(t, err)
	assert.True(t, applied, "a key past the window is applied again")
	assert.True(t, pos.Balance.Equal(d("1201")))
}

func TestRedisStoreKeepsPostingKeysOutOfPosition(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := New(NewRedisStore(client, "t:", time.Hour), NewRedisLocker(client, "t:", time.Second), nil)
	_, err := l.Register(ctx, "s1", testScenario())
	require.NoError(t, err)
	var early string
	for i := 0; i < 50; i++ {
		_, applied, err := l.Apply(ctx, "s1", Posting{Key: fmt.Sprintf("p%d", i), Amount: d("1")})
		require.NoError(t, err)
		require.True(t, applied)
		if i == 9 {
			early, err = mr.Get("t:position:s1")
			require.NoError(t, err)
		}
	}

	stored, err := mr.Get("t:position:s1")
	require.NoError(t, err)
	assert.NotContains(t, stored, "p49")
	// 40 more postings would add hundreds of bytes if keys lived in the value.
	assert.InDelta(t, len(early), len(stored), 40, "position size does not grow with postings")

	require.True(t, mr.Exists("t:posting:s1:p0"))
	assert.Equal(t, time.Hour, mr.TTL("t:posting:s1:p0"))

	mr.FastForward(time.Hour + time.Second)
	assert.False(t, mr.Exists("t:posting:s1:p0"))
	pos, applied, err := l.Apply(ctx, "s1", Posting{Key: "p0", Amount: d("1")})
	require.NoError(t, err)
	assert.True(t, applied, "an expired key is applied again")
	assert.True(t, pos.Balance.Equal(d("1051")))
}
