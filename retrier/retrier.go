package retrier

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"book-scraper/model"
)

// Policy bounds how often an operation is attempted. The wait before retry k
// (k >= 1) is Delay + (k-1)*Increment.
type Policy struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay"`
	Increment   time.Duration `mapstructure:"increment"`
}

// Backoff returns the wait before retry k.
func (p Policy) Backoff(k int) time.Duration {
	if k < 1 {
		return 0
	}
	d := p.Delay + time.Duration(k-1)*p.Increment
	if d < 0 {
		return 0
	}
	return d
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

type Runner struct {
	policy Policy
	stage  model.Stage
	log    zerolog.Logger
	timer  retry.Timer
}

func New(stage model.Stage, policy Policy, log zerolog.Logger) *Runner {
	return &Runner{policy: policy, stage: stage, log: log}
}

// WithTimer replaces the clock used for backoff waits.
func (r *Runner) WithTimer(timer retry.Timer) *Runner {
	r.timer = timer
	return r
}

func (r *Runner) Policy() Policy { return r.policy }

// Run calls op until it succeeds, fails with a non-transient error or runs
// out of attempts. It returns the number of attempts made. Running out of
// attempts yields an *model.ExhaustedError wrapping the last failure.
func Run[T any](ctx context.Context, r *Runner, address string, op func(ctx context.Context) (T, error)) (T, int, error) {
	maxAttempts := r.policy.attempts()
	attempt := 0

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(maxAttempts)),
		retry.LastErrorOnly(true),
		retry.RetryIf(model.IsTransient),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return r.policy.Backoff(attempt)
		}),
	}
	if r.timer != nil {
		opts = append(opts, retry.WithTimer(r.timer))
	}

	value, err := retry.DoWithData(func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err != nil && model.IsTransient(err) && attempt < maxAttempts {
			r.log.Warn().
				Str("stage", string(r.stage)).
				Str("url", address).
				Int("attempt", attempt).
				Int("max", maxAttempts).
				Err(err).
				Msg("retry")
		}
		return v, err
	}, opts...)

	if err == nil {
		return value, attempt, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return value, attempt, ctxErr
	}
	if model.IsTransient(err) && attempt >= maxAttempts {
		r.log.Error().
			Str("stage", string(r.stage)).
			Str("url", address).
			Int("attempt", attempt).
			Int("max", maxAttempts).
			Err(err).
			Msg("max attempts reached")
		return value, attempt, &model.ExhaustedError{Stage: r.stage, Address: address, Attempts: attempt, Err: err}
	}
	return value, attempt, err
}
