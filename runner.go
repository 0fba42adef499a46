package oakquery

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultSlowThreshold is the slow statement threshold of a Runner created
// without WithSlowThreshold.
const DefaultSlowThreshold = 100 * time.Millisecond

// SlowHook is called when a statement takes longer than the slow threshold.
type SlowHook func(ctx context.Context, stmt Statement, duration time.Duration)

// Runner executes statements on a database handle, logging each one and
// collecting statistics. It is safe for concurrent use.
//
//	r := oakquery.NewRunner(db,
//	    oakquery.WithLogger(logger),
//	    oakquery.WithSlowThreshold(200*time.Millisecond),
//	)
//	res, err := r.Exec(ctx, ins.Build())
//	fmt.Println(r.Stats())
type Runner struct {
	db            Execer
	logger        *slog.Logger
	slowThreshold time.Duration
	slowHook      SlowHook
	stats         runnerStats
}

type runnerStats struct {
	queries  atomic.Int64
	execs    atomic.Int64
	duration atomic.Int64 // nanoseconds
	slow     atomic.Int64
	errors   atomic.Int64
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger. Statements are logged at debug level and slow
// statements at warn level. Default is slog.Default().
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSlowThreshold sets the duration above which a statement counts as
// slow. Zero disables slow statement detection.
func WithSlowThreshold(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.slowThreshold = d
	}
}

// WithSlowHook sets a callback run for every slow statement, in addition to
// the warning log.
func WithSlowHook(hook SlowHook) RunnerOption {
	return func(r *Runner) {
		r.slowHook = hook
	}
}

// NewRunner returns a Runner executing on db.
func NewRunner(db Execer, opts ...RunnerOption) *Runner {
	r := &Runner{
		db:            db,
		logger:        slog.Default(),
		slowThreshold: DefaultSlowThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Exec runs an insert, update or other statement without result rows.
func (r *Runner) Exec(ctx context.Context, s Statement) (sql.Result, error) {
	start := time.Now()
	res, err := s.Exec(ctx, r.db)
	r.record(ctx, s, start, err, false)
	return res, err
}

// Query runs a statement returning rows. The recorded duration ends when the
// first rows are available.
func (r *Runner) Query(ctx context.Context, s Statement) (*sql.Rows, error) {
	start := time.Now()
	rows, err := s.Query(ctx, r.db)
	r.record(ctx, s, start, err, true)
	return rows, err
}

func (r *Runner) record(ctx context.Context, s Statement, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		r.stats.queries.Add(1)
	} else {
		r.stats.execs.Add(1)
	}
	r.stats.duration.Add(int64(duration))

	attrs := []any{"sql", s.SQL(), "args", s.NumArgs(), "duration", duration}
	if err != nil {
		r.stats.errors.Add(1)
		r.logger.ErrorContext(ctx, "statement failed", append(attrs, "error", err)...)
	} else {
		r.logger.DebugContext(ctx, "statement executed", attrs...)
	}

	if r.slowThreshold > 0 && duration > r.slowThreshold {
		r.stats.slow.Add(1)
		r.logger.WarnContext(ctx, "slow statement detected", attrs...)
		if r.slowHook != nil {
			r.slowHook(ctx, s, duration)
		}
	}
}

// Stats returns a snapshot of the statistics collected so far.
func (r *Runner) Stats() Stats {
	return Stats{
		Queries:       r.stats.queries.Load(),
		Execs:         r.stats.execs.Load(),
		TotalDuration: time.Duration(r.stats.duration.Load()),
		Slow:          r.stats.slow.Load(),
		Errors:        r.stats.errors.Load(),
	}
}

// ResetStats sets all statistics to zero.
func (r *Runner) ResetStats() {
	r.stats.queries.Store(0)
	r.stats.execs.Store(0)
	r.stats.duration.Store(0)
	r.stats.slow.Store(0)
	r.stats.errors.Store(0)
}

// Stats is a point-in-time snapshot of Runner statistics.
type Stats struct {
	Queries       int64
	Execs         int64
	TotalDuration time.Duration
	Slow          int64
	Errors        int64
}

// AvgDuration returns the average statement duration.
func (s Stats) AvgDuration() time.Duration {
	total := s.Queries + s.Execs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.Queries, s.Execs, s.TotalDuration, s.AvgDuration(), s.Slow, s.Errors,
	)
}
