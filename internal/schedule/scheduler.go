package schedule

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "quizcast/pkg/logx"
)

var ErrNotStarted = errors.New("scheduler not started")

type Config struct {
	Spec     string
	Timezone string // IANA TZ, e.g. "Europe/Berlin"; empty means Local
}

// Job is one scheduled run.
type Job func(ctx context.Context) error

// Service runs a single job on a cron or interval schedule.
type Service struct {
	mu sync.Mutex

	log    logx.Logger
	cfg    Config
	parser cron.Parser
	job    Job

	c      *cron.Cron
	entry  cron.EntryID
	loc    *time.Location
	runCtx context.Context
	cancel context.CancelFunc

	last     time.Time
	lastErr  error
	runCount int
}

func New(cfg Config, log logx.Logger, job Job) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg: cfg,
		log: log,
		job: job,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Validate checks a schedule without starting anything.
func Validate(cfg Config) error {
	s := New(cfg, logx.Nop(), nil)
	if _, err := s.schedule(cfg.Spec); err != nil {
		return err
	}
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
	}
	return nil
}

func (s *Service) schedule(raw string) (cron.Schedule, error) {
	p, err := ParseSchedule(raw)
	if err != nil {
		return nil, err
	}
	if p.Kind == SpecInterval {
		return cron.Every(p.Every), nil
	}
	sched, err := s.parser.Parse(p.Cron)
	if err != nil {
		return nil, fmt.Errorf("invalid cron %q: %w", p.Cron, err)
	}
	return sched, nil
}

// Start registers the job and starts the cron loop. Runs receive a context
// derived from ctx; Stop cancels it.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	sched, err := s.schedule(s.cfg.Spec)
	if err != nil {
		return err
	}
	s.runCtx, s.cancel = context.WithCancel(ctx)
	s.startLocked(sched)
	return nil
}

func (s *Service) startLocked(sched cron.Schedule) {
	loc := s.loadLocationLocked()
	s.loc = loc
	cl := cronLogger{log: s.log}
	s.c = cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.entry = s.c.Schedule(sched, cron.FuncJob(s.runJob))
	s.c.Start()
	s.log.Info("scheduler started",
		logx.String("spec", s.cfg.Spec),
		logx.String("tz", loc.String()),
		logx.Time("next", s.c.Entry(s.entry).Next),
	)
}

// Apply swaps the schedule or timezone. The new config is validated first;
// on error the running schedule is kept.
func (s *Service) Apply(cfg Config) error {
	s.mu.Lock()
	sched, err := s.schedule(cfg.Spec)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	changed := strings.TrimSpace(cfg.Spec) != strings.TrimSpace(s.cfg.Spec) ||
		strings.TrimSpace(cfg.Timezone) != strings.TrimSpace(s.cfg.Timezone)
	s.cfg = cfg
	old := s.c
	if old == nil || !changed {
		s.mu.Unlock()
		return nil
	}
	s.c = nil
	s.mu.Unlock()

	// Stop waits for a running job, which needs s.mu to record its result.
	<-old.Stop().Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil || s.c != nil {
		// stopped, or restarted concurrently
		return nil
	}
	s.startLocked(sched)
	s.log.Info("scheduler restarted", logx.String("spec", cfg.Spec))
	return nil
}

// Stop halts the trigger and cancels a running job, waiting until it
// returns or ctx is done.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c, cancel := s.c, s.cancel
	s.c, s.cancel = nil, nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out", logx.Err(ctx.Err()))
	}
}

// Next returns the next trigger time, or ErrNotStarted.
func (s *Service) Next() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return time.Time{}, ErrNotStarted
	}
	return s.c.Entry(s.entry).Next, nil
}

// Snapshot describes the last completed run.
type Snapshot struct {
	Runs    int
	Last    time.Time
	LastErr error
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Runs: s.runCount, Last: s.last, LastErr: s.lastErr}
}

func (s *Service) runJob() {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil || s.job == nil {
		return
	}

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic in scheduled run", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return s.job(ctx)
	}()

	s.mu.Lock()
	s.runCount++
	s.last = start
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("scheduled run failed", logx.Duration("took", time.Since(start)), logx.Err(err))
		return
	}
	s.log.Info("scheduled run ok", logx.Duration("took", time.Since(start)))
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}
