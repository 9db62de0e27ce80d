package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizcast/internal/config"
	"quizcast/internal/dispatch"
	"quizcast/internal/progress"
	"quizcast/internal/quiz"
	"quizcast/internal/schedule"
	kit "quizcast/internal/transport"
	telegram "quizcast/internal/transport/telegram/adapter"
	logx "quizcast/pkg/logx"
	"quizcast/pkg/systemd"
)

var ErrNoSchedule = errors.New("schedule.spec is required for serve")

// MessengerFactory builds the outbound client for one run.
type MessengerFactory func(cfg *config.Config, log logx.Logger) (kit.Messenger, error)

type App struct {
	cfgm *config.ConfigManager

	log  logx.Logger
	logs *logx.Service

	levelOverride string
	newMessenger  MessengerFactory
	dispatchOpts  []dispatch.Option
	newRunID      func() string
}

type Option func(*App)

// WithMessengerFactory replaces the Telegram client (tests, dry runs).
func WithMessengerFactory(f MessengerFactory) Option {
	return func(a *App) {
		if f != nil {
			a.newMessenger = f
		}
	}
}

func WithDispatchOptions(opts ...dispatch.Option) Option {
	return func(a *App) { a.dispatchOpts = append(a.dispatchOpts, opts...) }
}

// WithLogLevel overrides logging.level from the config file.
func WithLogLevel(level string) Option {
	return func(a *App) { a.levelOverride = level }
}

// New reads the configuration (defaults, optional file, environment).
// Each command validates the parts it needs: `status` works without a token.
func New(cfgPath string, lookup config.LookupFunc, opts ...Option) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath, lookup)
	cfg, err := cfgm.Parse()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfgm.Commit(cfg)

	a := &App{
		cfgm:         cfgm,
		newMessenger: newTelegram,
		newRunID:     uuid.NewString,
	}
	for _, o := range opts {
		o(a)
	}

	logSvc, log := logx.New(mapLogConfig(cfg, a.levelOverride))
	a.logs = logSvc
	a.log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	return a, nil
}

func newTelegram(cfg *config.Config, log logx.Logger) (kit.Messenger, error) {
	ac, err := mapAdapterConfig(cfg)
	if err != nil {
		return nil, err
	}
	return telegram.New(ac, log)
}

func (a *App) Config() *config.Config { return a.cfgm.Get() }

func (a *App) Logger() logx.Logger { return a.log }

func (a *App) Close() error {
	if a.logs != nil {
		return a.logs.Close()
	}
	return nil
}

// RunOnce sends one batch. The returned error is run-level fatal;
// per-question failures are only in the report.
func (a *App) RunOnce(ctx context.Context) (dispatch.Report, error) {
	cfg := a.cfgm.Get()
	if err := cfg.Validate(); err != nil {
		return dispatch.Report{}, fmt.Errorf("invalid config: %w", err)
	}
	return a.run(ctx, cfg)
}

func (a *App) run(ctx context.Context, cfg *config.Config) (dispatch.Report, error) {
	runID := a.newRunID()
	log := a.log.With(logx.String("run_id", runID))

	// The question file is read before anything is sent, so a broken file
	// has no side effects.
	bank, err := quiz.LoadFile(cfg.Quiz.QuestionsPath)
	if err != nil {
		return dispatch.Report{}, fmt.Errorf("load questions: %w", err)
	}
	for _, p := range bank.Problems() {
		log.Warn("question will be skipped",
			logx.Int("index", p.Index),
			logx.String("question_id", p.ID),
			logx.Err(p.Err),
		)
	}

	pc, err := mapProgressConfig(cfg)
	if err != nil {
		return dispatch.Report{}, err
	}
	store, err := progress.Open(pc, log.With(logx.String("comp", "progress")))
	if err != nil {
		return dispatch.Report{}, fmt.Errorf("open progress store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("progress store close failed", logx.Err(err))
		}
	}()

	dc, err := mapDispatchConfig(cfg)
	if err != nil {
		return dispatch.Report{}, err
	}
	msg, err := a.newMessenger(cfg, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return dispatch.Report{}, fmt.Errorf("telegram client: %w", err)
	}

	d := dispatch.New(dc, msg, log.With(logx.String("comp", "dispatch")), a.dispatchOpts...)
	rep, err := d.Run(ctx, cfg.Telegram.Recipients, bank, store)
	if err != nil {
		return rep, err
	}
	log.Info("run finished",
		logx.Int("from", rep.From),
		logx.Int("to", rep.To),
		logx.Bool("exhausted", rep.Exhausted),
		logx.Duration("took", rep.Finished.Sub(rep.Started)),
	)
	return rep, nil
}

// Serve runs batches on the configured schedule until ctx is done, and
// applies config file edits without a restart.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.cfgm.Get()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	sc := mapScheduleConfig(cfg)
	if sc.Spec == "" {
		return ErrNoSchedule
	}
	if err := schedule.Validate(sc); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	sched := schedule.New(sc, a.log.With(logx.String("comp", "scheduler")), func(c context.Context) error {
		_, err := a.run(c, a.cfgm.Get())
		return err
	})
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	sub := a.cfgm.Subscribe(8)
	watchErr := make(chan error, 1)
	go func() { watchErr <- a.cfgm.Watch(ctx) }()

	if sent, err := systemd.Ready(); err != nil {
		a.log.Warn("systemd notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("systemd notified ready")
	}
	a.reportNext(sched)

	lastApplied := cfg
	for {
		select {
		case <-ctx.Done():
			a.shutdown(sched, sub, StopSignal)
			return nil
		case err := <-watchErr:
			if err != nil && ctx.Err() == nil {
				a.shutdown(sched, sub, StopFatalError)
				return fmt.Errorf("config watch: %w", err)
			}
			watchErr = nil
		case newCfg, ok := <-sub:
			if !ok {
				a.shutdown(sched, nil, StopFatalError)
				return errors.New("config subscription closed")
			}
			// Coalesce bursts: keep only the latest config in the channel.
			for drained := false; !drained; {
				select {
				case newer, more := <-sub:
					if !more {
						drained = true
					} else if newer != nil {
						newCfg = newer
					}
				default:
					drained = true
				}
			}
			if newCfg != nil {
				a.applyConfig(lastApplied, newCfg, sched)
				lastApplied = newCfg
			}
		}
	}
}

func (a *App) applyConfig(oldCfg, newCfg *config.Config, sched *schedule.Service) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	a.logs.Apply(mapLogConfig(newCfg, a.levelOverride))
	if err := sched.Apply(mapScheduleConfig(newCfg)); err != nil {
		a.log.Warn("invalid schedule; keeping previous", logx.Err(err))
	} else {
		a.reportNext(sched)
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

func (a *App) reportNext(sched *schedule.Service) {
	next, err := sched.Next()
	if err != nil {
		return
	}
	a.log.Info("next run scheduled", logx.Time("at", next))
	_, _ = systemd.Status("next run " + next.Format(time.RFC3339))
}

func (a *App) shutdown(sched *schedule.Service, sub chan *config.Config, reason StopReason) {
	a.log.Info("stopping", logx.String("reason", string(reason)))
	_, _ = systemd.Stopping()
	if sub != nil {
		a.cfgm.Unsubscribe(sub)
	}
	// A running batch is cancelled; its cursor is not advanced.
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sched.Stop(stopCtx)
	a.log.Info("stopped")
}
