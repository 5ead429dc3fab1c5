// Package tick drives the periodic simulation task of the arena. A Scheduler runs exactly one task, once per tick,
// until its context is cancelled.
package tick

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrAlreadyScheduled = eris.New("a task is already scheduled")
	ErrNothingScheduled = eris.New("no task has been scheduled")
	ErrInvalidInterval  = eris.New("tick interval must be positive")
	ErrAlreadyRunning   = eris.New("scheduler is already running")
)

// Task is invoked once per tick with the wall clock time the tick fired at. An error is logged and does not stop
// the scheduler.
type Task func(ctx context.Context, now time.Time) error

type Option func(*Scheduler)

// WithTickChannel replaces the interval ticker, so each value received on ch fires exactly one tick. Tests use it
// for fine-grained control over when ticks are executed.
func WithTickChannel(ch <-chan time.Time) Option {
	return func(s *Scheduler) {
		s.tickChannel = ch
	}
}

// WithTickDoneChannel makes the scheduler send the number of each completed tick, starting at 0, on ch.
func WithTickDoneChannel(ch chan<- uint64) Option {
	return func(s *Scheduler) {
		s.tickDoneChannel = ch
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

type Scheduler struct {
	mu       sync.Mutex
	name     string
	interval time.Duration
	task     Task

	tickChannel     <-chan time.Time
	tickDoneChannel chan<- uint64

	currentTick atomic.Uint64
	running     atomic.Bool
	logger      zerolog.Logger
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule installs task to run every interval. Only one task can ever be installed.
func (s *Scheduler) Schedule(name string, interval time.Duration, task Task) error {
	if interval <= 0 {
		return eris.Wrapf(ErrInvalidInterval, "got %s", interval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task != nil {
		return eris.Wrapf(ErrAlreadyScheduled, "cannot schedule %q, %q is installed", name, s.name)
	}
	s.name = name
	s.interval = interval
	s.task = task
	return nil
}

// Run blocks, firing the scheduled task on every tick, until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	task, name, interval, tickCh := s.task, s.name, s.interval, s.tickChannel
	s.mu.Unlock()
	if task == nil {
		return eris.Wrap(ErrNothingScheduled, "")
	}
	if !s.running.CompareAndSwap(false, true) {
		return eris.Wrap(ErrAlreadyRunning, "")
	}
	defer s.running.Store(false)

	if tickCh == nil {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tickCh = ticker.C
	}

	logger := s.logger.With().Str("task", name).Logger()
	logger.Info().Dur("interval", interval).Msg("Tick loop started")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Uint64("ticks", s.CurrentTick()).Msg("Tick loop stopped")
			return nil
		case now, ok := <-tickCh:
			if !ok {
				return eris.New("tick channel has been closed")
			}
			s.tickOnce(ctx, &logger, task, now)
		}
	}
}

func (s *Scheduler) tickOnce(ctx context.Context, logger *zerolog.Logger, task Task, now time.Time) {
	currTick := s.currentTick.Load()
	if err := task(ctx, now); err != nil {
		logger.Error().Err(err).Uint64("tick", currTick).Msgf("tick failed: %s", eris.ToString(err, true))
	}
	s.currentTick.Add(1)
	if s.tickDoneChannel != nil {
		select {
		case s.tickDoneChannel <- currTick:
		case <-ctx.Done():
		}
	}
}

// CurrentTick is the number of ticks completed so far.
func (s *Scheduler) CurrentTick() uint64 {
	return s.currentTick.Load()
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// TaskNames returns the names of the installed tasks.
func (s *Scheduler) TaskNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task == nil {
		return []string{}
	}
	return []string{s.name}
}
