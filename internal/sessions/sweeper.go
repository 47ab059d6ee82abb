package sessions

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Sweeper periodically removes expired sessions from a Store.
type Sweeper struct {
	store     Store
	scheduler gocron.Scheduler
	logger    *log.Logger
	now       func() time.Time
	timeout   time.Duration
}

// SweeperOptions tunes a Sweeper.
type SweeperOptions struct {
	Interval time.Duration
	Timeout  time.Duration
	Logger   *log.Logger
	Now      func() time.Time
}

// NewSweeper registers the sweep job. Call Start to begin running it.
func NewSweeper(store Store, opts SweeperOptions) (*Sweeper, error) {
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", opts.Interval)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Timeout <= 0 {
		opts.Timeout = opts.Interval
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	s := &Sweeper{
		store:     store,
		scheduler: scheduler,
		logger:    opts.Logger,
		now:       opts.Now,
		timeout:   opts.Timeout,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(opts.Interval),
		gocron.NewTask(s.sweep),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("register sweep job: %w", err)
	}
	return s, nil
}

// Start begins running the job in the background.
func (s *Sweeper) Start() {
	s.scheduler.Start()
	s.logger.Println("sessions: sweeper started")
}

// Stop waits for a running sweep and stops the scheduler.
func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}

// SweepNow runs one sweep synchronously and returns the removed count.
func (s *Sweeper) SweepNow(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.DeleteExpired(ctx, s.now())
}

func (s *Sweeper) sweep() {
	removed, err := s.SweepNow(context.Background())
	if err != nil {
		s.logger.Printf("sessions: sweep failed: %v", err)
		return
	}
	if removed > 0 {
		s.logger.Printf("sessions: removed %d expired sessions", removed)
	}
}
