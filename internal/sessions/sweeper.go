package sessions

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gamenight/backend/internal/logging"
)

// ExpirySweeper expires overdue invitations.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper runs an ExpirySweeper on a fixed interval until shut down.
type Sweeper struct {
	target   ExpirySweeper
	interval time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewSweeper starts a background loop sweeping target every interval.
func NewSweeper(target ExpirySweeper, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Sweeper{
		target:   target,
		interval: interval,
		logger:   logger,
		ctx:      logging.WithLogger(ctx, logger),
		cancel:   cancel,
	}

	s.wg.Add(1)
	go s.run()

	return s
}

// Shutdown stops the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Shutdown(ctx context.Context) error {
	s.once.Do(s.cancel)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.target.SweepExpired(s.ctx); err != nil {
				s.logger.Error("invitation sweep failed", "error", err)
			}
		}
	}
}
