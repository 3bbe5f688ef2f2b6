package scheduler

import (
	"context"
	"time"

	"github.com/loomline/backend/internal/logger"
	"github.com/loomline/backend/internal/metrics"
	"github.com/loomline/backend/internal/repository"
	"go.uber.org/zap"
)

// Publisher flips scheduled threads to published once their publish time
// has elapsed. It fires once per minute, aligned to the wall-clock minute
// boundary, and each run is one transaction: either every due thread
// transitions or none do. A failed run leaves the threads scheduled and the
// next tick retries them.
type Publisher struct {
	repo   repository.PublicationRepository
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPublisher creates a publication job around the given repository.
func NewPublisher(repo repository.PublicationRepository) *Publisher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Publisher{
		repo:   repo,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the periodic publication loop.
func (p *Publisher) Start() {
	logger.Log.Info("Starting scheduled publication job")
	go p.run()
}

// Stop stops the publication loop.
func (p *Publisher) Stop() {
	logger.Log.Info("Stopping scheduled publication job")
	p.cancel()
}

// run waits for the next minute boundary, then ticks once per minute. A
// slow run delays the next tick but never skips its matching set: due
// threads stay due until published.
func (p *Publisher) run() {
	untilBoundary := time.Until(time.Now().Truncate(time.Minute).Add(time.Minute))
	select {
	case <-time.After(untilBoundary):
	case <-p.ctx.Done():
		return
	}

	p.PublishDue(time.Now())

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.PublishDue(time.Now())
		case <-p.ctx.Done():
			return
		}
	}
}

// PublishDue executes one publication run for the given reference time and
// returns how many threads transitioned. Re-running with no new due
// threads changes nothing: the scheduled-status predicate no longer
// matches anything already published.
func (p *Publisher) PublishDue(now time.Time) int64 {
	m := metrics.Get()

	var promoted int64
	err := p.repo.Transaction(p.ctx, func(tx repository.PublicationRepository) error {
		due, err := tx.FindScheduledDue(p.ctx, now)
		if err != nil {
			return err
		}
		if len(due) == 0 {
			return nil
		}

		promoted, err = tx.PublishAll(p.ctx, due)
		return err
	})

	if err != nil {
		// Transaction rolled back; the threads are still scheduled and
		// the next tick picks them up
		m.PublisherRunsTotal.WithLabelValues("error").Inc()
		logger.Log.Error("Publication run failed", zap.Error(err))
		return 0
	}

	if promoted == 0 {
		m.PublisherRunsTotal.WithLabelValues("noop").Inc()
		logger.Log.Debug("No scheduled threads due")
		return 0
	}

	m.PublisherRunsTotal.WithLabelValues("published").Inc()
	m.PublisherThreadsPromoted.Add(float64(promoted))
	logger.Log.Info("Published scheduled threads",
		zap.Int64("count", promoted),
	)
	return promoted
}
