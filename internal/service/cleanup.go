package service

import (
	"context"
	"time"

	"shulehub/internal/repository"

	"github.com/sirupsen/logrus"
)

// Sweeper deletes expired sessions and verification tokens on a fixed
// interval, decoupled from request handling. Sweep failures are logged
// and swallowed; live traffic never depends on this job.
type Sweeper struct {
	store    repository.Store
	logger   *logrus.Logger
	interval time.Duration
}

func NewSweeper(store repository.Store, logger *logrus.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{store: store, logger: logger, interval: interval}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now()
	sessions, err := s.store.Sessions().DeleteExpired(ctx, now)
	if err != nil {
		s.logger.WithError(err).Error("session sweep failed")
	}
	tokens, err := s.store.VerificationTokens().DeleteExpired(ctx, now)
	if err != nil {
		s.logger.WithError(err).Error("verification token sweep failed")
	}
	s.logger.WithFields(logrus.Fields{
		"sessions": sessions,
		"tokens":   tokens,
	}).Debug("expired credential sweep")
}
