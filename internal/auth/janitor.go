package auth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const DefaultTokenCleanupInterval = time.Hour

// StartTokenJanitor purges expired tokens every interval until ctx is done.
func (s *Service) StartTokenJanitor(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = DefaultTokenCleanupInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go s.cleanupLoop(ctx, interval, logger.Named("auth"))
}

func (s *Service) cleanupLoop(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purge expired tokens", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("purged expired tokens", zap.Int64("count", n))
			}
		}
	}
}

// PurgeExpired deletes tokens whose lifetime has ended. Redis copies expire on their own.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
