package service

import (
	"context"
	"fmt"

	"github.com/newthinker/signalhub/internal/store"
	"go.uber.org/zap"
)

// CanPurge reports whether the primary backend keeps reset tokens.
func (s *Service) CanPurge() bool {
	_, ok := s.primary.(store.Purger)
	return ok
}

// PurgeExpiredResets removes expired password reset tokens from the primary
// backend. It is a no-op in mock mode.
func (s *Service) PurgeExpiredResets(ctx context.Context) (int64, error) {
	p, ok := s.primary.(store.Purger)
	if !ok {
		return 0, nil
	}
	n, err := p.PurgeExpiredResets(ctx)
	if err != nil {
		return 0, fmt.Errorf("purging reset tokens: %w", err)
	}
	if n > 0 {
		s.logger.Info("purged expired reset tokens", zap.Int64("count", n))
	}
	return n, nil
}
