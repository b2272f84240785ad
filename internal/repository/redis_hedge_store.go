package repository

import (
	"context"
	"errors"
	"fmt"

	"HedgeDesk/internal/domain/models"
	domrepo "HedgeDesk/internal/domain/repository"
	"HedgeDesk/pkg/cache"
	applogger "HedgeDesk/pkg/logger"
)

// RedisHedgeStore implements HedgeSessionStore on top of the cache service.
// Sessions are small mutable JSON documents keyed by tenant; only the active
// session is addressable, executed sessions are archived under their own key
// when the active slot is overwritten.
type RedisHedgeStore struct {
	cache cache.Service
	l     *applogger.Logger
}

func NewRedisHedgeStore(c cache.Service) *RedisHedgeStore {
	return &RedisHedgeStore{cache: c}
}

// SetLogger injects a structured logger.
func (s *RedisHedgeStore) SetLogger(l *applogger.Logger) { s.l = l }

func activeKey(tenant string) string {
	return fmt.Sprintf("hedge:session:%s:active", tenant)
}

func archiveKey(tenant, id string) string {
	return fmt.Sprintf("hedge:session:%s:archived:%s", tenant, id)
}

func (s *RedisHedgeStore) Active(ctx context.Context, tenant string) (*models.HedgeSession, error) {
	var sess models.HedgeSession
	err := s.cache.Get(ctx, activeKey(tenant), &sess)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, domrepo.ErrNoActiveSession
	}
	if err != nil {
		return nil, fmt.Errorf("load hedge session: %w", err)
	}
	return &sess, nil
}

func (s *RedisHedgeStore) Save(ctx context.Context, sess *models.HedgeSession) error {
	if sess == nil {
		return fmt.Errorf("nil hedge session")
	}
	if sess.TenantID == "" {
		return fmt.Errorf("hedge session without tenant")
	}

	// Executed sessions leave the active slot and move to the archive.
	if sess.Status == models.SessionExecuted {
		if err := s.cache.Set(ctx, archiveKey(sess.TenantID, sess.ID.String()), sess, 0); err != nil {
			return fmt.Errorf("archive hedge session: %w", err)
		}
		if err := s.cache.Delete(ctx, activeKey(sess.TenantID)); err != nil {
			return fmt.Errorf("clear active hedge session: %w", err)
		}
		if s.l != nil {
			s.l.Info("hedge session executed",
				applogger.String("tenant", sess.TenantID),
				applogger.String("session", sess.ID.String()),
				applogger.Int("items", len(sess.Items)),
			)
		}
		return nil
	}

	if err := s.cache.Set(ctx, activeKey(sess.TenantID), sess, 0); err != nil {
		return fmt.Errorf("save hedge session: %w", err)
	}
	return nil
}
