package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"HedgeDesk/internal/domain/models"
	drepo "HedgeDesk/internal/domain/repository"
)

// In-memory fakes for the stores the use cases depend on.

type fakeCommitmentStore struct {
	items     []models.PurchaseCommitment
	appendErr error
}

func (s *fakeCommitmentStore) Append(ctx context.Context, cs []*models.PurchaseCommitment) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	for _, c := range cs {
		s.items = append(s.items, *c)
	}
	return nil
}

func (s *fakeCommitmentStore) ListByTenant(ctx context.Context, tenant string) ([]models.PurchaseCommitment, error) {
	var out []models.PurchaseCommitment
	for _, c := range s.items {
		if c.TenantID == tenant {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeBucketStore struct {
	byTenant     map[string][]models.ExposureBucket
	replaceCalls int
}

func newFakeBucketStore() *fakeBucketStore {
	return &fakeBucketStore{byTenant: make(map[string][]models.ExposureBucket)}
}

func (s *fakeBucketStore) Replace(ctx context.Context, tenant string, buckets []models.ExposureBucket) error {
	s.replaceCalls++
	s.byTenant[tenant] = append([]models.ExposureBucket(nil), buckets...)
	return nil
}

func (s *fakeBucketStore) ListByTenant(ctx context.Context, tenant string, from, to time.Time) ([]models.ExposureBucket, error) {
	var out []models.ExposureBucket
	for _, b := range s.byTenant[tenant] {
		if !from.IsZero() && b.Month.Before(from) {
			continue
		}
		if !to.IsZero() && b.Month.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// fakeSessionStore counts writes so read-only paths can assert zero saves.
type fakeSessionStore struct {
	sess  *models.HedgeSession
	saves int
}

func (s *fakeSessionStore) Active(ctx context.Context, tenant string) (*models.HedgeSession, error) {
	if s.sess == nil || s.sess.TenantID != tenant {
		return nil, drepo.ErrNoActiveSession
	}
	return s.sess, nil
}

func (s *fakeSessionStore) Save(ctx context.Context, sess *models.HedgeSession) error {
	s.saves++
	if sess.Status == models.SessionExecuted {
		s.sess = nil
		return nil
	}
	s.sess = sess
	return nil
}

type rebuiltEvent struct {
	tenant  string
	buckets int
}

type fakePublisher struct {
	events []rebuiltEvent
}

func (p *fakePublisher) PublishRebuilt(ctx context.Context, tenant string, buckets int) error {
	p.events = append(p.events, rebuiltEvent{tenant: tenant, buckets: buckets})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakePriceStore struct {
	obs     []models.PriceObservation
	queries int
}

func (s *fakePriceStore) Append(ctx context.Context, obs []*models.PriceObservation) error {
	for _, o := range obs {
		s.obs = append(s.obs, *o)
	}
	return nil
}

func (s *fakePriceStore) SpotHistory(ctx context.Context, commodities []string, from, to time.Time) ([]models.PriceObservation, error) {
	s.queries++
	var out []models.PriceObservation
	for _, o := range s.obs {
		if !o.IsSpot() || o.Date.Before(from) || o.Date.After(to) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *fakePriceStore) ForwardCurve(ctx context.Context, commodities []string, asOf time.Time) ([]models.PriceObservation, error) {
	s.queries++
	var out []models.PriceObservation
	for _, o := range s.obs {
		if o.IsSpot() || o.Date.After(asOf) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *fakePriceStore) Commodities(ctx context.Context) ([]string, error) {
	s.queries++
	seen := make(map[string]bool)
	var out []string
	for _, o := range s.obs {
		if !seen[o.Commodity] {
			seen[o.Commodity] = true
			out = append(out, o.Commodity)
		}
	}
	return out, nil
}

func (s *fakePriceStore) Health(ctx context.Context) error { return nil }

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: make(map[string]int)}
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLatency(op string, seconds float64) {}
func (m *fakeMetrics) RecordLastPrice(commodity string, price float64) {}
func (m *fakeMetrics) RecordRebuild(outcome string) {}
func (m *fakeMetrics) RecordPortfolioVaR(tenant, scenario string, v float64) {}

// fakeCacheService is a map-backed stand-in for the redis cache.
type fakeCacheService struct {
	mu     sync.Mutex
	data   map[string][]byte
	locks  map[string]bool
	locked bool // force TryLock to fail
}

func newFakeCacheService() *fakeCacheService {
	return &fakeCacheService{data: make(map[string][]byte), locks: make(map[string]bool)}
}

func (c *fakeCacheService) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	return nil
}

func (c *fakeCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	return fmt.Errorf("not implemented")
}

func (c *fakeCacheService) Delete(ctx context.Context, keys ...string) error { return nil }
func (c *fakeCacheService) DeleteByPattern(ctx context.Context, p string) error { return nil }
func (c *fakeCacheService) Exists(ctx context.Context, keys ...string) (bool, error) { return false, nil }
func (c *fakeCacheService) Increment(ctx context.Context, key string) (int64, error) { return 0, nil }
func (c *fakeCacheService) Expire(ctx context.Context, key string, exp time.Duration) (bool, error) {
	return false, nil
}
func (c *fakeCacheService) MSet(ctx context.Context, v map[string]interface{}, exp time.Duration) error {
	return nil
}
func (c *fakeCacheService) MGet(ctx context.Context, keys ...string) (map[string]string, error) {
	return nil, nil
}

func (c *fakeCacheService) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked || c.locks[key] {
		return false, nil
	}
	c.locks[key] = true
	return true, nil
}

func (c *fakeCacheService) Unlock(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, key)
	return nil
}

type queuedMessage struct {
	msgType string
	payload interface{}
}

type fakeQueue struct {
	messages []queuedMessage
}

func (q *fakeQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	q.messages = append(q.messages, queuedMessage{msgType: msgType, payload: payload})
	return nil
}
