package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"HedgeDesk/internal/domain/models"
	drepo "HedgeDesk/internal/domain/repository"
	"HedgeDesk/internal/risk"
	applogger "HedgeDesk/pkg/logger"

	"github.com/google/uuid"
)

// ErrEmptySession is returned when executing a session with no instructions.
var ErrEmptySession = errors.New("hedge session has no instructions")

// HedgeService manages the tenant's hedge instruction session. All writes to
// the persisted session flow through here; the risk engine only ever reads
// the instruction set.
type HedgeService struct {
	sessions   drepo.HedgeSessionStore
	buckets    drepo.BucketStore
	market     *MarketDataService
	l          *applogger.Logger
	confidence float64
}

// NewHedgeService creates a HedgeService. Confidence is used for the final
// VaR recorded on execute.
func NewHedgeService(sessions drepo.HedgeSessionStore, buckets drepo.BucketStore, market *MarketDataService, l *applogger.Logger, confidence float64) *HedgeService {
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}
	return &HedgeService{sessions: sessions, buckets: buckets, market: market, l: l, confidence: confidence}
}

// Session returns the tenant's active session, or an empty unsaved one when
// none exists yet.
func (s *HedgeService) Session(ctx context.Context, tenant string) (*models.HedgeSession, error) {
	sess, err := s.sessions.Active(ctx, tenant)
	if errors.Is(err, drepo.ErrNoActiveSession) {
		return newSession(tenant), nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Upsert adds an instruction or replaces the quantity of an existing one
// with the same commodity and contract month.
func (s *HedgeService) Upsert(ctx context.Context, tenant string, instr models.HedgeInstruction) (*models.HedgeSession, error) {
	if instr.Commodity == "" || instr.ContractMonth.IsZero() {
		return nil, fmt.Errorf("instruction needs commodity and contract month")
	}
	if instr.Quantity == 0 {
		return nil, fmt.Errorf("instruction quantity must be non-zero")
	}

	sess, err := s.Session(ctx, tenant)
	if err != nil {
		return nil, err
	}

	instr.PriceSnapshot = s.snapshotPrice(ctx, instr)

	replaced := false
	for i := range sess.Items {
		if sess.Items[i].Key() == instr.Key() {
			sess.Items[i] = instr
			replaced = true
			break
		}
	}
	if !replaced {
		sess.Items = append(sess.Items, instr)
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	if s.l != nil {
		s.l.Info("hedge instruction upserted",
			applogger.String("tenant", tenant),
			applogger.String("commodity", instr.Commodity),
			applogger.Date("contract_month", instr.ContractMonth),
			applogger.Float("quantity", instr.Quantity),
		)
	}
	return sess, nil
}

// Remove deletes the instruction addressed by key. Removing from an empty or
// absent session is a no-op.
func (s *HedgeService) Remove(ctx context.Context, tenant string, key models.BucketKey) (*models.HedgeSession, error) {
	sess, err := s.sessions.Active(ctx, tenant)
	if errors.Is(err, drepo.ErrNoActiveSession) {
		return newSession(tenant), nil
	}
	if err != nil {
		return nil, err
	}

	kept := sess.Items[:0]
	for _, it := range sess.Items {
		if it.Key() != key {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(sess.Items) {
		return sess, nil
	}
	sess.Items = kept

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Execute marks the active session executed. The store archives it and
// clears the active slot; the next mutation opens a fresh session.
func (s *HedgeService) Execute(ctx context.Context, tenant string) (*models.HedgeSession, error) {
	sess, err := s.sessions.Active(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if len(sess.Items) == 0 {
		return nil, ErrEmptySession
	}

	now := time.Now().UTC()
	sess.Status = models.SessionExecuted
	sess.ExecutedAt = &now
	sess.FinalVaR = s.finalVaR(ctx, sess, now)

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	if s.l != nil {
		s.l.Info("hedge session executed",
			applogger.String("tenant", tenant),
			applogger.String("session", sess.ID.String()),
			applogger.Int("items", len(sess.Items)),
		)
	}
	return sess, nil
}

// finalVaR records the with-hedge portfolio VaR frozen into the executed
// session. Best effort: execution does not fail when market data is down.
func (s *HedgeService) finalVaR(ctx context.Context, sess *models.HedgeSession, eval time.Time) *models.MoneyBreakdown {
	if s.buckets == nil || s.market == nil {
		return nil
	}
	buckets, err := s.buckets.ListByTenant(ctx, sess.TenantID, time.Time{}, time.Time{})
	if err != nil {
		return nil
	}
	table, snapshot, err := s.market.Load(ctx, eval)
	if err != nil {
		return nil
	}
	v, err := risk.ScenarioVaR(buckets, sess.Items, table, snapshot, risk.ZScore(s.confidence), eval)
	if err != nil {
		if s.l != nil {
			s.l.Warn("final hedge VaR unavailable", applogger.Error(err))
		}
		return nil
	}
	return &v
}

// snapshotPrice records the applicable forward price at upsert time, for
// display only. VaR always reprices from the live table.
func (s *HedgeService) snapshotPrice(ctx context.Context, instr models.HedgeInstruction) float64 {
	if s.market == nil {
		return 0
	}
	table, _, err := s.market.Load(ctx, time.Now().UTC())
	if err != nil {
		return 0
	}
	p, ok := table.Price(instr.Commodity, instr.ContractMonth, time.Now().UTC())
	if !ok {
		return 0
	}
	return p
}

func newSession(tenant string) *models.HedgeSession {
	return &models.HedgeSession{
		ID:        uuid.New(),
		TenantID:  tenant,
		Status:    models.SessionActive,
		CreatedAt: time.Now().UTC(),
	}
}
