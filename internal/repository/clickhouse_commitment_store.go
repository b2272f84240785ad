package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"HedgeDesk/internal/domain/models"
	pkgch "HedgeDesk/pkg/clickhouse"
	applogger "HedgeDesk/pkg/logger"

	"github.com/google/uuid"
)

// CHCommitmentStore implements CommitmentStore backed by ClickHouse. The
// table is an append-only ingest log; commitments are never updated in place.
type CHCommitmentStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHCommitmentStore(ch *pkgch.Client) *CHCommitmentStore {
	return &CHCommitmentStore{db: ch.DB(), table: "purchase_commitments"}
}

// SetLogger injects a structured logger.
func (s *CHCommitmentStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCommitmentStore) Append(ctx context.Context, cs []*models.PurchaseCommitment) error {
	if len(cs) == 0 {
		return nil
	}
	values := make([]string, 0, len(cs))
	args := make([]interface{}, 0, len(cs)*8)
	now := time.Now().UTC()
	for _, c := range cs {
		if c == nil || c.TenantID == "" || c.Commodity == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			c.ID.String(),
			c.TenantID,
			c.Commodity,
			c.DeliveryStart,
			c.DeliveryEnd,
			c.Quantity,
			c.UnitPrice,
			now,
		)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (id, tenant_id, commodity, delivery_start, delivery_end, quantity, unit_price, ingested_at) VALUES %s",
		s.table, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse commitment append error",
				applogger.Int("rows", len(values)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("append commitments: %w", err)
	}
	return nil
}

func (s *CHCommitmentStore) ListByTenant(ctx context.Context, tenant string) ([]models.PurchaseCommitment, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT id, tenant_id, commodity, delivery_start, delivery_end, quantity, unit_price
        FROM %s
        WHERE tenant_id = ?
        ORDER BY delivery_start, commodity, id
    `, s.table)

	rows, err := s.db.QueryContext(ctx, q, tenant)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse commitment list error",
				applogger.String("tenant", tenant),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("list commitments: %w", err)
	}
	defer rows.Close()

	out := make([]models.PurchaseCommitment, 0, 128)
	for rows.Next() {
		var (
			c  models.PurchaseCommitment
			id string
		)
		if err := rows.Scan(&id, &c.TenantID, &c.Commodity, &c.DeliveryStart, &c.DeliveryEnd, &c.Quantity, &c.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("commitment id %q: %w", id, err)
		}
		c.ID = parsed
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse commitment list ok",
			applogger.String("tenant", tenant),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}
