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

// CHBucketStore implements BucketStore backed by ClickHouse. Replace swaps a
// tenant's entire bucket set: a lightweight DELETE of the old rows, then one
// batch insert. Buckets are small derived data, so full replacement keeps the
// per-commitment sum invariant trivially intact.
type CHBucketStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHBucketStore(ch *pkgch.Client) *CHBucketStore {
	return &CHBucketStore{db: ch.DB(), table: "exposure_buckets"}
}

// SetLogger injects a structured logger.
func (s *CHBucketStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHBucketStore) Replace(ctx context.Context, tenant string, buckets []models.ExposureBucket) error {
	start := time.Now()
	del := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ?", s.table)
	if _, err := s.db.ExecContext(ctx, del, tenant); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse bucket delete error",
				applogger.String("tenant", tenant),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("delete buckets: %w", err)
	}

	if len(buckets) > 0 {
		const chunkSize = 2000
		for lo := 0; lo < len(buckets); lo += chunkSize {
			hi := lo + chunkSize
			if hi > len(buckets) {
				hi = len(buckets)
			}
			values := make([]string, 0, hi-lo)
			args := make([]interface{}, 0, (hi-lo)*5)
			for _, b := range buckets[lo:hi] {
				values = append(values, "(?, ?, ?, ?, ?)")
				args = append(args, tenant, b.Commodity, b.Month, b.Quantity, b.CommitmentID.String())
			}
			q := fmt.Sprintf("INSERT INTO %s (tenant_id, commodity, month, quantity, commitment_id) VALUES %s",
				s.table, strings.Join(values, ","))
			if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
				if s.l != nil {
					s.l.Error("clickhouse bucket insert error",
						applogger.String("tenant", tenant),
						applogger.Int("rows", len(values)),
						applogger.Error(err),
					)
				}
				return fmt.Errorf("insert buckets: %w", err)
			}
		}
	}

	if s.l != nil {
		s.l.Info("clickhouse buckets replaced",
			applogger.String("tenant", tenant),
			applogger.Int("buckets", len(buckets)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHBucketStore) ListByTenant(ctx context.Context, tenant string, from, to time.Time) ([]models.ExposureBucket, error) {
	q := fmt.Sprintf(`
        SELECT tenant_id, commodity, month, quantity, commitment_id
        FROM %s
        WHERE tenant_id = ?
    `, s.table)
	args := []interface{}{tenant}
	if !from.IsZero() {
		q += " AND month >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		q += " AND month <= ?"
		args = append(args, to)
	}
	q += " ORDER BY commodity, month, commitment_id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse bucket list error",
				applogger.String("tenant", tenant),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close()

	out := make([]models.ExposureBucket, 0, 256)
	for rows.Next() {
		var (
			b  models.ExposureBucket
			id string
		)
		if err := rows.Scan(&b.TenantID, &b.Commodity, &b.Month, &b.Quantity, &id); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("bucket commitment id %q: %w", id, err)
		}
		b.CommitmentID = parsed
		out = append(out, b)
	}
	return out, rows.Err()
}
