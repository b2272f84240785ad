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
)

// spotSentinel marks spot observations in the contract_month column;
// ClickHouse Date columns cannot be NULL without a Nullable wrapper and the
// sentinel keeps the ORDER BY key dense.
var spotSentinel = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// CHPriceStore implements PriceStore backed by ClickHouse.
type CHPriceStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHPriceStore(ch *pkgch.Client) *CHPriceStore {
	return &CHPriceStore{db: ch.DB(), table: "price_observations"}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceStore) Append(ctx context.Context, obs []*models.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, o := range obs[start:end] {
			if o == nil || o.Commodity == "" || o.Date.IsZero() {
				continue
			}
			cm := o.ContractMonth
			if cm.IsZero() {
				cm = spotSentinel
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, o.Date, o.Commodity, cm, o.Price)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (obs_date, commodity, contract_month, price) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse price append error",
					applogger.Int("rows", len(values)),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("append prices: %w", err)
		}
	}
	return nil
}

func (s *CHPriceStore) SpotHistory(ctx context.Context, commodities []string, from, to time.Time) ([]models.PriceObservation, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT obs_date, commodity, price
        FROM %s
        WHERE commodity IN (%s)
          AND contract_month = ?
          AND obs_date >= ? AND obs_date <= ?
        ORDER BY commodity, obs_date ASC
    `, s.table, placeholders(len(commodities)))

	args := make([]interface{}, 0, len(commodities)+3)
	for _, c := range commodities {
		args = append(args, c)
	}
	args = append(args, spotSentinel, from, to)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse spot_history query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("spot history: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceObservation, 0, 1024)
	for rows.Next() {
		var o models.PriceObservation
		if err := rows.Scan(&o.Date, &o.Commodity, &o.Price); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse spot_history ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHPriceStore) ForwardCurve(ctx context.Context, commodities []string, asOf time.Time) ([]models.PriceObservation, error) {
	q := fmt.Sprintf(`
        SELECT obs_date, commodity, contract_month, price
        FROM %s
        WHERE commodity IN (%s)
          AND contract_month != ?
          AND obs_date <= ?
        ORDER BY commodity, contract_month, obs_date ASC
    `, s.table, placeholders(len(commodities)))

	args := make([]interface{}, 0, len(commodities)+2)
	for _, c := range commodities {
		args = append(args, c)
	}
	args = append(args, spotSentinel, asOf)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse forward_curve query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("forward curve: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceObservation, 0, 256)
	for rows.Next() {
		var o models.PriceObservation
		if err := rows.Scan(&o.Date, &o.Commodity, &o.ContractMonth, &o.Price); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHPriceStore) Commodities(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT commodity FROM %s ORDER BY commodity", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("commodities: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan commodity: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *CHPriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func placeholders(n int) string {
	if n == 0 {
		return "''"
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
