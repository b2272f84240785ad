package pricefeed

import (
	"context"
	"fmt"
	"time"

	"HedgeDesk/internal/domain/models"
	pkghttp "HedgeDesk/pkg/http"
	xutil "HedgeDesk/pkg/util"
)

// Backfiller pulls historical daily closes over the vendor REST API. It is
// used at startup to fill the estimation window before the stream takes over.
type Backfiller struct {
	client  *pkghttp.Client
	baseURL string
	apiKey  string
}

// NewBackfiller creates a REST backfill client.
func NewBackfiller(client *pkghttp.Client, baseURL, apiKey string) *Backfiller {
	return &Backfiller{client: client, baseURL: baseURL, apiKey: apiKey}
}

type backfillRow struct {
	Date     string  `json:"date"`
	Contract string  `json:"contract,omitempty"`
	Close    float64 `json:"close"`
}

type backfillResponse struct {
	Commodity string        `json:"commodity"`
	Rows      []backfillRow `json:"rows"`
}

// History fetches daily closes for one commodity over [from, to].
func (b *Backfiller) History(ctx context.Context, commodity string, from, to time.Time) ([]*models.PriceObservation, error) {
	var resp backfillResponse
	err := b.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    b.baseURL + "/v1/history",
		Headers: map[string]string{
			"Authorization": "Bearer " + b.apiKey,
		},
		QueryParams: map[string][]string{
			"commodity": {commodity},
			"from":      {from.Format(xutil.DateLayout)},
			"to":        {to.Format(xutil.DateLayout)},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("backfill %s: %w", commodity, err)
	}

	out := make([]*models.PriceObservation, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		date, ok := xutil.ParseDate(r.Date)
		if !ok || r.Close <= 0 {
			continue
		}
		obs := &models.PriceObservation{Commodity: commodity, Date: date, Price: r.Close}
		if r.Contract != "" {
			if cm, ok := xutil.ParseDate(r.Contract); ok {
				obs.ContractMonth = xutil.MonthStart(cm)
			}
		}
		out = append(out, obs)
	}
	return out, nil
}
