package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"HedgeDesk/internal/domain/models"
	drepo "HedgeDesk/internal/domain/repository"
	xutil "HedgeDesk/pkg/util"

	"github.com/gorilla/websocket"
)

// Client implements a PriceStream backed by the market data vendor WebSocket.
type Client struct {
	apiKey         string
	websocketURL   string
	commodities    []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new vendor PriceStream.
func New(apiKey, websocketURL string, commodities []string, reconnectDelay, pingInterval time.Duration) drepo.PriceStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		commodities:    commodities,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("pricefeed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("pricefeed: connected")
	return nil
}

// Subscribe subscribes to configured commodities.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("pricefeed not connected")
	}
	for _, s := range c.commodities {
		msg := map[string]string{"type": "subscribe", "commodity": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		log.Printf("pricefeed: subscribed %s", s)
	}
	return nil
}

type feedQuote struct {
	Commodity string  `json:"commodity"`
	Date      string  `json:"date"`     // YYYY-MM-DD
	Contract  string  `json:"contract"` // YYYY-MM-DD first-of-month, empty for spot
	Price     float64 `json:"price"`
}

type feedMessage struct {
	Type string      `json:"type"`
	Data []feedQuote `json:"data"`
}

// Read streams price observations and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.PriceObservation, <-chan error) {
	quotes := make(chan *models.PriceObservation, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(quotes)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("pricefeed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("pricefeed read: %w", err)
					return
				}
				var m feedMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-quote frames
					continue
				}
				if m.Type != "quote" {
					continue
				}
				for _, d := range m.Data {
					obs, err := toObservation(d)
					if err != nil {
						continue
					}
					select {
					case quotes <- obs:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return quotes, errs
}

func toObservation(q feedQuote) (*models.PriceObservation, error) {
	if q.Commodity == "" || q.Price <= 0 {
		return nil, fmt.Errorf("malformed quote")
	}
	date, ok := xutil.ParseDate(q.Date)
	if !ok {
		return nil, fmt.Errorf("bad quote date %q", q.Date)
	}
	obs := &models.PriceObservation{Commodity: q.Commodity, Date: date, Price: q.Price}
	if q.Contract != "" {
		cm, ok := xutil.ParseDate(q.Contract)
		if !ok {
			return nil, fmt.Errorf("bad contract month %q", q.Contract)
		}
		obs.ContractMonth = xutil.MonthStart(cm)
	}
	return obs, nil
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
