package upstream

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"PatternScanner/internal/model"
)

// Client implements Fetcher against the broker's EOD history REST API.
// Every request waits on the shared rate limiter first, so the sustained
// call ceiling holds across concurrent workers. The instrument master is
// downloaded once and memoized on the client itself.
type Client struct {
	BaseURL     string
	ClientID    string
	AccessToken string
	HTTP        *http.Client

	limiter *rate.Limiter
	retry   RetryPolicy

	mu          sync.Mutex
	instruments map[string]string // symbol -> security id
}

// NewClient creates a client with optional proxy support. callsPerSecond
// bounds the sustained request rate; non-positive means the broker's
// documented ceiling of 3.
func NewClient(baseURL, clientID, accessToken, proxyURL string, callsPerSecond float64, retry RetryPolicy) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if callsPerSecond <= 0 {
		callsPerSecond = 3
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		ClientID:    clientID,
		AccessToken: accessToken,
		HTTP: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(callsPerSecond), 1),
		retry:   retry,
	}
}

func (c *Client) Name() string { return "broker-rest" }

// ResolveSecurityID maps a trading symbol to the broker's security identifier.
func (c *Client) ResolveSecurityID(ctx context.Context, symbol string) (string, error) {
	instruments, err := c.instrumentMap(ctx)
	if err != nil {
		return "", err
	}
	id, ok := instruments[symbol]
	if !ok {
		return "", fmt.Errorf("no security id for symbol %s", symbol)
	}
	return id, nil
}

func (c *Client) instrumentMap(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.instruments != nil {
		return c.instruments, nil
	}

	var instruments map[string]string
	err := c.retry.Do(ctx, "load instrument master", func() error {
		var err error
		instruments, err = c.downloadInstruments(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load instrument master: %w", err)
	}
	log.Printf("[INFO] loaded %d instruments from %s", len(instruments), c.Name())
	c.instruments = instruments
	return instruments, nil
}

// downloadInstruments parses the scrip-master CSV into a symbol -> security
// id map. The header row names the columns; only "symbol" and "security_id"
// are required.
func (c *Client) downloadInstruments(ctx context.Context) (map[string]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/instruments.csv", nil)
	if err != nil {
		return nil, err
	}
	c.setAuth(req)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch instruments: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch instruments: status %d", resp.StatusCode)
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read instrument header: %w", err)
	}
	symbolCol, idCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "symbol":
			symbolCol = i
		case "security_id":
			idCol = i
		}
	}
	if symbolCol < 0 || idCol < 0 {
		return nil, fmt.Errorf("instrument CSV missing symbol/security_id columns: %v", header)
	}

	instruments := make(map[string]string)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read instrument row: %w", err)
		}
		if symbolCol >= len(record) || idCol >= len(record) {
			continue
		}
		symbol := strings.TrimSpace(record[symbolCol])
		id := strings.TrimSpace(record[idCol])
		if symbol != "" && id != "" {
			instruments[symbol] = id
		}
	}
	return instruments, nil
}

// historicalResponse is the JSON shape of the EOD history endpoint:
// parallel arrays indexed by bar.
type historicalResponse struct {
	Status string `json:"status"`
	Data   struct {
		Timestamp []int64   `json:"timestamp"`
		Open      []float64 `json:"open"`
		High      []float64 `json:"high"`
		Low       []float64 `json:"low"`
		Close     []float64 `json:"close"`
		Volume    []float64 `json:"volume"`
	} `json:"data"`
}

// FetchDailyBars returns up to lookbackDays of daily bars, oldest first.
// Transient failures are retried per the policy; once the budget is spent
// the result degrades to empty data rather than an error, so one symbol's
// flaky feed cannot abort a batch. Context cancellation still propagates.
func (c *Client) FetchDailyBars(ctx context.Context, securityID string, lookbackDays int) ([]model.Bar, error) {
	var bars []model.Bar
	err := c.retry.Do(ctx, "fetch history "+securityID, func() error {
		var err error
		bars, err = c.fetchHistory(ctx, securityID, lookbackDays)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[WARN] history for %s degraded to no data: %v", securityID, err)
		return nil, nil
	}
	return bars, nil
}

func (c *Client) fetchHistory(ctx context.Context, securityID string, lookbackDays int) ([]model.Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// The feed lags behind the session close, so the window extends one day
	// past today to pick up the latest EOD row once it lands.
	to := time.Now().AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -(lookbackDays + 1))
	endpoint := fmt.Sprintf("%s/charts/historical?securityId=%s&fromDate=%s&toDate=%s",
		c.BaseURL, url.QueryEscape(securityID), from.Format("2006-01-02"), to.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setAuth(req)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch history: status %d, body: %s", resp.StatusCode, string(body))
	}

	var hist historicalResponse
	if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if hist.Status != "" && hist.Status != "success" {
		return nil, fmt.Errorf("history api status %q", hist.Status)
	}

	data := hist.Data
	bars := make([]model.Bar, 0, len(data.Timestamp))
	for i, ts := range data.Timestamp {
		if i >= len(data.Open) || i >= len(data.High) || i >= len(data.Low) || i >= len(data.Close) {
			break
		}
		b := model.Bar{
			Open:  data.Open[i],
			High:  data.High[i],
			Low:   data.Low[i],
			Close: data.Close[i],
		}
		if i < len(data.Volume) {
			b.Volume = data.Volume[i]
		}
		if b.Open == 0 && b.High == 0 && b.Low == 0 && b.Close == 0 {
			continue // null rows on holidays
		}
		day := time.Unix(ts, 0).UTC()
		b.Date = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		b.PeriodStart = b.Date
		b.TradingDays = 1
		if err := b.Validate(); err != nil {
			log.Printf("[WARN] dropping malformed upstream bar: %v", err)
			continue
		}
		bars = append(bars, b)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	if len(bars) > lookbackDays {
		bars = bars[len(bars)-lookbackDays:]
	}
	return bars, nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.AccessToken != "" {
		req.Header.Set("access-token", c.AccessToken)
	}
	if c.ClientID != "" {
		req.Header.Set("client-id", c.ClientID)
	}
}
