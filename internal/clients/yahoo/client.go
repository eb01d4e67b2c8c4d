// Package yahoo provides last-price, fundamentals and price-history
// lookups from the Yahoo Finance public endpoints, with persistent
// cache-first behavior.
package yahoo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/clientdata"
	"github.com/titaniumapp/titanium/internal/domain"
)

const (
	tableQuote        = "yahoo_quote"
	tableFundamentals = "yahoo_fundamentals"
	tableHistory      = "yahoo_history"
)

// TTLs control how long each lookup type stays fresh in the cache.
type TTLs struct {
	Quote        time.Duration
	Fundamentals time.Duration
	History      time.Duration
}

// PricePoint is one daily close in a price history series.
type PricePoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}

// Client for the Yahoo Finance public API.
// Lookups go through the clientdata cache first; on API failure a stale
// cache entry is preferred over an error where one exists. When neither
// is available the error is returned - the fallback policy belongs to
// the caller, not here.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
	ttls      TTLs
}

// NewClient creates a new Yahoo Finance client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, ttls TTLs, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://query1.finance.yahoo.com",
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "yahoo").Logger(),
		cacheRepo: cacheRepo,
		ttls:      ttls,
	}
}

type cachedQuote struct {
	Price float64 `json:"price"`
}

// GetQuote fetches the last traded price for a ticker.
func (c *Client) GetQuote(symbol string) (float64, error) {
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(tableQuote, symbol)
		if err == nil && data != nil {
			var cached cachedQuote
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("symbol", symbol).Float64("price", cached.Price).Msg("Cache hit")
				return cached.Price, nil
			}
		}
	}

	price, err := c.fetchQuote(symbol)
	if err != nil {
		if stale, ok := c.staleQuote(symbol); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Float64("price", stale).
				Msg("API failed, using stale cached quote")
			return stale, nil
		}
		return 0, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(tableQuote, symbol, cachedQuote{Price: price}, c.ttls.Quote); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}

	c.log.Info().Str("symbol", symbol).Float64("price", price).Msg("Fetched quote")
	return price, nil
}

// GetQuotes fetches prices for several tickers. Symbols that cannot be
// priced are simply absent from the result map.
func (c *Client) GetQuotes(symbols []string) map[string]float64 {
	prices := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		price, err := c.GetQuote(symbol)
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote lookup failed")
			continue
		}
		prices[symbol] = price
	}
	return prices
}

// GetFundamentals fetches the per-share fundamentals snapshot for a ticker.
func (c *Client) GetFundamentals(symbol string) (*domain.Fundamentals, error) {
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(tableFundamentals, symbol)
		if err == nil && data != nil {
			var cached domain.Fundamentals
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	fundamentals, err := c.fetchFundamentals(symbol)
	if err != nil {
		if stale, ok := c.staleFundamentals(symbol); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).
				Msg("API failed, using stale cached fundamentals")
			return stale, nil
		}
		return nil, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(tableFundamentals, symbol, fundamentals, c.ttls.Fundamentals); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache fundamentals")
		}
	}

	return fundamentals, nil
}

// GetDailyHistory fetches the full daily close history for a ticker.
func (c *Client) GetDailyHistory(symbol string) ([]PricePoint, error) {
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(tableHistory, symbol)
		if err == nil && data != nil {
			var cached []PricePoint
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	points, err := c.fetchHistory(symbol)
	if err != nil {
		if stale, ok := c.staleHistory(symbol); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).
				Msg("API failed, using stale cached history")
			return stale, nil
		}
		return nil, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(tableHistory, symbol, points, c.ttls.History); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache history")
		}
	}

	return points, nil
}

// chartResponse is the subset of the v8 chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) fetchChart(symbol, rng string) (*chartResponse, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		c.baseURL, url.PathEscape(symbol), rng)

	resp, err := c.client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("API error: %s", result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart data for %s", symbol)
	}

	return &result, nil
}

func (c *Client) fetchQuote(symbol string) (float64, error) {
	result, err := c.fetchChart(symbol, "1d")
	if err != nil {
		return 0, err
	}

	price := result.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return 0, fmt.Errorf("no market price for %s", symbol)
	}
	return price, nil
}

func (c *Client) fetchHistory(symbol string) ([]PricePoint, error) {
	result, err := c.fetchChart(symbol, "max")
	if err != nil {
		return nil, err
	}

	chart := result.Chart.Result[0]
	if len(chart.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no close series for %s", symbol)
	}

	closes := chart.Indicators.Quote[0].Close
	points := make([]PricePoint, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // market holidays come back as nulls
		}
		points = append(points, PricePoint{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: *closes[i],
		})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("empty history for %s", symbol)
	}
	return points, nil
}

// quoteSummaryResponse is the subset of the v10 quoteSummary payload we read.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			DefaultKeyStatistics struct {
				TrailingEps rawValue `json:"trailingEps"`
				BookValue   rawValue `json:"bookValue"`
			} `json:"defaultKeyStatistics"`
			SummaryDetail struct {
				DividendRate rawValue `json:"dividendRate"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// rawValue unwraps Yahoo's {"raw": 1.23, "fmt": "1.23"} number envelope.
type rawValue struct {
	Raw float64 `json:"raw"`
}

func (c *Client) fetchFundamentals(symbol string) (*domain.Fundamentals, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=defaultKeyStatistics,summaryDetail",
		c.baseURL, url.PathEscape(symbol))

	resp, err := c.client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result quoteSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("API error: %s", result.QuoteSummary.Error.Description)
	}
	if len(result.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no fundamentals for %s", symbol)
	}

	r := result.QuoteSummary.Result[0]
	return &domain.Fundamentals{
		Symbol:            symbol,
		EarningsPerShare:  r.DefaultKeyStatistics.TrailingEps.Raw,
		BookValuePerShare: r.DefaultKeyStatistics.BookValue.Raw,
		DividendPerShare:  r.SummaryDetail.DividendRate.Raw,
	}, nil
}

func (c *Client) staleQuote(symbol string) (float64, bool) {
	if c.cacheRepo == nil {
		return 0, false
	}
	data, err := c.cacheRepo.Get(tableQuote, symbol)
	if err != nil || data == nil {
		return 0, false
	}
	var cached cachedQuote
	if err := json.Unmarshal(data, &cached); err != nil {
		return 0, false
	}
	return cached.Price, true
}

func (c *Client) staleFundamentals(symbol string) (*domain.Fundamentals, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	data, err := c.cacheRepo.Get(tableFundamentals, symbol)
	if err != nil || data == nil {
		return nil, false
	}
	var cached domain.Fundamentals
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	return &cached, true
}

func (c *Client) staleHistory(symbol string) ([]PricePoint, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	data, err := c.cacheRepo.Get(tableHistory, symbol)
	if err != nil || data == nil {
		return nil, false
	}
	var cached []PricePoint
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	return cached, true
}
