// Package horizon is a minimal client of the horizon REST API, enough to
// submit transactions and to follow their outcome.
package horizon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paystell/paystell-daemon/internal/core/ports"
	"github.com/paystell/paystell-daemon/pkg/circuitbreaker"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultRateLimit      = 10
	DefaultRateBurst      = 1

	maxResponseSize = 1 << 20
)

type Config struct {
	URL            string
	RequestTimeout time.Duration
	// RateLimit is the max number of requests per second.
	RateLimit float64
	RateBurst int
}

type service struct {
	baseURL     string
	client      *http.Client
	cb          *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

// NewService returns a horizon client as a ports.Network. Every request waits
// for the rate limiter and goes through a circuit breaker that trips only on
// transport and server errors.
func NewService(cfg Config) (ports.Network, error) {
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid horizon url: %w", err)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultRateBurst
	}

	return &service{
		baseURL:     strings.TrimSuffix(cfg.URL, "/"),
		client:      &http.Client{Timeout: cfg.RequestTimeout},
		cb:          circuitbreaker.NewCircuitBreaker("horizon"),
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}, nil
}

func (s *service) SubmitTransaction(
	ctx context.Context, envelope string,
) (ports.NetworkTransaction, error) {
	form := url.Values{"tx": {envelope}}
	resp, err := s.do(
		ctx, http.MethodPost, "/transactions", strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, err
	}

	switch resp.status {
	case http.StatusOK:
		return parseTransaction(resp.body)
	case http.StatusBadRequest:
		p := parseProblem(resp.body)
		codes := p.resultCodes()
		log.WithFields(log.Fields{
			"hash":         p.Extras.Hash,
			"result_codes": codes,
		}).Debug("horizon: transaction rejected")

		reason := p.Title
		if len(codes) > 0 {
			reason = strings.Join(codes, ",")
		}
		return &transaction{Hash: p.Extras.Hash, resultCodes: codes},
			fmt.Errorf("%w: %s", ports.ErrTransactionRejected, reason)
	default:
		return nil, unexpectedStatus(resp)
	}
}

func (s *service) GetTransaction(
	ctx context.Context, hash string,
) (ports.NetworkTransaction, error) {
	resp, err := s.do(
		ctx, http.MethodGet, "/transactions/"+url.PathEscape(hash), nil,
	)
	if err != nil {
		return nil, err
	}

	switch resp.status {
	case http.StatusOK:
		return parseTransaction(resp.body)
	case http.StatusNotFound:
		return nil, ports.ErrNetworkTransactionNotFound
	default:
		return nil, unexpectedStatus(resp)
	}
}

func (s *service) do(
	ctx context.Context, method, path string, body io.Reader,
) (*response, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := s.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		rs, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer rs.Body.Close()

		buf, err := io.ReadAll(io.LimitReader(rs.Body, maxResponseSize))
		if err != nil {
			return nil, err
		}
		resp := &response{rs.StatusCode, buf}
		// Horizon replies 504 when a submission isn't included in time, the
		// transaction may still make it into a ledger later.
		if rs.StatusCode >= http.StatusInternalServerError {
			return nil, unexpectedStatus(resp)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*response), nil
}

func parseTransaction(buf []byte) (*transaction, error) {
	tx := &transaction{}
	if err := json.Unmarshal(buf, tx); err != nil {
		return nil, fmt.Errorf("invalid horizon transaction: %w", err)
	}
	return tx, nil
}

func parseProblem(buf []byte) problem {
	p := problem{}
	//nolint
	json.Unmarshal(buf, &p)
	return p
}

func unexpectedStatus(resp *response) error {
	p := parseProblem(resp.body)
	if p.Title != "" {
		return fmt.Errorf("horizon replied with status %d: %s", resp.status, p.Title)
	}
	return fmt.Errorf(
		"horizon replied with status %d: %s", resp.status, string(resp.body),
	)
}
