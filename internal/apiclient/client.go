// Package apiclient parle à l'API HTTP de bookclub-server.
//
// L'URL de base est choisie une seule fois parmi une liste ordonnée de candidats:
// le premier qui répond 200 sur /api/v1/health est retenu pour la durée du client.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/bookclub/internal/buildinfo"
	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/httpjson"
)

const (
	healthPath   = "/api/v1/health"
	probeTimeout = 2 * time.Second
)

var ErrNoServer = errors.New("no reachable bookclub server")

type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

type Client struct {
	logger     zerolog.Logger
	http       *http.Client
	candidates []string

	mu   sync.Mutex
	base string
}

func New(logger zerolog.Logger, candidates []string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	clean := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c = strings.TrimRight(strings.TrimSpace(c), "/"); c != "" {
			clean = append(clean, c)
		}
	}
	return &Client{logger: logger, http: &http.Client{Timeout: timeout}, candidates: clean}
}

// BaseURL résout (une fois) puis renvoie l'URL retenue.
func (c *Client) BaseURL(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.base != "" {
		return c.base, nil
	}
	var tried []string
	for _, cand := range c.candidates {
		if err := c.probe(ctx, cand); err != nil {
			c.logger.Debug().Str("url", cand).Err(err).Msg("candidate unreachable")
			tried = append(tried, cand)
			continue
		}
		c.logger.Debug().Str("url", cand).Msg("server resolved")
		c.base = cand
		return cand, nil
	}
	return "", fmt.Errorf("%w (tried %s)", ErrNoServer, strings.Join(tried, ", "))
}

func (c *Client) probe(ctx context.Context, base string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health status %d", resp.StatusCode)
	}
	return nil
}

type Health struct {
	Status string `json:"status"`
	Remote bool   `json:"remote"`
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, healthPath, nil, &h)
	return h, err
}

func (c *Client) Version(ctx context.Context) (buildinfo.Info, error) {
	var v buildinfo.Info
	err := c.do(ctx, http.MethodGet, "/api/v1/version", nil, &v)
	return v, err
}

func (c *Client) Diff(ctx context.Context) (domain.DiffResult, error) {
	var d domain.DiffResult
	err := c.do(ctx, http.MethodGet, "/api/v1/schedules/diff", nil, &d)
	return d, err
}

type SyncOptions struct {
	// Mode: "diff" (défaut) ou "upsert".
	Mode string
	// Refresh nil laisse le serveur appliquer le réglage refreshAfterPush.
	Refresh *bool
}

func (c *Client) Sync(ctx context.Context, opts SyncOptions) (domain.SyncReport, error) {
	q := url.Values{}
	if opts.Mode != "" {
		q.Set("mode", opts.Mode)
	}
	if opts.Refresh != nil {
		q.Set("refresh", strconv.FormatBool(*opts.Refresh))
	}
	path := "/api/v1/schedules/sync"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var rep domain.SyncReport
	err := c.do(ctx, http.MethodPost, path, nil, &rep)
	return rep, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	base, err := c.BaseURL(ctx)
	if err != nil {
		return err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "bookclub/"+buildinfo.Current().Version)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(b))}
		var eb httpjson.ErrorBody
		if json.Unmarshal(b, &eb) == nil && eb.Error != "" {
			apiErr.Code = eb.Code
			apiErr.Message = eb.Error
		}
		return apiErr
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, out)
}
