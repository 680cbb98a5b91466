// Package notion implémente le store distant sur l'API REST de Notion.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2022-06-28"
	pageSize       = 100
)

var ErrNotConfigured = errors.New("notion not configured")

// Properties nomme les propriétés de la base (les noms sont ceux affichés dans Notion).
type Properties struct {
	Title  string `yaml:"title"`
	Date   string `yaml:"date"`
	Leader string `yaml:"leader"`
	Host   string `yaml:"host"`
	Author string `yaml:"author"`
	Status string `yaml:"status"`
}

func DefaultProperties() Properties {
	return Properties{Title: "书名", Date: "排期", Leader: "领读人", Host: "主持人", Author: "作者", Status: "进度"}
}

type Options struct {
	APIKey     string
	DatabaseID string
	BaseURL    string
	Version    string
	Timeout    time.Duration

	// MaxConcurrent plafonne les requêtes simultanées (0 = DefaultMaxConcurrent).
	MaxConcurrent int
	Properties    Properties
}

type Client struct {
	logger     zerolog.Logger
	apiKey     string
	databaseID string
	endpoint   string
	version    string
	props      Properties
	client     *http.Client
	limiter    *requestLimiter
}

func NewClient(logger zerolog.Logger, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" || strings.TrimSpace(opts.DatabaseID) == "" {
		return nil, ErrNotConfigured
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if strings.TrimSpace(opts.Version) == "" {
		opts.Version = DefaultVersion
	}
	props := opts.Properties
	def := DefaultProperties()
	if props.Title == "" {
		props.Title = def.Title
	}
	if props.Date == "" {
		props.Date = def.Date
	}
	if props.Leader == "" {
		props.Leader = def.Leader
	}
	if props.Host == "" {
		props.Host = def.Host
	}
	if props.Author == "" {
		props.Author = def.Author
	}
	if props.Status == "" {
		props.Status = def.Status
	}
	c := &Client{
		logger:     logger,
		apiKey:     strings.TrimSpace(opts.APIKey),
		databaseID: strings.TrimSpace(opts.DatabaseID),
		endpoint:   DefaultBaseURL,
		version:    strings.TrimSpace(opts.Version),
		props:      props,
		client:     &http.Client{Timeout: opts.Timeout},
		limiter:    newRequestLimiter(opts.MaxConcurrent),
	}
	return c.WithEndpoint(opts.BaseURL), nil
}

func (c *Client) WithEndpoint(endpoint string) *Client {
	if strings.TrimSpace(endpoint) != "" {
		c.endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	}
	return c
}

// APIError est renvoyée pour toute réponse non-2xx.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion http %d (%s): %s", e.Status, e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "bookclub")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.limiter.acquire(ctx); err != nil {
		return err
	}
	defer c.limiter.release()

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("notion request")

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
			if apiErr.Message == "" {
				apiErr.Message = resp.Status
			}
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
