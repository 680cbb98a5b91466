package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

type querySort struct {
	Property  string `json:"property,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Direction string `json:"direction"`
}

type queryRequest struct {
	Sorts       []querySort `json:"sorts,omitempty"`
	PageSize    int         `json:"page_size"`
	StartCursor string      `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

func (c *Client) querySorts(sortKey string, direction domain.SortDirection) []querySort {
	if sortKey == "" {
		return nil
	}
	prop := sortKey
	if sortKey == domain.SortKeyDate {
		prop = c.props.Date
	}
	dir := string(direction)
	if dir == "" {
		dir = string(domain.SortDescending)
	}
	return []querySort{{Property: prop, Direction: dir}}
}

// queryPages lit toutes les pages de la base, curseur par curseur.
func (c *Client) queryPages(ctx context.Context, req queryRequest) ([]page, error) {
	if req.PageSize <= 0 {
		req.PageSize = pageSize
	}
	out := []page{}
	path := "/v1/databases/" + url.PathEscape(c.databaseID) + "/query"
	for {
		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
			return nil, fmt.Errorf("query database: %w", err)
		}
		out = append(out, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		req.StartCursor = resp.NextCursor
	}
	return out, nil
}

func (c *Client) Query(ctx context.Context, sortKey string, direction domain.SortDirection) ([]domain.ScheduleEntry, error) {
	pages, err := c.queryPages(ctx, queryRequest{Sorts: c.querySorts(sortKey, direction)})
	if err != nil {
		return nil, err
	}
	out := make([]domain.ScheduleEntry, 0, len(pages))
	for _, p := range pages {
		out = append(out, c.toEntry(p))
	}
	c.logger.Debug().Int("entries", len(out)).Msg("notion database queried")
	return out, nil
}

type createPageRequest struct {
	Parent     map[string]string `json:"parent"`
	Properties map[string]any    `json:"properties"`
}

func (c *Client) Create(ctx context.Context, e domain.ScheduleEntry) (string, error) {
	req := createPageRequest{
		Parent:     map[string]string{"database_id": c.databaseID},
		Properties: c.entryProperties(e),
	}
	var created page
	if err := c.do(ctx, http.MethodPost, "/v1/pages", req, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) Update(ctx context.Context, id string, p domain.EntryPatch) error {
	props := c.patchProperties(p)
	if len(props) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+url.PathEscape(id), map[string]any{"properties": props}, nil)
}

type databaseResponse struct {
	Title      []richText `json:"title"`
	Properties map[string]struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	} `json:"properties"`
}

// DescribeDatabase renvoie le schéma des propriétés, trié par nom.
func (c *Client) DescribeDatabase(ctx context.Context) ([]domain.RemoteProperty, error) {
	var db databaseResponse
	if err := c.do(ctx, http.MethodGet, "/v1/databases/"+url.PathEscape(c.databaseID), nil, &db); err != nil {
		return nil, err
	}
	out := make([]domain.RemoteProperty, 0, len(db.Properties))
	for name, p := range db.Properties {
		out = append(out, domain.RemoteProperty{Name: name, Type: p.Type, Description: p.Description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RetrievePage renvoie la page brute (relais websocket).
func (c *Client) RetrievePage(ctx context.Context, id string) (json.RawMessage, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("page id is required")
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/v1/pages/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// UpdatePageProperties transmet des propriétés au format Notion, sans traduction.
func (c *Client) UpdatePageProperties(ctx context.Context, id string, properties json.RawMessage) (json.RawMessage, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("page id is required")
	}
	var raw json.RawMessage
	body := map[string]json.RawMessage{"properties": properties}
	if err := c.do(ctx, http.MethodPatch, "/v1/pages/"+url.PathEscape(id), body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
