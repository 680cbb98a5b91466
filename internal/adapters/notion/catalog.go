package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

// Booklist lit toutes les lignes, date la plus récente d'abord.
func (c *Client) Booklist(ctx context.Context) ([]domain.BookRecord, error) {
	pages, err := c.queryPages(ctx, queryRequest{Sorts: c.querySorts(domain.SortKeyDate, domain.SortDescending)})
	if err != nil {
		return nil, err
	}
	out := make([]domain.BookRecord, 0, len(pages))
	for _, p := range pages {
		out = append(out, c.toBookRecord(p))
	}
	return out, nil
}

var ErrNoRecord = errors.New("notion database is empty")

// LatestRecord renvoie la dernière page créée, propriétés rendues et blocs enfants compris.
func (c *Client) LatestRecord(ctx context.Context) (domain.LatestRecord, error) {
	req := queryRequest{
		Sorts:    []querySort{{Timestamp: "created_time", Direction: string(domain.SortDescending)}},
		PageSize: 1,
	}
	var resp queryResponse
	path := "/v1/databases/" + url.PathEscape(c.databaseID) + "/query"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return domain.LatestRecord{}, fmt.Errorf("query latest record: %w", err)
	}
	if len(resp.Results) == 0 {
		return domain.LatestRecord{}, ErrNoRecord
	}
	p := resp.Results[0]

	rec := domain.LatestRecord{
		ID:             p.ID,
		URL:            p.URL,
		CreatedTime:    p.CreatedTime,
		LastEditedTime: p.LastEditedTime,
		Properties:     make([]domain.RecordProperty, 0, len(p.Properties)),
	}
	for name, prop := range p.Properties {
		rec.Properties = append(rec.Properties, domain.RecordProperty{Name: name, Type: prop.Type, Value: prop.display()})
	}
	sort.Slice(rec.Properties, func(i, j int) bool { return rec.Properties[i].Name < rec.Properties[j].Name })

	blocks, err := c.blockChildren(ctx, p.ID)
	if err != nil {
		return rec, fmt.Errorf("list blocks of %s: %w", p.ID, err)
	}
	rec.Blocks = blocks
	return rec, nil
}

// display rend une propriété pour un humain, quel que soit son type.
func (p property) display() string {
	switch p.Type {
	case "title", "rich_text", "select", "status":
		if s := p.text(); s != "" {
			return s
		}
		return domain.Unset
	case "multi_select":
		names := make([]string, 0, len(p.MultiSelect))
		for _, v := range p.MultiSelect {
			names = append(names, v.Name)
		}
		if len(names) == 0 {
			return domain.Unset
		}
		return strings.Join(names, ", ")
	case "date":
		if p.Date == nil || p.Date.Start == "" {
			return domain.Unset
		}
		if p.Date.End != nil && *p.Date.End != "" {
			return p.Date.Start + " → " + *p.Date.End
		}
		return p.Date.Start
	case "checkbox":
		if p.Checkbox != nil && *p.Checkbox {
			return "已勾选"
		}
		return "未勾选"
	case "number":
		if p.Number == nil {
			return domain.Unset
		}
		return strconv.FormatFloat(*p.Number, 'f', -1, 64)
	case "url":
		return orUnset(p.URL)
	case "email":
		return orUnset(p.Email)
	case "phone_number":
		return orUnset(p.PhoneNumber)
	case "relation":
		return fmt.Sprintf("关联了 %d 个项目", len(p.Relation))
	}
	return "[" + p.Type + "]"
}

func orUnset(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return domain.Unset
	}
	return *s
}

type block struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`
}

// blockBody couvre le contenu commun aux blocs texte, child_page et image.
type blockBody struct {
	RichText []richText `json:"rich_text"`
	Checked  *bool      `json:"checked"`
	Language string     `json:"language"`
	Title    string     `json:"title"`
	External *struct {
		URL string `json:"url"`
	} `json:"external"`
	File *struct {
		URL string `json:"url"`
	} `json:"file"`
}

type blockListResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

func (c *Client) blockChildren(ctx context.Context, id string) ([]domain.RecordBlock, error) {
	out := []domain.RecordBlock{}
	cursor := ""
	for {
		q := url.Values{"page_size": {strconv.Itoa(pageSize)}}
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		var resp blockListResponse
		path := "/v1/blocks/" + url.PathEscape(id) + "/children?" + q.Encode()
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		for _, raw := range resp.Results {
			b, err := decodeBlock(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, b)
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return out, nil
		}
		cursor = resp.NextCursor
	}
}

func decodeBlock(raw json.RawMessage) (domain.RecordBlock, error) {
	var b block
	if err := json.Unmarshal(raw, &b); err != nil {
		return domain.RecordBlock{}, err
	}
	rb := domain.RecordBlock{ID: b.ID, Type: b.Type, HasChildren: b.HasChildren}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return rb, err
	}
	var body blockBody
	if content, ok := fields[b.Type]; ok {
		// Contenu inattendu: bloc conservé sans texte.
		_ = json.Unmarshal(content, &body)
	}

	switch b.Type {
	case "child_page":
		rb.Text = body.Title
	case "image":
		switch {
		case body.External != nil:
			rb.Text = body.External.URL
		case body.File != nil:
			rb.Text = body.File.URL
		}
	case "to_do":
		rb.Text = plainText(body.RichText)
		if body.Checked != nil && *body.Checked {
			rb.Text += " (已完成)"
		} else {
			rb.Text += " (未完成)"
		}
	case "code":
		rb.Text = plainText(body.RichText)
		if body.Language != "" {
			rb.Text = "[" + body.Language + "] " + rb.Text
		}
	default:
		rb.Text = plainText(body.RichText)
	}
	return rb, nil
}

// Ping lit le schéma de la base et signale les propriétés configurées absentes.
func (c *Client) Ping(ctx context.Context) (domain.RemoteHealth, error) {
	start := time.Now()
	var db databaseResponse
	if err := c.do(ctx, http.MethodGet, "/v1/databases/"+url.PathEscape(c.databaseID), nil, &db); err != nil {
		return domain.RemoteHealth{DatabaseID: c.databaseID}, err
	}
	h := domain.RemoteHealth{
		DatabaseID:    c.databaseID,
		DatabaseTitle: plainText(db.Title),
		Properties:    len(db.Properties),
		Latency:       time.Since(start),
	}
	for _, name := range []string{c.props.Title, c.props.Date, c.props.Leader, c.props.Host, c.props.Author, c.props.Status} {
		if _, ok := db.Properties[name]; !ok {
			h.Missing = append(h.Missing, name)
		}
	}
	return h, nil
}
