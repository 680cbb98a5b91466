package notion

import (
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

type richText struct {
	PlainText string    `json:"plain_text,omitempty"`
	Text      *textPart `json:"text,omitempty"`
}

type textPart struct {
	Content string `json:"content"`
}

type dateValue struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

type selectValue struct {
	Name string `json:"name"`
}

type relationRef struct {
	ID string `json:"id"`
}

// property couvre les types lus; les autres sont ignorés.
type property struct {
	Type        string        `json:"type,omitempty"`
	Title       []richText    `json:"title,omitempty"`
	RichText    []richText    `json:"rich_text,omitempty"`
	Date        *dateValue    `json:"date,omitempty"`
	Select      *selectValue  `json:"select,omitempty"`
	Status      *selectValue  `json:"status,omitempty"`
	MultiSelect []selectValue `json:"multi_select,omitempty"`
	Checkbox    *bool         `json:"checkbox,omitempty"`
	Number      *float64      `json:"number,omitempty"`
	URL         *string       `json:"url,omitempty"`
	Email       *string       `json:"email,omitempty"`
	PhoneNumber *string       `json:"phone_number,omitempty"`
	Relation    []relationRef `json:"relation,omitempty"`
}

type page struct {
	ID             string              `json:"id"`
	URL            string              `json:"url,omitempty"`
	CreatedTime    time.Time           `json:"created_time"`
	LastEditedTime time.Time           `json:"last_edited_time"`
	Properties     map[string]property `json:"properties"`
}

func plainText(parts []richText) string {
	var b strings.Builder
	for _, p := range parts {
		switch {
		case p.PlainText != "":
			b.WriteString(p.PlainText)
		case p.Text != nil:
			b.WriteString(p.Text.Content)
		}
	}
	return strings.TrimSpace(b.String())
}

// text lit une propriété textuelle quel que soit son type Notion.
func (p property) text() string {
	switch {
	case len(p.Title) > 0:
		return plainText(p.Title)
	case len(p.RichText) > 0:
		return plainText(p.RichText)
	case p.Select != nil:
		return strings.TrimSpace(p.Select.Name)
	case p.Status != nil:
		return strings.TrimSpace(p.Status.Name)
	}
	return ""
}

// normalizeDate ramène une date Notion avec heure à son jour (clé de rapprochement).
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > len(domain.DateLayout) {
		if _, err := domain.ParseDate(s); err == nil {
			return s[:len(domain.DateLayout)]
		}
	}
	return s
}

func (c *Client) toEntry(p page) domain.ScheduleEntry {
	e := domain.ScheduleEntry{RemoteID: p.ID}
	if prop, ok := p.Properties[c.props.Title]; ok {
		e.BookName = prop.text()
	}
	if prop, ok := p.Properties[c.props.Date]; ok && prop.Date != nil {
		e.Date = normalizeDate(prop.Date.Start)
	}
	if prop, ok := p.Properties[c.props.Leader]; ok {
		e.LeaderName = prop.text()
	}
	if prop, ok := p.Properties[c.props.Host]; ok {
		e.HostName = prop.text()
	}
	return e
}

func (c *Client) toBookRecord(p page) domain.BookRecord {
	r := domain.BookRecord{ScheduleEntry: c.toEntry(p)}
	if prop, ok := p.Properties[c.props.Author]; ok {
		r.Author = prop.text()
	}
	if prop, ok := p.Properties[c.props.Status]; ok {
		r.Status = prop.text()
	}
	return r
}

func titleValue(s string) map[string]any {
	return map[string]any{"title": []richText{{Text: &textPart{Content: s}}}}
}

func richTextValue(s string) map[string]any {
	return map[string]any{"rich_text": []richText{{Text: &textPart{Content: s}}}}
}

func dateProp(s string) map[string]any {
	return map[string]any{"date": dateValue{Start: s}}
}

func (c *Client) entryProperties(e domain.ScheduleEntry) map[string]any {
	return map[string]any{
		c.props.Title:  titleValue(e.BookName),
		c.props.Date:   dateProp(e.Date),
		c.props.Leader: richTextValue(e.Leader()),
		c.props.Host:   richTextValue(e.Host()),
	}
}

func (c *Client) patchProperties(p domain.EntryPatch) map[string]any {
	out := map[string]any{}
	if p.BookName != nil {
		out[c.props.Title] = titleValue(*p.BookName)
	}
	if p.Date != nil {
		out[c.props.Date] = dateProp(*p.Date)
	}
	if p.LeaderName != nil {
		out[c.props.Leader] = richTextValue(*p.LeaderName)
	}
	if p.HostName != nil {
		out[c.props.Host] = richTextValue(*p.HostName)
	}
	return out
}
