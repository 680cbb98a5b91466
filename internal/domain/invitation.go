package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type InvitationSection struct {
	Key     string `json:"-"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// OrderedSections garde l'ordre des clés de l'objet JSON source.
type OrderedSections []InvitationSection

func (s *OrderedSections) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("activityInfo: object expected")
	}
	out := OrderedSections{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("activityInfo: unexpected token %v", tok)
		}
		var sec InvitationSection
		if err := dec.Decode(&sec); err != nil {
			return fmt.Errorf("activityInfo.%s: %w", key, err)
		}
		sec.Key = key
		out = append(out, sec)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

func (s OrderedSections) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sec := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(sec.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(sec)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type InvitationLeader struct {
	Title string `json:"title"`
	Intro string `json:"intro"`
}

type InvitationNotes struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

type InvitationRegistration struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Invitation sert à la fois de modèle (avec placeholders) et de résultat.
type Invitation struct {
	Title        string                 `json:"title"`
	Header       string                 `json:"header"`
	BookTitle    string                 `json:"bookTitle"`
	BookIntro    string                 `json:"bookIntro"`
	Leader       InvitationLeader       `json:"leader"`
	ActivityInfo OrderedSections        `json:"activityInfo"`
	Notes        InvitationNotes        `json:"notes"`
	Registration InvitationRegistration `json:"registration"`
}

type InvitationParams struct {
	Period     *int   `json:"period,omitempty"`
	Date       string `json:"date"`
	BookName   string `json:"bookName"`
	BookIntro  string `json:"bookIntro,omitempty"`
	LeaderName string `json:"leaderName"`
	RoomNumber string `json:"roomNumber,omitempty"`
	WechatLink string `json:"wechatLink,omitempty"`
}
