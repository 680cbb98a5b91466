package app

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

//go:embed templates/invitation.json
var defaultInvitationTemplate []byte

const unknownPeriod = "未知期数"

// LoadInvitationTemplate lit le modèle depuis path, ou le modèle embarqué si path est vide
// ou si le fichier n'existe pas.
func LoadInvitationTemplate(path string) (domain.Invitation, error) {
	raw := defaultInvitationTemplate
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			raw = b
		case errors.Is(err, fs.ErrNotExist):
		default:
			return domain.Invitation{}, fmt.Errorf("read invitation template: %w", err)
		}
	}
	var tpl domain.Invitation
	if err := json.Unmarshal(raw, &tpl); err != nil {
		return domain.Invitation{}, fmt.Errorf("parse invitation template: %w", err)
	}
	return tpl, nil
}

type InvitationService struct {
	template  domain.Invitation
	leaders   ports.LeaderRepository
	schedules ports.ScheduleRepository
	settings  *SettingsService
}

func NewInvitationService(template domain.Invitation, leaders ports.LeaderRepository, schedules ports.ScheduleRepository, settings *SettingsService) *InvitationService {
	return &InvitationService{template: template, leaders: leaders, schedules: schedules, settings: settings}
}

// ParamsForDate complète les paramètres depuis la séance du jour donné
// (la plus récente si date est vide).
func (s *InvitationService) ParamsForDate(ctx context.Context, date string) (domain.InvitationParams, error) {
	doc, err := s.schedules.Load(ctx)
	if err != nil {
		return domain.InvitationParams{}, err
	}
	var entry domain.ScheduleEntry
	if date == "" {
		e, ok := domain.Latest(doc.Entries)
		if !ok {
			return domain.InvitationParams{}, ErrNotFound
		}
		entry = e
	} else {
		i := indexOfDate(doc.Entries, date)
		if i < 0 {
			return domain.InvitationParams{}, ErrNotFound
		}
		entry = doc.Entries[i]
	}

	p := domain.InvitationParams{Date: entry.Date, BookName: entry.BookName}
	if !domain.IsAbsent(entry.LeaderName) {
		p.LeaderName = entry.LeaderName
	}
	if n, ok := entry.EffectivePeriod(); ok {
		p.Period = &n
	}
	return p, nil
}

func (s *InvitationService) Generate(ctx context.Context, p domain.InvitationParams) (domain.Invitation, error) {
	if strings.TrimSpace(p.Date) == "" {
		return domain.Invitation{}, &CodedError{Code: "missing_date", Message: "date is required", Err: ErrInvalid}
	}
	leaders, err := s.leaders.List(ctx)
	if err != nil {
		return domain.Invitation{}, err
	}
	roster := domain.NewRoster(leaders)
	leader, ok := roster[strings.TrimSpace(p.LeaderName)]
	if !ok {
		return domain.Invitation{}, &CodedError{Code: "unknown_leader", Message: fmt.Sprintf("leader %q not found", p.LeaderName), Err: ErrUnknownLeader}
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return domain.Invitation{}, err
	}
	if p.RoomNumber == "" {
		p.RoomNumber = settings.RoomNumber
	}
	if p.WechatLink == "" {
		p.WechatLink = settings.WechatLink
	}

	r := placeholders(p)
	tpl := s.template
	inv := domain.Invitation{
		Title:     r.Replace(tpl.Title),
		Header:    r.Replace(tpl.Header),
		BookTitle: r.Replace(tpl.BookTitle),
		BookIntro: p.BookIntro,
		Leader: domain.InvitationLeader{
			Title: r.Replace(tpl.Leader.Title),
			Intro: leader.Intro,
		},
		ActivityInfo: make(domain.OrderedSections, 0, len(tpl.ActivityInfo)),
		Notes: domain.InvitationNotes{
			Title: r.Replace(tpl.Notes.Title),
			Items: make([]string, 0, len(tpl.Notes.Items)),
		},
		Registration: domain.InvitationRegistration{
			Title:   r.Replace(tpl.Registration.Title),
			Content: r.Replace(tpl.Registration.Content),
		},
	}
	for _, sec := range tpl.ActivityInfo {
		inv.ActivityInfo = append(inv.ActivityInfo, domain.InvitationSection{
			Key:     sec.Key,
			Title:   r.Replace(sec.Title),
			Content: r.Replace(sec.Content),
		})
	}
	for _, item := range tpl.Notes.Items {
		inv.Notes.Items = append(inv.Notes.Items, r.Replace(item))
	}
	return inv, nil
}

func placeholders(p domain.InvitationParams) *strings.Replacer {
	period := unknownPeriod
	if p.Period != nil {
		period = strconv.Itoa(*p.Period)
	}
	return strings.NewReplacer(
		"{period}", period,
		"{date}", p.Date,
		"{bookName}", p.BookName,
		"{leaderName}", p.LeaderName,
		"{roomNumber}", p.RoomNumber,
		"{wechatLink}", p.WechatLink,
	)
}

// InvitationText rend l'invitation en texte brut, prête à être copiée.
func InvitationText(inv domain.Invitation) string {
	var b strings.Builder
	b.WriteString(inv.Title + "\n\n")
	b.WriteString(inv.Header + "\n\n")
	b.WriteString(inv.BookTitle + "\n")
	b.WriteString(inv.BookIntro + "\n\n")
	b.WriteString(inv.Leader.Title + "\n")
	b.WriteString(inv.Leader.Intro + "\n\n")
	for _, sec := range inv.ActivityInfo {
		b.WriteString(sec.Title + sec.Content + "\n")
	}
	b.WriteString("\n")
	b.WriteString(inv.Notes.Title + "\n")
	for _, item := range inv.Notes.Items {
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\n")
	b.WriteString(inv.Registration.Title + inv.Registration.Content + "\n")
	return b.String()
}

func InvitationFileName(p domain.InvitationParams) string {
	period := unknownPeriod
	if p.Period != nil {
		period = strconv.Itoa(*p.Period)
	}
	return fmt.Sprintf("邀请函-%s-%s.txt", period, p.Date)
}
