package app

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

type LeaderService struct {
	repo ports.LeaderRepository
	bus  ports.EventBus
}

func NewLeaderService(repo ports.LeaderRepository, bus ports.EventBus) *LeaderService {
	return &LeaderService{repo: repo, bus: bus}
}

type LeaderFilter struct {
	Query     string
	HostsOnly bool
}

func (s *LeaderService) List(ctx context.Context, f LeaderFilter) ([]domain.Leader, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]domain.Leader, 0, len(all))
	for _, l := range all {
		if f.HostsOnly && !l.IsHost {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(l.Name), q) &&
			!strings.Contains(strings.ToLower(l.Title), q) &&
			!strings.Contains(strings.ToLower(l.Intro), q) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *LeaderService) Get(ctx context.Context, name string) (domain.Leader, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return domain.Leader{}, err
	}
	if i := indexOfLeader(all, name); i >= 0 {
		return all[i], nil
	}
	return domain.Leader{}, ErrNotFound
}

func (s *LeaderService) Create(ctx context.Context, l domain.Leader) (domain.Leader, error) {
	l = normalizeLeader(l)
	if err := checkLeader(l); err != nil {
		return domain.Leader{}, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return domain.Leader{}, err
	}
	if indexOfLeader(all, l.Name) >= 0 {
		return domain.Leader{}, &CodedError{Code: "leader_exists", Message: "leader already exists", Err: ErrConflict}
	}
	all = append(all, l)
	if err := s.save(ctx, all); err != nil {
		return domain.Leader{}, err
	}
	s.publish("leader.created", l)
	return l, nil
}

// Update remplace la fiche; un renommage est autorisé si le nouveau nom est libre.
func (s *LeaderService) Update(ctx context.Context, name string, l domain.Leader) (domain.Leader, error) {
	l = normalizeLeader(l)
	if l.Name == "" {
		l.Name = strings.TrimSpace(name)
	}
	if err := checkLeader(l); err != nil {
		return domain.Leader{}, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return domain.Leader{}, err
	}
	i := indexOfLeader(all, name)
	if i < 0 {
		return domain.Leader{}, ErrNotFound
	}
	if l.Name != all[i].Name && indexOfLeader(all, l.Name) >= 0 {
		return domain.Leader{}, &CodedError{Code: "leader_exists", Message: "leader already exists", Err: ErrConflict}
	}
	all[i] = l
	if err := s.save(ctx, all); err != nil {
		return domain.Leader{}, err
	}
	s.publish("leader.updated", l)
	return l, nil
}

func (s *LeaderService) Delete(ctx context.Context, name string) error {
	all, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	i := indexOfLeader(all, name)
	if i < 0 {
		return ErrNotFound
	}
	removed := all[i]
	all = append(all[:i], all[i+1:]...)
	if err := s.save(ctx, all); err != nil {
		return err
	}
	s.publish("leader.deleted", removed)
	return nil
}

func (s *LeaderService) save(ctx context.Context, all []domain.Leader) error {
	sort.SliceStable(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return s.repo.Save(ctx, all)
}

func (s *LeaderService) publish(topic string, l domain.Leader) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(l)
	if err != nil {
		return
	}
	s.bus.Publish(topic, b)
}

// Limites reprises du formulaire d'administration.
const (
	maxLeaderName  = 20
	maxLeaderTitle = 50
	maxLeaderIntro = 500
)

func normalizeLeader(l domain.Leader) domain.Leader {
	l.Name = strings.TrimSpace(l.Name)
	l.Title = strings.TrimSpace(l.Title)
	l.Intro = strings.TrimSpace(l.Intro)
	return l
}

func checkLeader(l domain.Leader) error {
	switch {
	case l.Name == "":
		return &CodedError{Code: "missing_name", Message: "name is required", Err: ErrInvalid}
	case l.Name == domain.Unspecified:
		return &CodedError{Code: "reserved_name", Message: "name is reserved", Err: ErrInvalid}
	case len([]rune(l.Name)) > maxLeaderName:
		return &CodedError{Code: "name_too_long", Message: "name is too long", Err: ErrInvalid}
	case len([]rune(l.Title)) > maxLeaderTitle:
		return &CodedError{Code: "title_too_long", Message: "title is too long", Err: ErrInvalid}
	case len([]rune(l.Intro)) > maxLeaderIntro:
		return &CodedError{Code: "intro_too_long", Message: "intro is too long", Err: ErrInvalid}
	}
	return nil
}

func indexOfLeader(all []domain.Leader, name string) int {
	name = strings.TrimSpace(name)
	for i, l := range all {
		if l.Name == name {
			return i
		}
	}
	return -1
}
