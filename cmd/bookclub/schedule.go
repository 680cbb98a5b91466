package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/cli"
	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

func newListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "显示本地排期",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := s.services(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := st.Schedules.List(cmd.Context())
			if err != nil {
				return err
			}
			domain.SortByDateDesc(entries)
			s.out.Schedule(entries)
			return nil
		},
	}
}

type entryFlags struct {
	date   string
	book   string
	leader string
	host   string
	period int
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "活动日期 (YYYY-MM-DD 或 \"next saturday\")")
	cmd.Flags().StringVar(&f.book, "book", "", "书名")
	cmd.Flags().StringVar(&f.leader, "leader", "", "领读人")
	cmd.Flags().StringVar(&f.host, "host", "", "主持人")
	cmd.Flags().IntVar(&f.period, "period", 0, "期数 (默认从书名中的第N期提取)")
}

func newAddCmd(s *session) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "添加本地排期",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := s.services(ctx)
			if err != nil {
				return err
			}
			e, err := s.promptEntry(ctx, domain.ScheduleEntry{
				Date:       f.date,
				BookName:   f.book,
				LeaderName: f.leader,
				HostName:   f.host,
			}, f.period)
			if err != nil {
				return err
			}
			created, err := st.Schedules.Create(ctx, e)
			if err != nil {
				return err
			}
			s.out.Successf("已添加: %s", cli.FormatEntry(created))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(s *session) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "edit <date>",
		Short: "修改已有排期",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := s.services(ctx)
			if err != nil {
				return err
			}
			current, err := st.Schedules.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			draft := current
			if f.date != "" {
				draft.Date = f.date
			}
			if f.book != "" {
				draft.BookName = f.book
			}
			if f.leader != "" {
				draft.LeaderName = f.leader
			}
			if f.host != "" {
				draft.HostName = f.host
			}
			period := f.period
			if period == 0 && current.Period != nil {
				period = *current.Period
			}
			e, err := s.promptEntry(ctx, draft, period)
			if err != nil {
				return err
			}
			updated, err := st.Schedules.Replace(ctx, current.Date, e)
			if err != nil {
				return err
			}
			s.out.Successf("已更新: %s", cli.FormatEntry(updated))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <date>",
		Short: "删除本地排期",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := s.services(ctx)
			if err != nil {
				return err
			}
			e, err := st.Schedules.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			ok, err := s.prompt.Confirm("删除排期?", cli.FormatEntry(e))
			if err != nil {
				return err
			}
			if !ok {
				return cli.ErrAborted
			}
			if err := st.Schedules.Delete(ctx, e.Date); err != nil {
				return err
			}
			s.out.Successf("已删除: %s", cli.FormatEntry(e))
			return nil
		},
	}
}

// promptEntry complète les champs manquants; les valeurs déjà fournies servent de défaut.
func (s *session) promptEntry(ctx context.Context, e domain.ScheduleEntry, period int) (domain.ScheduleEntry, error) {
	now := time.Now()
	validDate := func(v string) error {
		_, err := cli.ParseDateInput(v, now)
		return err
	}
	raw, err := s.prompt.Input("日期 (YYYY-MM-DD)", e.Date, validDate)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}
	parsed, err := cli.ParseDateInput(raw, now)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}
	e.Date = parsed

	if e.BookName, err = s.prompt.Input("书名", e.BookName, required("书名")); err != nil {
		return domain.ScheduleEntry{}, err
	}

	names, err := s.leaderNames(ctx)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}
	if e.LeaderName, err = s.pickName("领读人", names, e.LeaderName); err != nil {
		return domain.ScheduleEntry{}, err
	}
	if e.HostName, err = s.pickName("主持人", names, e.HostName); err != nil {
		return domain.ScheduleEntry{}, err
	}

	if period > 0 {
		e.Period = &period
	} else if n, ok := domain.PeriodFromTitle(e.BookName); ok {
		e.Period = &n
	}
	return e, nil
}

func (s *session) leaderNames(ctx context.Context) ([]string, error) {
	leaders, err := s.stack.Leaders.List(ctx, app.LeaderFilter{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(leaders)+1)
	names = append(names, domain.Unspecified)
	for _, l := range leaders {
		names = append(names, l.Name)
	}
	return names, nil
}

// pickName propose la liste des leaders connus; une valeur hors liste est conservée telle quelle.
func (s *session) pickName(title string, names []string, current string) (string, error) {
	if strings.TrimSpace(current) != "" {
		return current, nil
	}
	if len(names) <= 1 {
		v, err := s.prompt.Input(title, "", nil)
		if err != nil {
			return "", err
		}
		return normalizeName(v), nil
	}
	v, err := s.prompt.Select(title, names, domain.Unspecified)
	if err != nil {
		return "", err
	}
	return normalizeName(v), nil
}

func normalizeName(v string) string {
	if domain.IsAbsent(v) {
		return ""
	}
	return strings.TrimSpace(v)
}

func required(label string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s不能为空", label)
		}
		return nil
	}
}
