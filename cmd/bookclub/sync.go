package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/cli"
	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/wiring"
)

// checkLocal valide le planning local avant toute opération distante.
func (s *session) checkLocal(ctx context.Context, st *wiring.Stack) error {
	doc, err := st.ScheduleRepo.Load(ctx)
	if err != nil {
		return err
	}
	leaders, err := st.LeaderRepo.List(ctx)
	if err != nil {
		return err
	}
	rep := app.Validate(doc.Entries, leaders)
	if rep.IsValid {
		return nil
	}
	s.out.Validation(rep)
	if s.opts.force {
		s.out.Warnf("--force: 继续执行")
		return nil
	}
	// --yes ou une réponse explicite lèvent le blocage; sans terminal on refuse.
	if ok, err := s.prompt.Confirm("本地排期校验失败, 仍然继续?", ""); err != nil || !ok {
		return errValidationFailed
	}
	return nil
}

func newFetchCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "显示Notion排期并询问是否覆盖本地文件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.requireRemote(); err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := s.services(ctx)
			if err != nil {
				return err
			}
			remote, err := st.Sync.FetchRemote(ctx)
			if err != nil {
				return err
			}
			s.out.Title("Notion 排期:")
			s.out.Schedule(remote)
			return s.pull(ctx, st, "用Notion排期覆盖本地文件?")
		},
	}
}

func newPullCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "用Notion排期覆盖本地文件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.requireRemote(); err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := s.services(ctx)
			if err != nil {
				return err
			}
			return s.pull(ctx, st, "用Notion排期覆盖本地文件? 本地独有的排期将被删除")
		},
	}
}

func (s *session) pull(ctx context.Context, st *wiring.Stack, question string) error {
	ok, err := s.prompt.Confirm(question, s.cfg.Paths.Schedule)
	if err != nil {
		return err
	}
	if !ok {
		return cli.ErrAborted
	}
	rep, err := st.Sync.PullRemoteToLocal(ctx, true)
	s.out.Report(rep)
	return err
}

func newDiffCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "比较本地与Notion排期",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.requireRemote(); err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := s.services(ctx)
			if err != nil {
				return err
			}
			if err := s.checkLocal(ctx, st); err != nil {
				return err
			}
			diff, err := st.Sync.Compare(ctx)
			if err != nil {
				return err
			}
			s.out.Diff(diff)
			return nil
		},
	}
}

func newPushCmd(s *session) *cobra.Command {
	var (
		upsert  bool
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "push",
		Short: "将本地差异同步到Notion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.requireRemote(); err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := s.services(ctx)
			if err != nil {
				return err
			}
			if err := s.checkLocal(ctx, st); err != nil {
				return err
			}
			if !cmd.Flags().Changed("refresh") {
				settings, err := st.Settings.Get(ctx)
				if err != nil {
					return err
				}
				refresh = settings.RefreshAfterPush
			}
			opts := app.PushOptions{Refresh: refresh}

			if upsert {
				ok, err := s.prompt.Confirm("同步全部本地排期到Notion?", pushNotice("已存在的日期将被覆盖", refresh))
				if err != nil {
					return err
				}
				if !ok {
					return cli.ErrAborted
				}
				rep, err := st.Sync.PushAll(ctx, opts)
				s.out.Report(rep)
				return reportErr(rep, err)
			}

			diff, err := st.Sync.Compare(ctx)
			if err != nil {
				return err
			}
			s.out.Diff(diff)
			if len(diff.LocalOnly) == 0 && len(diff.Conflicts) == 0 {
				return nil
			}
			ok, err := s.prompt.Confirm("将以上差异同步到Notion?",
				pushNotice(fmt.Sprintf("新增 %d 项, 更新 %d 项", len(diff.LocalOnly), len(diff.Conflicts)), refresh))
			if err != nil {
				return err
			}
			if !ok {
				return cli.ErrAborted
			}
			rep, err := st.Sync.PushLocalToRemote(ctx, diff, opts)
			s.out.Report(rep)
			return reportErr(rep, err)
		},
	}
	cmd.Flags().BoolVar(&upsert, "upsert", false, "创建或更新每一条本地排期")
	cmd.Flags().BoolVar(&refresh, "refresh", true, "同步后重新拉取Notion并覆盖本地文件")
	return cmd
}

// pushNotice signale que le refresh réécrira le fichier local.
func pushNotice(desc string, refresh bool) string {
	if !refresh {
		return desc
	}
	return desc + "\n完成后将从Notion重新拉取并覆盖本地排期文件 (--refresh=false 可跳过)"
}

// reportErr transforme des échecs unitaires en code de sortie non nul.
func reportErr(rep domain.SyncReport, err error) error {
	if err != nil {
		return err
	}
	if rep.TotalErrors > 0 {
		return fmt.Errorf("%d item(s) failed", rep.TotalErrors)
	}
	return nil
}
