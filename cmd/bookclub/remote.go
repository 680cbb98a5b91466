package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/bookclub/internal/apiclient"
	"github.com/Guilhem-Bonnet/bookclub/internal/logging"
)

const remoteTimeout = 2 * time.Minute

// newRemoteCmd pilote un bookclub-server déjà lancé au lieu des fichiers locaux.
func newRemoteCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:   "remote",
		Short: "通过bookclub-server的HTTP API执行命令",
	}
	client := func() *apiclient.Client {
		return apiclient.New(logging.Component(s.logger, "apiclient"), s.cfg.API.Candidates, remoteTimeout)
	}

	health := &cobra.Command{
		Use:   "health",
		Short: "检查服务器是否可用",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			h, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			base, _ := c.BaseURL(cmd.Context())
			s.out.Successf("%s: %s", base, h.Status)
			if !h.Remote {
				s.out.Warnf("服务器未配置Notion (仅本地模式)")
			}
			return nil
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "服务器版本",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := client().Version(cmd.Context())
			if err != nil {
				return err
			}
			s.out.Plain(info.String())
			return nil
		},
	}

	diff := &cobra.Command{
		Use:   "diff",
		Short: "由服务器计算差异",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := client().Diff(cmd.Context())
			if err != nil {
				return err
			}
			s.out.Diff(d)
			return nil
		},
	}

	var (
		upsert  bool
		refresh bool
	)
	sync := &cobra.Command{
		Use:   "sync",
		Short: "在服务器端执行同步",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := apiclient.SyncOptions{}
			if upsert {
				opts.Mode = "upsert"
			}
			if cmd.Flags().Changed("refresh") {
				opts.Refresh = &refresh
			}
			rep, err := client().Sync(cmd.Context(), opts)
			if rep.ID != "" {
				s.out.Report(rep)
			}
			if err != nil {
				return err
			}
			return reportErr(rep, nil)
		},
	}
	sync.Flags().BoolVar(&upsert, "upsert", false, "创建或更新每一条本地排期")
	sync.Flags().BoolVar(&refresh, "refresh", true, "同步后重新拉取Notion (默认取服务器设置)")

	root.AddCommand(health, version, diff, sync)
	return root
}
