package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/cli"
)

func newInviteCmd(s *session) *cobra.Command {
	var (
		date   string
		room   string
		wechat string
		intro  string
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "生成邀请函 (默认最近一期)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := s.services(ctx)
			if err != nil {
				return err
			}
			if date != "" {
				if date, err = cli.ParseDateInput(date, time.Now()); err != nil {
					return err
				}
			}
			p, err := st.Invitations.ParamsForDate(ctx, date)
			if err != nil {
				if date == "" {
					return fmt.Errorf("no scheduled session: %w", err)
				}
				return fmt.Errorf("%s: %w", date, err)
			}
			if !cmd.Flags().Changed("intro") {
				if intro, err = s.prompt.Input("书籍简介 (可留空)", "", nil); err != nil {
					return err
				}
			}
			p.BookIntro = strings.TrimSpace(intro)
			p.RoomNumber = strings.TrimSpace(room)
			p.WechatLink = strings.TrimSpace(wechat)

			inv, err := st.Invitations.Generate(ctx, p)
			if err != nil {
				return err
			}
			text := app.InvitationText(inv)

			if outDir == "" {
				outDir = s.cfg.Paths.OutputDir
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(outDir, app.InvitationFileName(p))
			if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
				return err
			}
			s.out.Plain(text)
			s.out.Successf("邀请函已保存: %s", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "活动日期 (默认最近一期)")
	cmd.Flags().StringVar(&room, "room", "", "会议室 (默认取设置)")
	cmd.Flags().StringVar(&wechat, "wechat", "", "微信群链接 (默认取设置)")
	cmd.Flags().StringVar(&intro, "intro", "", "书籍简介")
	cmd.Flags().StringVar(&outDir, "out", "", "输出目录 (默认 paths.output_dir)")
	return cmd
}
