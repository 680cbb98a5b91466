package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

var errDiagnosisFailed = errors.New("diagnosis failed")

func newBooklistCmd(s *session) *cobra.Command {
	var (
		f      domain.BooklistFilter
		period int
	)
	cmd := &cobra.Command{
		Use:   "booklist",
		Short: "显示Notion书单的全部字段, 支持按字段过滤",
		Long: "显示Notion书单的全部字段, 支持按字段过滤。\n" +
			"文本字段为模糊匹配, 用\"" + domain.Unset + "\"匹配空值, 期数为精确匹配。",
		Example: "  bookclub booklist --book 原则 --date 2025\n  bookclub booklist --leader " + domain.Unset,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.requireRemote(); err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := s.services(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("period") {
				f.Period = &period
			}
			bl, err := st.Catalog.Booklist(ctx, f)
			if err != nil {
				return err
			}
			s.out.Booklist(bl)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Book, "book", "", "书名")
	cmd.Flags().StringVar(&f.Leader, "leader", "", "领读人")
	cmd.Flags().StringVar(&f.Host, "host", "", "主持人")
	cmd.Flags().StringVar(&f.Author, "author", "", "作者")
	cmd.Flags().StringVar(&f.Status, "status", "", "进度")
	cmd.Flags().StringVar(&f.Date, "date", "", "排期 (前缀或片段, 如 2025-03)")
	cmd.Flags().IntVar(&period, "period", 0, "期数")
	return cmd
}

func newLatestCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "分析Notion中最新创建的一条记录 (全部属性与内容块)",
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
			rec, err := st.Catalog.Latest(ctx)
			if err != nil {
				return err
			}
			s.out.LatestRecord(rec)
			return nil
		},
	}
}

func newDoctorCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "检查本地排期文件与Notion连接",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := s.services(ctx)
			if err != nil {
				return err
			}
			d := st.Catalog.Diagnose(ctx)
			s.out.Diagnosis(d)
			if d.LocalError == "" && !d.LocalValid {
				doc, err := st.ScheduleRepo.Load(ctx)
				if err != nil {
					return err
				}
				leaders, err := st.LeaderRepo.List(ctx)
				if err != nil {
					return err
				}
				s.out.Validation(app.Validate(doc.Entries, leaders))
			}
			if !d.OK() {
				return errDiagnosisFailed
			}
			return nil
		},
	}
}
