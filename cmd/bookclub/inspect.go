package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/bookclub/internal/app"
)

func newFieldsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "列出Notion数据库属性与本地文件字段",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := s.services(cmd.Context())
			if err != nil {
				return err
			}
			rep, err := st.Fields.Inspect(cmd.Context())
			if err != nil {
				return err
			}
			s.out.Fields(rep)
			return nil
		},
	}
}

func newAnalyzeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "分析本地排期数据",
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
			s.out.Analysis(app.Analyze(entries, time.Now()))
			return nil
		},
	}
}
