package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/buildinfo"
	"github.com/Guilhem-Bonnet/bookclub/internal/cli"
	"github.com/Guilhem-Bonnet/bookclub/internal/config"
	"github.com/Guilhem-Bonnet/bookclub/internal/logging"
	"github.com/Guilhem-Bonnet/bookclub/internal/wiring"
)

var errValidationFailed = errors.New("local schedule failed validation (use --force to ignore)")

type globalOptions struct {
	configPath string
	verbose    bool
	yes        bool
	force      bool
}

// session porte l'état partagé par les sous-commandes, construit à la demande.
type session struct {
	opts   *globalOptions
	cfg    config.Config
	logger zerolog.Logger
	out    *cli.Printer
	prompt cli.Prompter

	stack    *wiring.Stack
	closeLog func() error
}

func (s *session) init() error {
	cfg, err := config.Load(s.opts.configPath)
	if err != nil {
		return err
	}
	level := "warn"
	if s.opts.verbose {
		level = "debug"
	}
	s.cfg = cfg
	s.logger, s.closeLog = logging.New(os.Stderr, logging.Options{
		App:        "bookclub",
		Level:      level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Console:    true,
	})
	s.out = cli.NewPrinter(os.Stdout)
	s.prompt = cli.NewPrompter(s.opts.yes)
	return nil
}

// services ouvre la base et les stores au premier appel.
func (s *session) services(ctx context.Context) (*wiring.Stack, error) {
	if s.stack != nil {
		return s.stack, nil
	}
	st, err := wiring.Build(ctx, s.cfg, s.logger)
	if err != nil {
		return nil, err
	}
	// Sans serveur pour écouter le bus, l'historique est écrit directement.
	st.Sync.WithRecorder(st.Runs)
	s.stack = st
	return st, nil
}

func (s *session) close() {
	if s.stack != nil {
		_ = s.stack.Close()
	}
	if s.closeLog != nil {
		_ = s.closeLog()
	}
}

// requireRemote échoue tôt pour les commandes sans mode local.
func (s *session) requireRemote() error {
	if err := s.cfg.RequireRemote(); err != nil {
		return fmt.Errorf("%w: %v", app.ErrRemoteNotConfigured, err)
	}
	return nil
}

func newRootCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:           "bookclub",
		Short:         "读书会排期管理与Notion同步工具",
		Version:       buildinfo.Current().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.init()
		},
	}
	root.PersistentFlags().StringVar(&s.opts.configPath, "config", os.Getenv("BOOKCLUB_CONFIG"), "YAML配置文件")
	root.PersistentFlags().BoolVarP(&s.opts.verbose, "verbose", "v", false, "在stderr输出详细日志")
	root.PersistentFlags().BoolVarP(&s.opts.yes, "yes", "y", false, "所有确认均回答是")
	root.PersistentFlags().BoolVar(&s.opts.force, "force", false, "忽略本地校验失败")

	root.AddCommand(
		newListCmd(s),
		newAddCmd(s),
		newEditCmd(s),
		newDeleteCmd(s),
		newFetchCmd(s),
		newDiffCmd(s),
		newPushCmd(s),
		newPullCmd(s),
		newInviteCmd(s),
		newFieldsCmd(s),
		newAnalyzeCmd(s),
		newBooklistCmd(s),
		newLatestCmd(s),
		newDoctorCmd(s),
		newRemoteCmd(s),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	s := &session{opts: &globalOptions{}}
	err := newRootCmd(s).ExecuteContext(ctx)
	s.close()
	stop()
	if err != nil {
		if errors.Is(err, cli.ErrAborted) {
			fmt.Fprintln(os.Stderr, "已取消")
		} else {
			fmt.Fprintln(os.Stderr, "Erreur:", err)
		}
		os.Exit(1)
	}
}
