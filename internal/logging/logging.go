// Package logging construit les loggers zerolog du serveur et de la CLI.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	App   string
	Level string

	// File active une copie des logs dans un fichier tourné par taille.
	File       string
	MaxSizeMB  int
	MaxBackups int

	// Console produit une sortie lisible (CLI) au lieu de lignes JSON.
	Console bool
}

// New renvoie le logger et une fonction de fermeture du fichier éventuel.
func New(out io.Writer, opts Options) (zerolog.Logger, func() error) {
	if out == nil {
		out = os.Stdout
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	closer := func() error { return nil }
	w := out
	if strings.TrimSpace(opts.File) != "" {
		rot := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		w = zerolog.MultiLevelWriter(out, rot)
		closer = rot.Close
	}

	ctx := zerolog.New(w).Level(ParseLevel(opts.Level)).With().Timestamp()
	if opts.App != "" {
		ctx = ctx.Str("app", opts.App)
	}
	return ctx.Logger(), closer
}

// ParseLevel retombe sur info pour une valeur inconnue.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Component dérive un sous-logger nommé.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
