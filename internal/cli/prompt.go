// Package cli regroupe les briques interactives de la commande bookclub:
// questions (huh), rendu coloré (lipgloss) et saisie de dates en langage naturel.
package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

var (
	ErrNotInteractive = errors.New("no terminal available: rerun with --yes or pass the values as flags")
	ErrAborted        = errors.New("aborted")
)

type Prompter interface {
	Confirm(title, description string) (bool, error)
	// Input renvoie la saisie nettoyée; initial pré-remplit le champ.
	Input(title, initial string, validate func(string) error) (string, error)
	Select(title string, options []string, initial string) (string, error)
}

// IsInteractive indique si stdin et stdout sont des terminaux.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// NewPrompter choisit huh sur un terminal, sinon un prompteur non interactif.
// assumeYes répond oui à toutes les confirmations.
func NewPrompter(assumeYes bool) Prompter {
	if IsInteractive() {
		return HuhPrompter{AssumeYes: assumeYes}
	}
	return StaticPrompter{Yes: assumeYes}
}

type HuhPrompter struct {
	AssumeYes bool
}

func (p HuhPrompter) Confirm(title, description string) (bool, error) {
	if p.AssumeYes {
		return true, nil
	}
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("是").
		Negative("否").
		Value(&ok).
		Run()
	return ok, mapHuhErr(err)
}

func (p HuhPrompter) Input(title, initial string, validate func(string) error) (string, error) {
	v := initial
	in := huh.NewInput().Title(title).Value(&v)
	if validate != nil {
		in = in.Validate(func(s string) error { return validate(strings.TrimSpace(s)) })
	}
	if err := in.Run(); err != nil {
		return "", mapHuhErr(err)
	}
	return strings.TrimSpace(v), nil
}

func (p HuhPrompter) Select(title string, options []string, initial string) (string, error) {
	v := initial
	err := huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(options...)...).
		Value(&v).
		Run()
	return v, mapHuhErr(err)
}

func mapHuhErr(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}

// StaticPrompter répond sans terminal: valeurs initiales et confirmations fixées.
type StaticPrompter struct {
	Yes bool
}

func (p StaticPrompter) Confirm(title, description string) (bool, error) {
	if !p.Yes {
		return false, ErrNotInteractive
	}
	return true, nil
}

func (p StaticPrompter) Input(title, initial string, validate func(string) error) (string, error) {
	v := strings.TrimSpace(initial)
	if validate != nil {
		if err := validate(v); err != nil {
			return "", errors.Join(ErrNotInteractive, err)
		}
	}
	return v, nil
}

func (p StaticPrompter) Select(title string, options []string, initial string) (string, error) {
	for _, o := range options {
		if o == initial {
			return initial, nil
		}
	}
	return "", ErrNotInteractive
}
