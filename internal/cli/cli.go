// Package cli is the terminal front-end driving the scheduling engine.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/flashdeck/internal/database"
)

// App dispatches terminal commands to the engine.
type App struct {
	cards  *database.CardRepository
	config *database.ConfigRepository
	in     *bufio.Scanner
	out    io.Writer
}

// NewApp creates an App reading from stdin and writing to stdout.
func NewApp() *App {
	return &App{
		cards:  database.NewCardRepository(),
		config: database.NewConfigRepository(),
		in:     bufio.NewScanner(os.Stdin),
		out:    os.Stdout,
	}
}

// Run executes a single command with its arguments.
func (a *App) Run(args []string) error {
	if len(args) == 0 {
		a.usage()
		return nil
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "add":
		return a.runAdd(rest)
	case "list":
		return a.runList()
	case "review":
		return a.runReview(rest)
	case "stats":
		return a.runStats()
	case "import":
		return a.runImport(rest)
	case "config":
		return a.runConfig(rest)
	case "help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) usage() {
	fmt.Fprint(a.out, `flashdeck - spaced repetition flashcards

Usage:
  flashdeck add [<front> <back>]   add a card (prompts when omitted)
  flashdeck list                   list all cards
  flashdeck review [all]           review due cards (or every card)
  flashdeck stats                  show collection statistics
  flashdeck import <file>          import a deck from .xlsx or .csv
  flashdeck config [set ...]       show or change learning settings
`)
}

// prompt prints the label and returns one trimmed input line.
func (a *App) prompt(label string) string {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}
