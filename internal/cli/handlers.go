package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/flashdeck/internal/excel"
	"github.com/example/flashdeck/internal/session"
	"github.com/example/flashdeck/internal/srs"
	"github.com/example/flashdeck/internal/stats"
	"github.com/example/flashdeck/pkg/models"
)

func (a *App) runAdd(args []string) error {
	var front, back string
	if len(args) >= 2 {
		front, back = args[0], args[1]
	} else {
		front = a.prompt("Front: ")
		back = a.prompt("Back: ")
	}
	if front == "" || back == "" {
		return fmt.Errorf("a card needs both front and back")
	}

	card := srs.NewCard(front, back, time.Now())
	if err := a.cards.Create(&card); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added card %s\n", card.ID)
	return nil
}

func (a *App) runList() error {
	cards, err := a.cards.GetAll()
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		fmt.Fprintln(a.out, "No cards yet. Try: flashdeck add")
		return nil
	}
	now := time.Now()
	for _, c := range cards {
		due := c.NextReviewDate.Format("2006-01-02 15:04")
		if c.IsDue(now) {
			due = "due now"
		}
		fmt.Fprintf(a.out, "%-10s  %-24s  %s\n", c.State, truncate(c.Front, 24), due)
	}
	return nil
}

func (a *App) runReview(args []string) error {
	mode := session.ModeDue
	if len(args) > 0 && args[0] == "all" {
		mode = session.ModeAll
	}

	sess := session.New(a.cards, a.config)
	if err := sess.Start(mode); err != nil {
		return err
	}
	defer sess.End()

	for {
		card, ok := sess.Current()
		if !ok {
			fmt.Fprintln(a.out, "Session complete.")
			return nil
		}

		fmt.Fprintf(a.out, "\n[%d left] %s\n", sess.Remaining(), card.Front)
		if a.prompt("(enter to reveal, q to quit) ") == "q" {
			return nil
		}
		fmt.Fprintf(a.out, "  %s\n", card.Back)

		grade, quit := a.readGrade()
		if quit {
			return nil
		}
		if err := sess.Answer(grade); err != nil {
			return err
		}
	}
}

// readGrade asks for a grade until it gets a valid one. Returns quit=true
// on q or EOF.
func (a *App) readGrade() (models.Grade, bool) {
	for {
		answer := a.prompt("(a)gain (h)ard (g)ood (e)asy (q)uit: ")
		switch answer {
		case "q", "":
			return 0, true
		case "a":
			answer = "again"
		case "h":
			answer = "hard"
		case "g":
			answer = "good"
		case "e":
			answer = "easy"
		}
		grade, err := models.ParseGrade(answer)
		if err != nil {
			fmt.Fprintln(a.out, "Please answer a, h, g, e or q.")
			continue
		}
		return grade, false
	}
}

func (a *App) runStats() error {
	cards, err := a.cards.GetAll()
	if err != nil {
		return err
	}
	s := stats.Compute(cards, time.Now())
	fmt.Fprintf(a.out, "Cards:          %d\n", s.TotalCards)
	fmt.Fprintf(a.out, "Due today:      %d\n", s.DueToday)
	fmt.Fprintf(a.out, "Reviewed today: %d\n", s.ReviewedToday)
	fmt.Fprintf(a.out, "Mastery:        %d%%\n", s.MasteryPercentage)
	return nil
}

func (a *App) runImport(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: flashdeck import <file.xlsx|file.csv>")
	}
	cfg := excel.DefaultImportConfig()
	cfg.FilePath = args[0]

	result, err := excel.ImportCards(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Processed %d rows: %d created, %d skipped\n",
		result.TotalProcessed, result.Created, result.Skipped)
	for _, e := range result.Errors {
		fmt.Fprintf(a.out, "  %s\n", e)
	}
	return nil
}

func (a *App) runConfig(args []string) error {
	cfg, err := a.config.Get()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Fprintf(a.out, "learning-steps:      %s (minutes)\n", joinInts(cfg.LearningSteps))
		fmt.Fprintf(a.out, "relearning-steps:    %s (minutes)\n", joinInts(cfg.RelearningSteps))
		fmt.Fprintf(a.out, "graduating-interval: %d days\n", cfg.GraduatingInterval)
		fmt.Fprintf(a.out, "easy-interval:       %d days\n", cfg.EasyInterval)
		fmt.Fprintf(a.out, "new-cards-per-day:   %d\n", cfg.NewCardsPerDay)
		return nil
	}
	if len(args) != 3 || args[0] != "set" {
		return fmt.Errorf("usage: flashdeck config set <key> <value>")
	}

	key, value := args[1], args[2]
	switch key {
	case "learning-steps":
		cfg.LearningSteps, err = splitInts(value)
	case "relearning-steps":
		cfg.RelearningSteps, err = splitInts(value)
	case "graduating-interval":
		cfg.GraduatingInterval, err = strconv.Atoi(value)
	case "easy-interval":
		cfg.EasyInterval, err = strconv.Atoi(value)
	case "new-cards-per-day":
		cfg.NewCardsPerDay, err = strconv.Atoi(value)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if err != nil {
		return fmt.Errorf("bad value %q for %s: %w", value, key, err)
	}

	if err := a.config.Save(cfg); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Set %s = %s\n", key, value)
	return nil
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	vals := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
