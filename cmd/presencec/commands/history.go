package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/presencelabs/presencec/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Maximum invocations to show"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.History.Path == "" {
		return fmt.Errorf("history is disabled (set history.path in %s)", root.Config)
	}

	hs, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer hs.Close()

	entries, err := hs.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No recorded invocations")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "WHEN\tPRESENCES\tDURATION\tPROBLEMS\tRESULT")
	for _, e := range entries {
		result := "ok"
		if !e.Success {
			result = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			e.StartedAt.Format(time.DateTime), e.Presences, e.Duration.Round(time.Millisecond), e.Diagnostics, result)
	}
	return nil
}
