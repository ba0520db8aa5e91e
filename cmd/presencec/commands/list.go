package commands

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/presencelabs/presencec/internal/logfields"
	"github.com/presencelabs/presencec/internal/store"
)

// ListCmd implements the 'list' command.
type ListCmd struct {
	Tags bool `help:"Include metadata tags in the listing"`
}

func (l *ListCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.New(cfg.Store)
	names, err := st.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	for _, name := range names {
		unit := st.Resolve(name)
		meta, err := store.LoadMetadata(unit.Dir)
		if err != nil {
			slog.Debug("Presence without readable metadata", logfields.Presence(name), logfields.Error(err))
			fmt.Fprintf(w, "%s\t-\t-\n", name)
			continue
		}
		version := meta.Version
		if l.Tags && len(meta.Tags) > 0 {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", name, meta.Service, version, []string(meta.Tags))
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, meta.Service, version)
	}

	slog.Info("Listed presences", logfields.Count(len(names)))
	return nil
}
