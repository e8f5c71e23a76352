// Package seedcmder provides the seed command, which loads call notes into
// the note store.
package seedcmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/cmd/advisor/wiring"
	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/notes"
)

const seedLongDesc string = `Seed call notes into the note store.

Without a file the three demo notes are stored. A notes file holds one note
per line; blank lines and lines starting with '#' are skipped, and a line of
the form "2024-08-15|text" records the date of the note.

Examples:
  advisor seed
  advisor seed notes.txt
  advisor seed --if-empty
  advisor seed --sample-corpus --db-provider qdrant --db-target localhost:6334`

const seedShortDesc string = "Seed call notes"

type seedCommander struct {
	ifEmpty      bool
	sampleCorpus bool

	flagKeys []string
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed [notes-file]",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return cmder.run(cmd, path)
		},
	}

	cmd.Flags().BoolVar(&cmder.ifEmpty, "if-empty", false, "Only seed when the store holds no notes")
	cmd.Flags().BoolVar(&cmder.sampleCorpus, "sample-corpus", false, "Also seed the larger sample corpus")

	cmder.flagKeys = wiring.AddStoreFlags(cmd)

	return cmd
}

func (c *seedCommander) run(cmd *cobra.Command, path string) error {
	toSeed, err := c.loadNotes(path)
	if err != nil {
		return err
	}

	cfg, err := wiring.LoadConfig(cmd, c.flagKeys)
	if err != nil {
		return err
	}

	deps, err := wiring.NewStore(cmd.Context(), cfg, wiring.NewLogger(cmd))
	if err != nil {
		return err
	}
	defer deps.Close()

	return seed(cmd.Context(), cmd.OutOrStdout(), deps.Store, toSeed, c.ifEmpty)
}

func (c *seedCommander) loadNotes(path string) ([]notes.Note, error) {
	var out []notes.Note
	if path == "" {
		out = notes.DemoNotes()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening notes file: %w", err)
		}
		defer f.Close()

		out, err = notes.ParseNotes(f)
		if err != nil {
			return nil, err
		}
	}

	if c.sampleCorpus {
		out = append(out, notes.SampleCorpus()...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no notes found in %s", path)
	}
	return out, nil
}

// seedStore is the part of notes.Store used by seed.
type seedStore interface {
	Upsert(ctx context.Context, notes []notes.Note) error
	Count(ctx context.Context) (int, error)
}

func seed(ctx context.Context, w io.Writer, store seedStore, toSeed []notes.Note, ifEmpty bool) error {
	if ifEmpty {
		n, err := store.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			fmt.Fprintf(w, "\n  %s Store already holds %s notes, nothing seeded\n\n",
				cliui.SuccessMark,
				cliui.ValueStyle.Render(strconv.Itoa(n)),
			)
			return nil
		}
	}

	if err := cliui.Step(w, "Seeding notes", func() error {
		return store.Upsert(ctx, toSeed)
	}); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n  %s Seeded %s notes\n\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(strconv.Itoa(len(toSeed))),
	)
	return nil
}
