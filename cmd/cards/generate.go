package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tenx-cards/core/internal/workflow"
)

func newGenerateCmd(opts *cliOptions) *cobra.Command {
	var (
		name        string
		interactive bool
		drop        []int
		flagged     []int
	)
	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "Generate flashcards from a text file or stdin",
		Long: `Generate flashcard proposals from text and optionally save them as a set.

Without --interactive the proposals are printed, --drop and --flag are
applied by 1-based position, and the set is saved when --name is given.
With --interactive the text must come from a file and the review commands
are read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive && len(args) == 0 {
				return errors.New("--interactive needs the text in a file argument")
			}
			text, err := readText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			client := workflow.NewHTTPClient(opts.server, &http.Client{Timeout: opts.timeout})
			w := workflow.New(client, workflow.WithModel(opts.model))
			w.SetText(text)
			w.SetName(name)

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if err := w.Generate(ctx); err != nil {
				return err
			}
			printProposals(out, w.Snapshot())

			if interactive {
				return review(ctx, w, cmd.InOrStdin(), out)
			}
			if err := applyPositions(w, drop, flagged); err != nil {
				return err
			}
			if strings.TrimSpace(name) == "" {
				fmt.Fprintln(out, "Not saved. Pass --name to save the set.")
				return nil
			}
			if err := w.Save(ctx); err != nil {
				return err
			}
			printSaved(out, w.Snapshot())
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Save the proposals as a set with this name")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Review proposals with commands read from stdin")
	cmd.Flags().IntSliceVar(&drop, "drop", nil, "Positions of proposals to delete before saving")
	cmd.Flags().IntSliceVar(&flagged, "flag", nil, "Positions of proposals to flag before saving")
	return cmd
}

func readText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return string(b), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

// applyPositions resolves positions against the current list first so that
// deleting one proposal does not shift the others.
func applyPositions(w *workflow.Workflow, drop, flagged []int) error {
	proposals := w.Snapshot().Proposals
	idAt := func(pos int) (string, error) {
		if pos < 1 || pos > len(proposals) {
			return "", fmt.Errorf("position %d out of range 1-%d", pos, len(proposals))
		}
		return proposals[pos-1].ID, nil
	}
	for _, pos := range flagged {
		id, err := idAt(pos)
		if err != nil {
			return err
		}
		if err := w.ToggleFlag(id); err != nil {
			return err
		}
	}
	for _, pos := range drop {
		id, err := idAt(pos)
		if err != nil {
			return err
		}
		if err := w.DeleteProposal(id); err != nil {
			return err
		}
	}
	return nil
}

const reviewHelp = `Commands:
  l            list proposals
  d N          delete proposal N
  f N          toggle flag on proposal N
  e N          edit proposal N (front and back on the next two lines)
  n NAME       set the set name
  s            save
  r            retry after an error
  q            quit without saving`

// review runs the interactive loop until the set is saved or the user quits.
func review(ctx context.Context, w *workflow.Workflow, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	fmt.Fprintln(out, reviewHelp)
	for {
		fmt.Fprintf(out, "[%s]> ", w.State())
		if !sc.Scan() {
			return sc.Err()
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		arg = strings.TrimSpace(arg)

		var err error
		switch cmd {
		case "":
			continue
		case "l":
			printProposals(out, w.Snapshot())
		case "d", "f", "e":
			err = reviewItem(w, sc, cmd, arg)
		case "n":
			w.SetName(arg)
		case "s":
			err = w.Save(ctx)
		case "r":
			err = w.Retry(ctx)
			if err == nil && w.State() == workflow.StateReviewing {
				printProposals(out, w.Snapshot())
			}
		case "q":
			fmt.Fprintln(out, "Discarded.")
			return nil
		default:
			fmt.Fprintln(out, reviewHelp)
			continue
		}

		var f *workflow.Failure
		switch {
		case errors.As(err, &f):
			fmt.Fprintf(out, "%s: %s\n", f.Title, f.Message)
		case err != nil:
			fmt.Fprintln(out, err)
		}
		if w.State() == workflow.StateSuccess {
			printSaved(out, w.Snapshot())
			return nil
		}
	}
}

func reviewItem(w *workflow.Workflow, sc *bufio.Scanner, cmd, arg string) error {
	pos, err := strconv.Atoi(arg)
	proposals := w.Snapshot().Proposals
	if err != nil || pos < 1 || pos > len(proposals) {
		return fmt.Errorf("expected a position between 1 and %d", len(proposals))
	}
	id := proposals[pos-1].ID

	switch cmd {
	case "d":
		return w.DeleteProposal(id)
	case "f":
		return w.ToggleFlag(id)
	}
	lines := make([]string, 0, 2)
	for len(lines) < 2 && sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if len(lines) < 2 {
		return errors.New("edit needs a front and a back line")
	}
	return w.UpdateProposal(id, lines[0], lines[1])
}

func printProposals(out io.Writer, snap workflow.Snapshot) {
	if snap.Meta != nil {
		fmt.Fprintf(out, "%d proposals from %s in %dms\n", len(snap.Proposals), snap.Meta.Model, snap.Meta.GenerationDuration)
	}
	for i, p := range snap.Proposals {
		mark := " "
		if p.IsFlagged {
			mark = "!"
		}
		fmt.Fprintf(out, "%2d.%s Q: %s\n     A: %s  (%s)\n", i+1, mark, p.Avers, p.Rewers, p.Source)
	}
}

func printSaved(out io.Writer, snap workflow.Snapshot) {
	if snap.Saved == nil {
		return
	}
	fmt.Fprintf(out, "Saved set %q (%s) with %d flashcards.\n", snap.Saved.Name, snap.Saved.ID, snap.Saved.FlashcardCount)
}
