package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/solatis/shelfwright/internal/codec"
	"github.com/solatis/shelfwright/internal/engine"
	"github.com/solatis/shelfwright/internal/render"
	"github.com/solatis/shelfwright/internal/tui"
	"github.com/solatis/shelfwright/internal/types"
	"github.com/solatis/shelfwright/internal/watch"
	"github.com/solatis/shelfwright/internal/workspace"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List rod and plate SKUs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, eng, err := loadEngine()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), render.Catalog(eng.Catalog()))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <design.toml>",
	Short: "Render a design with its suggestions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, eng, err := loadEngine()
		if err != nil {
			return err
		}
		s, err := loadShelf(args[0], eng)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), render.Shelf(filepath.Base(args[0]), s, eng.Catalog()))
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <design.toml>...",
	Short: "Validate designs against the placement rules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, eng, err := loadEngine()
		if err != nil {
			return err
		}
		failed := 0
		for _, path := range args {
			s, err := loadShelf(path, eng)
			if err == nil {
				err = eng.Check(s)
			}
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok   %s: %s\n", path, render.Summary(s))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d designs invalid", failed, len(args))
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <design.toml>",
	Short: "Re-render a design whenever the file changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, eng, err := loadEngine()
		if err != nil {
			return err
		}
		w, err := watch.New(args[0])
		if err != nil {
			return err
		}
		defer w.Stop()
		if err := w.Start(); err != nil {
			return fmt.Errorf("watching %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		draw := func() {
			s, err := loadShelf(args[0], eng)
			if err != nil {
				logger.Warn("design not rendered", "path", args[0], "error", err)
				return
			}
			// Clear screen and home the cursor.
			fmt.Fprint(out, "\x1b[2J\x1b[H")
			fmt.Fprintln(out, render.Shelf(filepath.Base(args[0]), s, eng.Catalog()))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		draw()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-w.Changes:
				draw()
			case err := <-w.Errors:
				logger.Warn("watch error", "error", err)
			}
		}
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <design.toml>",
	Short: "Edit a design interactively, creating it if missing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, eng, err := loadEngine()
		if err != nil {
			return err
		}

		var ws *workspace.Workspace
		d, err := codec.ReadFile(args[0])
		switch {
		case err == nil:
			ws, err = workspace.Open(eng, d, cfg.HistoryDepth)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
		case errors.Is(err, os.ErrNotExist):
			ws = workspace.New(eng, cfg.HistoryDepth)
			// Suggestions need a rod pair; seed one a standard gap apart.
			first := eng.Catalog().Rods()[0]
			gap := eng.Catalog().StandardGaps()[0]
			if err := ws.Do(func(e *engine.Engine, s *types.Shelf) error {
				for _, x := range []int{0, gap} {
					if _, err := e.AddRod(s, types.Position{X: x}, first.ID); err != nil {
						return err
					}
				}
				return nil
			}); err != nil {
				return err
			}
		default:
			return err
		}
		return tui.Run(ws, args[0])
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd, showCmd, checkCmd, watchCmd, editCmd)
}

func loadShelf(path string, eng *engine.Engine) (*types.Shelf, error) {
	d, err := codec.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := codec.Decode(d, eng)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
