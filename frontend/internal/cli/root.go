// Package cli runs the forum controller from the command line: each command
// performs one page interaction, waits for it to settle and prints the view.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/itchan-dev/discussion/frontend/internal/dom"
	"github.com/itchan-dev/discussion/frontend/internal/setup"
	"github.com/itchan-dev/discussion/frontend/internal/toast"
	"github.com/itchan-dev/discussion/shared/config"
	"github.com/spf13/cobra"
)

type App struct {
	ConfigDir string
	Format    string

	deps *setup.Dependencies
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "forum",
		Short:        "Discussion board client",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Newest threads in one category
  forum list --category Science

  # A thread with its replies, as HTML
  forum show 12 --format html

  # Post a reply with an image
  forum reply 12 --body "Nice one" --image ./chart.png
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch app.Format {
			case "text", "html", "json":
			default:
				return fmt.Errorf("unknown format %q (text|html|json)", app.Format)
			}
			cfg := config.MustLoad(app.ConfigDir)
			deps, err := setup.SetupDependencies(app.ctx(cmd), cfg, setup.Hooks{})
			if err != nil {
				return err
			}
			app.deps = deps
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.deps == nil {
				return nil
			}
			return app.deps.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config", envOr("FORUM_CONFIG", "config"), "Folder holding public.yaml and private.yaml")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("FORUM_FORMAT", "text"), "Output format (text|html|json)")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newNewCmd(app))
	cmd.AddCommand(newReplyCmd(app))
	cmd.AddCommand(newLikeCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newDeleteCmd(app))

	return cmd
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// settle waits for every request started by the command and its follow-ups.
func (app *App) settle() {
	app.deps.Loop.Settle()
}

// report prints the notices and the visible view. A notice at error level
// fails the command.
func (app *App) report(cmd *cobra.Command) error {
	var failure error
	for _, t := range app.deps.Toasts.Active() {
		fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", t.Level, t.Message)
		if t.Level == toast.Error && failure == nil {
			failure = errors.New(t.Message)
		}
	}

	c := app.deps.Controller
	view := c.Layout().View(c.State().View)
	out := cmd.OutOrStdout()
	switch app.Format {
	case "html":
		if err := dom.Render(out, view); err != nil {
			return err
		}
		fmt.Fprintln(out)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snapshot(c.State())); err != nil {
			return err
		}
	default:
		fmt.Fprintln(out, view.TextContent())
	}
	return failure
}

func (app *App) ctx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
