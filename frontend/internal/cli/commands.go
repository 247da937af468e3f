package cli

import (
	"fmt"
	"strconv"

	"github.com/itchan-dev/discussion/frontend/internal/confirm"
	"github.com/itchan-dev/discussion/frontend/internal/dom"
	"github.com/itchan-dev/discussion/frontend/internal/modal"
	"github.com/itchan-dev/discussion/frontend/internal/upload"
	"github.com/itchan-dev/discussion/shared/domain"
	"github.com/spf13/cobra"
)

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return id, nil
}

func newListCmd(app *App) *cobra.Command {
	var category, sort string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List threads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if category != domain.CategoryAll && !domain.IsCategory(category) {
				return fmt.Errorf("unknown category %q", category)
			}
			order, ok := domain.ParseSort(sort)
			if !ok {
				return fmt.Errorf("unknown sort %q", sort)
			}
			c := app.deps.Controller
			c.Bind(app.ctx(cmd))
			// each setter reloads; only the last load renders
			c.SetCategory(category)
			c.SetSort(order)
			app.settle()
			return app.report(cmd)
		},
	}
	cmd.Flags().StringVar(&category, "category", domain.CategoryAll, "Category filter")
	cmd.Flags().StringVar(&sort, "sort", string(domain.SortRecent), "Sort order (recent|popular)")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <thread-id>",
		Short: "Show a thread with its replies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("thread", args[0])
			if err != nil {
				return err
			}
			if err := app.openThread(cmd, id); err != nil {
				return err
			}
			return app.report(cmd)
		},
	}
}

// openThread shows the thread and fails if it could not be loaded.
func (app *App) openThread(cmd *cobra.Command, id domain.ThreadId) error {
	c := app.deps.Controller
	c.Bind(app.ctx(cmd))
	c.OpenThread(id)
	app.settle()
	if c.State().ActiveThread == nil {
		app.report(cmd)
		return fmt.Errorf("thread %d could not be loaded", id)
	}
	return nil
}

func attach(zone *upload.Zone, path string) error {
	if path == "" {
		return nil
	}
	f, err := upload.FromPath(path)
	if err != nil {
		return err
	}
	if !zone.Select(f) {
		return fmt.Errorf("image %s was rejected", path)
	}
	return nil
}

func newNewCmd(app *App) *cobra.Command {
	var title, body, category, image string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Publish a new thread",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := app.deps.Controller
			c.Bind(app.ctx(cmd))
			c.ShowNew()
			l := c.Layout()
			l.NewTitle.Value = title
			l.NewBody.Value = body
			l.NewCategory.Value = category
			if err := attach(c.ThreadUpload(), image); err != nil {
				app.settle()
				app.report(cmd)
				return err
			}
			app.settle()
			l.Publish.Click()
			app.settle()
			return app.report(cmd)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Thread title")
	cmd.Flags().StringVar(&body, "body", "", "Thread body (markdown)")
	cmd.Flags().StringVar(&category, "category", domain.DefaultCategory, "Thread category")
	cmd.Flags().StringVar(&image, "image", "", "Path of an image to attach")
	return cmd
}

func newReplyCmd(app *App) *cobra.Command {
	var body, image string
	cmd := &cobra.Command{
		Use:   "reply <thread-id>",
		Short: "Post a reply to a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("thread", args[0])
			if err != nil {
				return err
			}
			if err := app.openThread(cmd, id); err != nil {
				return err
			}
			c := app.deps.Controller
			c.Layout().ReplyBody.Value = body
			if err := attach(c.ReplyUpload(), image); err != nil {
				app.settle()
				app.report(cmd)
				return err
			}
			app.settle()
			c.Layout().PostReply.Click()
			app.settle()
			return app.report(cmd)
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "Reply body (markdown)")
	cmd.Flags().StringVar(&image, "image", "", "Path of an image to attach")
	return cmd
}

func newLikeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "like",
		Short: "Like a thread or a reply",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "thread <thread-id>",
		Short: "Like a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("thread", args[0])
			if err != nil {
				return err
			}
			if err := app.openThread(cmd, id); err != nil {
				return err
			}
			app.deps.Controller.LikeThread(id)
			app.settle()
			return app.report(cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reply <thread-id> <reply-id>",
		Short: "Like a reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			threadID, err := parseID("thread", args[0])
			if err != nil {
				return err
			}
			replyID, err := parseID("reply", args[1])
			if err != nil {
				return err
			}
			if err := app.openThread(cmd, threadID); err != nil {
				return err
			}
			app.deps.Controller.LikeReply(replyID)
			app.settle()
			return app.report(cmd)
		},
	})
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var title, body, category string
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a thread or a reply",
	}

	editThread := &cobra.Command{
		Use:   "thread <thread-id>",
		Short: "Edit a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("thread", args[0])
			if err != nil {
				return err
			}
			if err := app.openThread(cmd, id); err != nil {
				return err
			}
			c := app.deps.Controller
			c.EditThread(id)
			return app.saveEdit(cmd, func(form *dom.Element) {
				if cmd.Flags().Changed("title") {
					form.ByID(modal.IDTitle).Value = title
				}
				if cmd.Flags().Changed("category") {
					form.ByID(modal.IDCategory).Value = category
				}
				if cmd.Flags().Changed("body") {
					form.ByID(modal.IDBody).Value = body
				}
			})
		},
	}
	editThread.Flags().StringVar(&title, "title", "", "New title")
	editThread.Flags().StringVar(&category, "category", "", "New category")
	editThread.Flags().StringVar(&body, "body", "", "New body")

	editReply := &cobra.Command{
		Use:   "reply <thread-id> <reply-id>",
		Short: "Edit a reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			threadID, err := parseID("thread", args[0])
			if err != nil {
				return err
			}
			replyID, err := parseID("reply", args[1])
			if err != nil {
				return err
			}
			if err := app.openThread(cmd, threadID); err != nil {
				return err
			}
			app.deps.Controller.EditReply(replyID)
			return app.saveEdit(cmd, func(form *dom.Element) {
				form.ByID(modal.IDBody).Value = body
			})
		},
	}
	editReply.Flags().StringVar(&body, "body", "", "New body")

	cmd.AddCommand(editThread, editReply)
	return cmd
}

// saveEdit fills the open edit dialog and saves it.
func (app *App) saveEdit(cmd *cobra.Command, fill func(form *dom.Element)) error {
	m := app.deps.Controller.Modal()
	if !m.IsOpen() {
		return fmt.Errorf("%s cannot edit this item", app.who())
	}
	fill(m.Element())
	m.Save(app.ctx(cmd))
	app.settle()
	if msg := m.Error(); msg != "" {
		app.report(cmd)
		return fmt.Errorf("edit not saved: %s", msg)
	}
	return app.report(cmd)
}

func newDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a thread or a reply",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "thread <thread-id>",
		Short: "Delete a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("thread", args[0])
			if err != nil {
				return err
			}
			if err := app.openThread(cmd, id); err != nil {
				return err
			}
			app.deps.Controller.DeleteThread(id)
			return app.confirmDelete(cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reply <thread-id> <reply-id>",
		Short: "Delete a reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			threadID, err := parseID("thread", args[0])
			if err != nil {
				return err
			}
			replyID, err := parseID("reply", args[1])
			if err != nil {
				return err
			}
			if err := app.openThread(cmd, threadID); err != nil {
				return err
			}
			app.deps.Controller.DeleteReply(replyID)
			return app.confirmDelete(cmd)
		},
	})
	return cmd
}

// confirmDelete answers yes on the confirmation bar the controller just showed.
func (app *App) confirmDelete(cmd *cobra.Command) error {
	bar := app.deps.Controller.Layout().Root.Query(confirm.BarClass)
	if bar == nil {
		return fmt.Errorf("%s cannot delete this item", app.who())
	}
	bar.Query("confirm-yes").Click()
	app.settle()
	return app.report(cmd)
}

func (app *App) who() string {
	if v := app.deps.Viewer; v.Authenticated {
		return v.Username
	}
	return "anonymous viewer"
}
