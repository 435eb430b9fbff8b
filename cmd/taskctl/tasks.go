package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"famtasks/internal/model"
	"famtasks/internal/realtime"
	"famtasks/internal/taskstore"
)

func listCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show open tasks, then completed ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")
			return render(cmd.OutOrStdout(), sess.store, all)
		},
	}
	cmd.Flags().BoolP("all", "a", false, "Include completed tasks")
	return cmd
}

func addCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task and notify the household",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.store.Wait()

			in := taskstore.Input{Title: strings.Join(args, " ")}
			if memo, _ := cmd.Flags().GetString("memo"); memo != "" {
				in.Memo = &memo
			}
			if link, _ := cmd.Flags().GetString("url"); link != "" {
				in.URL = &link
			}
			if due, _ := cmd.Flags().GetString("due"); due != "" {
				d, err := time.Parse(time.DateOnly, due)
				if err != nil {
					return fmt.Errorf("invalid --due %q: %w", due, err)
				}
				in.DueDate = &d
			}

			task, err := sess.store.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %s\n", shortID(task.ID), task.Title)
			return nil
		},
	}
	cmd.Flags().String("memo", "", "Free text note")
	cmd.Flags().String("url", "", "Related link")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	return cmd
}

func doneCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "done [id]",
		Short: "Toggle completion of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.store.Wait()

			id, err := resolveID(sess.store.Tasks(), args[0])
			if err != nil {
				return err
			}
			task, err := sess.store.ToggleCompletion(cmd.Context(), id)
			if err != nil {
				return err
			}
			state := "reopened"
			if task.IsDone {
				state = "completed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", state, shortID(task.ID), task.Title)
			return nil
		},
	}
}

func rmCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			id, err := resolveID(sess.store.Tasks(), args[0])
			if err != nil {
				return err
			}
			if err := sess.store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", shortID(id))
			return nil
		},
	}
}

func reorderCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder [id...]",
		Short: "Move the given tasks to the top, in order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			tasks := sess.store.Tasks()
			order, err := moveToFront(tasks, args)
			if err != nil {
				return err
			}
			if err := sess.store.Reorder(cmd.Context(), order); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), sess.store, false)
		},
	}
}

func watchCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow changes made by other household members",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess, err := s.open(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := render(out, sess.store, false); err != nil {
				return err
			}

			// Каждое событие уже применено к хранилищу, остается перерисовать список
			reconciler := taskstore.NewReconciler(sess.store, sess.client).OnApply(func(ev realtime.Event) {
				fmt.Fprintf(out, "\n%s %s\n", ev.Type, eventTitle(ev))
				if err := render(out, sess.store, false); err != nil {
					log.WithError(err).Warn("render failed")
				}
			})
			if err := reconciler.Start(ctx, sess.store.HouseholdID()); err != nil {
				return err
			}
			defer reconciler.Stop()

			<-ctx.Done()
			return nil
		},
	}
}

func render(w io.Writer, store *taskstore.Store, all bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDUE\t")
	for _, t := range store.Incomplete() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", shortID(t.ID), t.Title, dueText(t))
	}
	if all {
		for _, t := range store.Completed() {
			fmt.Fprintf(tw, "%s\t✓ %s\t%s\t\n", shortID(t.ID), t.Title, dueText(t))
		}
	}
	return tw.Flush()
}

func dueText(t model.Task) string {
	if t.DueDate == nil {
		return "-"
	}
	return t.DueDate.Format(time.DateOnly)
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func eventTitle(ev realtime.Event) string {
	switch {
	case ev.New != nil:
		return ev.New.Title
	case ev.Old != nil:
		return ev.Old.ID.String()
	}
	return ""
}

// resolveID accepts a full task ID or an unambiguous prefix of one.
func resolveID(tasks []model.Task, arg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}
	var match uuid.UUID
	found := 0
	for _, t := range tasks {
		if strings.HasPrefix(t.ID.String(), arg) {
			match = t.ID
			found++
		}
	}
	switch found {
	case 0:
		return uuid.Nil, fmt.Errorf("no task matches %q", arg)
	case 1:
		return match, nil
	}
	return uuid.Nil, fmt.Errorf("%q matches %d tasks", arg, found)
}

// moveToFront returns the IDs of tasks with the named ones first, keeping the
// relative order of the rest.
func moveToFront(tasks []model.Task, args []string) ([]uuid.UUID, error) {
	picked := make(map[uuid.UUID]bool, len(args))
	order := make([]uuid.UUID, 0, len(tasks))
	for _, arg := range args {
		id, err := resolveID(tasks, arg)
		if err != nil {
			return nil, err
		}
		if picked[id] {
			return nil, errors.New("task listed twice: " + arg)
		}
		picked[id] = true
		order = append(order, id)
	}
	for _, t := range tasks {
		if !picked[t.ID] {
			order = append(order, t.ID)
		}
	}
	return order, nil
}
