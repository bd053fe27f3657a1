package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	lc "github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/qafizz/pkg/adapters/lifecycle"
	"github.com/aretw0/qafizz/pkg/core"
	"github.com/aretw0/qafizz/pkg/store"
)

var watchNotes bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow sign-in changes made by other processes",
	Long: `Print the session every time another process signs in, signs out or
edits the profile. With --notes, note changes are reported too.
Requires a storage adapter that supports watching (fs, memory).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var noteEvents <-chan lc.Event
		if watchNotes {
			watchable, ok := nb.Storage().(core.Watchable)
			if !ok {
				return errors.New("storage does not support watching")
			}
			src := lifecycle.NewSource(watchable, store.NotesKey)
			if err := src.Start(ctx); err != nil {
				return err
			}
			noteEvents = src.Events()
		}

		snapshots, err := nb.WatchSession(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var g errgroup.Group

		g.Go(func() error {
			for s := range snapshots {
				switch {
				case s.Err != nil:
					logger.Warn("session unreadable", "error", s.Err)
				case s.Authenticated && s.User != nil:
					fmt.Fprintf(out, "signed in: %s (%s)\n", displayName(*s.User), s.User.ID)
				default:
					fmt.Fprintln(out, "signed out")
				}
			}
			return nil
		})

		if noteEvents != nil {
			g.Go(func() error {
				for e := range noteEvents {
					fmt.Fprintf(out, "notes changed: %s\n", e)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchNotes, "notes", false, "Also report note changes")
}
