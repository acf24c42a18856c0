package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/indcloud/console/data"
	"github.com/indcloud/console/logview"
	"github.com/indcloud/console/store"
	"github.com/spf13/cobra"
)

func (c *cli) archiveCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse log sessions recorded with --archive",
	}
	cmd.PersistentFlags().StringVar(&path, "file", "", "archive file (default from profile)")

	open := func() (*store.Archive, error) {
		p := path
		if p == "" {
			p = c.cfg.Archive
		}
		if p == "" {
			return nil, fmt.Errorf("no archive given, use --file or set archive in the profile")
		}
		return store.OpenArchive(p)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			sessions, err := a.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			w := c.table("ID", "STARTED", "BACKEND", "SOURCES", "ENTRIES")
			for _, s := range sessions {
				sources := make([]string, len(s.Sources))
				for i, src := range s.Sources {
					sources[i] = string(src)
				}
				row(w, s.ID, s.Started.Local().Format(time.DateTime), s.Backend,
					strings.Join(sources, ","), s.Entries)
			}
			return w.Flush()
		},
	})

	var f logsFlags
	replay := &cobra.Command{
		Use:   "replay <session>",
		Short: "Print the entries of a session as export lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			sources := data.AllSources
			if len(f.sources) > 0 {
				if sources, err = c.logSources(f); err != nil {
					return err
				}
			}
			filter, err := tailFilter(f, sources)
			if err != nil {
				return err
			}

			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			ch := make(chan data.LogEntry, 64)
			errCh := make(chan error, 1)
			go func() {
				errCh <- a.Replay(ctx, id, filter.Keep, ch)
			}()
			for e := range ch {
				c.printf("%v\n", logview.ExportLine(e))
			}
			return <-errCh
		},
	}
	replay.Flags().StringSliceVar(&f.sources, "source", nil, "only these sources")
	replay.Flags().StringSliceVar(&f.levels, "level", nil, "only these levels")
	replay.Flags().StringVar(&f.search, "search", "", "only messages containing this text")
	cmd.AddCommand(replay)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <session>",
		Short: "Delete a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.DeleteSession(cmd.Context(), id); err != nil {
				return err
			}
			c.printf("deleted session %v\n", id)
			return nil
		},
	})

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete sessions started before --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			n, err := a.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			c.printf("deleted %v sessions\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age of the sessions to delete")
	cmd.AddCommand(prune)

	return cmd
}
