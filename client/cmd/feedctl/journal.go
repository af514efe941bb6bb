package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yhonda-ohishi/articlefeed/imagestream/sink"
)

func (a *app) journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect and replay image journals",
		Long: `Inspect and replay image journals written by the journal sink.

Subcommands:
  list    - List the records of a journal
  replay  - Store every record in the configured sinks`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <journal>",
		Short: "List the records of a journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tBYTES\tTYPE")
			err := sink.ReadJournalFile(args[0], func(r sink.Record) error {
				fmt.Fprintf(w, "%d\t%d\t%s\n", r.ID, len(r.Payload), r.MimeType)
				return nil
			})
			if ferr := w.Flush(); err == nil {
				err = ferr
			}
			return err
		},
	})

	var outDir string
	replay := &cobra.Command{
		Use:   "replay <journal>",
		Short: "Store every record in the configured sinks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra []sink.Sink
			if outDir != "" {
				d, err := sink.NewDirSink(outDir, "frame")
				if err != nil {
					return err
				}
				extra = append(extra, d)
			}
			s, closeSinks, err := a.openSinks(extra...)
			if err != nil {
				return err
			}
			defer closeSinks()

			out := reportFrames(cmd.OutOrStdout(), s)
			n := 0
			err = sink.ReadJournalFile(args[0], func(r sink.Record) error {
				if _, err := out.Put(cmd.Context(), r.Frame()); err != nil {
					return err
				}
				n++
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %d records replayed\n", n)
			return nil
		},
	}
	replay.Flags().StringVarP(&outDir, "out", "o", "", "also write images to this directory")
	cmd.AddCommand(replay)
	return cmd
}
