package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lwz9103/conbench/bmrt/go/service"
	"github.com/lwz9103/conbench/bmrt/go/snapshot"
)

var (
	snapshotFlags     ServerFlags
	snapshotBenchmark string
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Build one snapshot and print what it holds.",
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshotFlags.setupLogging()
		cfg, err := snapshotFlags.instanceConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		s, err := openStores(ctx, cfg, snapshotFlags.CheckDeadlines)
		if err != nil {
			return err
		}
		defer s.close()

		svc := service.New(cfg, s.results, s.commits)
		if err := svc.Refresh(ctx); err != nil {
			return err
		}
		md, _ := svc.GetSnapshotMetadata()
		printMetadata(cmd.OutOrStdout(), md)
		if snapshotBenchmark != "" {
			for _, r := range svc.LookupByName(snapshotBenchmark) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-30s %s  (%s)\n", r.StartedAtDisplay, r.ID, r.CaseText, r.MeanAndUncertainty(), r.RelativeSEMDisplay())
			}
		}
		return nil
	},
}

func printMetadata(w io.Writer, md snapshot.Metadata) {
	fmt.Fprintf(w, "results:       %s\n", humanize.Comma(int64(md.ResultCount)))
	fmt.Fprintf(w, "time series:   %s\n", humanize.Comma(int64(md.TimeSeriesCount)))
	fmt.Fprintf(w, "rows consumed: %s\n", humanize.Comma(int64(md.RowsConsumed)))
	fmt.Fprintf(w, "skipped:       %s without commit, %s off the default branch\n",
		humanize.Comma(int64(md.SkippedNoCommit)), humanize.Comma(int64(md.SkippedNotDefaultBranch)))
	fmt.Fprintf(w, "covers:        %s to %s (%d days)\n", md.OldestDisplay, md.NewestDisplay, md.CoveredDays)
	fmt.Fprintf(w, "built:         %s in %s\n", humanize.Time(md.BuiltAt), md.BuildDuration)
}

func snapshotInit() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotFlags.Register(snapshotCmd.Flags())
	snapshotCmd.Flags().StringVar(&snapshotBenchmark, "benchmark", "", "Also list the cached results of this benchmark.")
}
