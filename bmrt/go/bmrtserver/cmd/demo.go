package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lwz9103/conbench/bmrt/go/baseline"
	"github.com/lwz9103/conbench/bmrt/go/fixture"
	"github.com/lwz9103/conbench/bmrt/go/service"
	"github.com/lwz9103/conbench/bmrt/go/types"
)

var demoFlags ServerFlags

// demoCmd represents the demo command
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Generate a history in memory and analyze a pull request run against it.",
	Long: `Generates a default branch history and a pull request commit, builds a
snapshot, resolves the baselines of the pull request run and compares its
results against the fork point baseline. No database is needed.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		demoFlags.setupLogging()
		cfg, err := demoFlags.instanceConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		f := demoFixture(cfg)
		s := memoryStores(f)
		svc := service.New(cfg, s.results, s.commits)
		if err := svc.Refresh(ctx); err != nil {
			return err
		}
		md, _ := svc.GetSnapshotMetadata()
		w := cmd.OutOrStdout()
		printMetadata(w, md)
		return analyzePullRequest(ctx, w, svc, f)
	},
}

// analyzePullRequest resolves and compares the first pull request run of f.
func analyzePullRequest(ctx context.Context, w io.Writer, svc *service.Service, f *fixture.Fixture) error {
	var contender *types.Run
	for _, r := range f.Runs {
		if r.Reason == "pull-request" {
			contender = r
			break
		}
	}
	if contender == nil {
		fmt.Fprintln(w, "no pull request run generated")
		return nil
	}

	all, err := svc.ResolveAllBaselines(ctx, contender.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nbaselines of run %s:\n", contender.ID)
	for _, strategy := range baseline.AllStrategies {
		res := all[strategy]
		if res.Error != "" {
			fmt.Fprintf(w, "  %-15s %s\n", strategy, res.Error)
			continue
		}
		fmt.Fprintf(w, "  %-15s run %s, %d commits skipped\n", strategy, res.BaselineRunID, len(res.CommitsSkipped))
	}

	fork := all[baseline.ForkPoint]
	if fork.Error != "" {
		return nil
	}
	baselineResults := map[types.CaseContext]string{}
	var contenderResults []*fixture.Result
	for _, r := range f.Results {
		switch r.RunID {
		case fork.BaselineRunID:
			baselineResults[types.CaseContext{CaseID: r.CaseID, ContextID: r.ContextID}] = r.ID
		case contender.ID:
			contenderResults = append(contenderResults, r)
		}
	}
	sort.Slice(contenderResults, func(i, j int) bool {
		return contenderResults[i].BenchmarkName < contenderResults[j].BenchmarkName
	})

	fmt.Fprintf(w, "\ncompared to %s:\n", fork.BaselineRunID)
	for _, r := range contenderResults {
		baselineID, ok := baselineResults[types.CaseContext{CaseID: r.CaseID, ContextID: r.ContextID}]
		if !ok {
			continue
		}
		c, err := svc.Compare(ctx, baselineID, r.ID, 0, 0)
		if err != nil {
			return err
		}
		pc, z, p := "n/a", "n/a", "n/a"
		if c.Pairwise.PercentChange != nil {
			pc = fmt.Sprintf("%+.2f%%", *c.Pairwise.PercentChange)
		}
		if c.LookbackZ.ZScore != nil {
			z = fmt.Sprintf("%+.2f", *c.LookbackZ.ZScore)
		}
		if c.Samples.PValue != nil {
			p = fmt.Sprintf("%.3f", *c.Samples.PValue)
		}
		fmt.Fprintf(w, "  %-10s %-30s change %-9s %-12s z %-7s %-12s p %s\n",
			r.BenchmarkName, types.CaseText(r.CaseDict), pc, c.Pairwise.Verdict, z, c.LookbackZ.Verdict, p)
	}
	return nil
}

func demoInit() {
	rootCmd.AddCommand(demoCmd)
	demoFlags.Register(demoCmd.Flags())
}
