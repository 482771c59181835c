package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lwz9103/conbench/bmrt/go/service"
	"github.com/lwz9103/conbench/go/metrics2"
	"github.com/lwz9103/conbench/go/sklog"
)

var runFlags ServerFlags

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the cache refresh loop until signalled.",
	Long: `Keeps a snapshot of the most recent benchmark results in memory and
rebuilds it periodically from the configured store. Stops cleanly on
SIGTERM, SIGINT or SIGQUIT.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runFlags.setupLogging()
		cfg, err := runFlags.instanceConfig()
		if err != nil {
			return err
		}
		logFlags(cmd.LocalFlags())

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
		defer stop()

		s, err := openStores(ctx, cfg, runFlags.CheckDeadlines)
		if err != nil {
			return err
		}
		defer s.close()

		if cfg.PromPort != "" {
			metrics2.InitPrometheus(cfg.PromPort)
		}

		svc := service.New(cfg, s.results, s.commits)
		svc.Start(ctx)
		<-ctx.Done()
		sklog.Info("Signal received, shutting down.")
		stop()
		exitOnSecondSignal()
		svc.RequestShutdown()
		svc.Wait()
		sklog.Flush()
		return nil
	},
}

func runInit() {
	rootCmd.AddCommand(runCmd)
	runFlags.Register(runCmd.Flags())
}

// exitOnSecondSignal makes a second signal kill the process while a build
// is still finishing.
func exitOnSecondSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-ch
		sklog.Fatal("Second signal received, exiting without waiting.")
	}()
}
