package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"

	"emergents/internal/config"
	"emergents/internal/evo"
	"emergents/internal/metrics"
	"emergents/internal/model"
	"emergents/internal/stats"
	"emergents/pkg/emergents"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evolve one population and record the run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSimulation(cmd)
			if err != nil {
				return err
			}
			runID, _ := cmd.Flags().GetString("run-id")

			client, err := newClient(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			observer, finish, err := startObservers(cmd.Context(), cmd.ErrOrStderr(), cfg, cfg.Evolution.Generations)
			if err != nil {
				return err
			}
			summary, err := client.Run(cmd.Context(), emergents.RunRequest{RunID: runID, Config: cfg, Observer: observer})
			finish()
			if err != nil {
				return err
			}
			printRunSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	addSimulationFlags(cmd)
	cmd.Flags().String("run-id", "", "run id, generated when empty")
	return cmd
}

func newExperimentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Run seeded replicates of one configuration and aggregate them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSimulation(cmd)
			if err != nil {
				return err
			}
			id, _ := cmd.Flags().GetString("id")
			notes, _ := cmd.Flags().GetString("notes")
			replicates, _ := cmd.Flags().GetInt("replicates")
			parallel, _ := cmd.Flags().GetInt("parallel")

			client, err := newClient(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			observer, finish, err := startObservers(cmd.Context(), cmd.ErrOrStderr(), cfg, cfg.Evolution.Generations*max(replicates, 0))
			if err != nil {
				return err
			}
			summary, err := client.Experiment(cmd.Context(), emergents.ExperimentRequest{
				ID:         id,
				Notes:      notes,
				Config:     cfg,
				Replicates: replicates,
				Parallel:   parallel,
				Observer:   observer,
			})
			finish()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "experiment_id=%s replicates=%d extinctions=%d mean_final_length=%.2f dir=%s\n",
				summary.ID, len(summary.Runs), summary.Extinctions, summary.MeanFinalLength, summary.Directory)
			for _, run := range summary.Runs {
				fmt.Fprintf(out, "run_id=%s generations=%d extinct=%t final_mean_length=%.2f\n",
					run.RunID, run.CompletedGenerations, run.Extinct, run.Summary.FinalMeanLength)
			}
			return nil
		},
	}
	addSimulationFlags(cmd)
	cmd.Flags().String("id", "", "experiment id, generated when empty")
	cmd.Flags().String("notes", "", "free-form notes stored with the experiment")
	cmd.Flags().Int("replicates", 3, "number of replicate runs")
	cmd.Flags().Int("parallel", 1, "replicates run concurrently")
	return cmd
}

// startObservers wires the metrics collector, the optional metrics endpoint
// and the optional progress bar. finish stops whatever was started.
func startObservers(ctx context.Context, errOut io.Writer, cfg config.Simulation, totalGenerations int) (evo.Observer, func(), error) {
	reg := prometheus.NewRegistry()
	observers := evo.MultiObserver{metrics.NewCollector(reg)}
	var stops []func()

	if cfg.Metrics.Addr != "" {
		stop, err := serveMetrics(ctx, errOut, cfg.Metrics.Addr, reg)
		if err != nil {
			return nil, nil, err
		}
		stops = append(stops, stop)
	}
	if cfg.Evolution.ShowProgress && totalGenerations > 0 {
		bar := pb.New(totalGenerations)
		bar.Output = errOut
		bar.ShowTimeLeft = true
		bar.Start()
		observers = append(observers, evo.GenerationFunc(func(model.GenerationStats) {
			bar.Increment()
		}))
		stops = append(stops, bar.Finish)
	}

	return observers, func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}, nil
}

func serveMetrics(ctx context.Context, errOut io.Writer, addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(errOut, "metrics server:", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}, nil
}

func printRunSummary(out io.Writer, summary emergents.RunSummary) {
	fmt.Fprintf(out, "run_id=%s generations=%d extinct=%t artifacts=%s\n",
		summary.RunID, summary.CompletedGenerations, summary.Extinct, summary.ArtifactsDir)
	if len(summary.History) > 0 {
		fmt.Fprintln(out, stats.Format(summary.History[len(summary.History)-1]))
	}
	s := summary.Summary
	fmt.Fprintf(out, "length %.1f -> %.1f (change %+.1f), total_mutations=%d, mean_survival=%.1f%%\n",
		s.InitialMeanLength, s.FinalMeanLength, s.LengthChange, s.TotalMutations, s.MeanSurvivalRate*100)
	fmt.Fprintf(out, "diversity: unique_lengths=%d length_cv=%.3f\n",
		summary.Diversity.UniqueLengthCount, summary.Diversity.LengthCoefficientVariation)
}
