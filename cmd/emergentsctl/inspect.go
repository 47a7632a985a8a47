package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"emergents/internal/stats"
	"emergents/pkg/emergents"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			client, err := lookupClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			runs, err := client.Runs(cmd.Context(), emergents.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, run := range runs {
				fmt.Fprintf(out, "run_id=%s created_at=%s seed=%d population=%d generations=%d/%d rate=%g circular=%t extinct=%t final_mean_length=%.2f\n",
					run.RunID, run.CreatedAtUTC, run.Seed, run.Population, run.CompletedGenerations, run.Generations,
					run.MutationRate, run.Circular, run.Extinct, run.FinalMeanLength)
			}
			return nil
		},
	}
	addLookupFlags(cmd)
	cmd.Flags().Int("limit", 20, "max runs to list")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print per-generation statistics of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runID, latest := runSelection(cmd)
			limit, _ := cmd.Flags().GetInt("limit")
			client, err := lookupClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			history, err := client.History(cmd.Context(), emergents.HistoryRequest{RunID: runID, Latest: latest, Limit: limit})
			if err != nil {
				return err
			}
			for _, s := range history {
				fmt.Fprintln(cmd.OutOrStdout(), stats.Format(s))
			}
			return nil
		},
	}
	addLookupFlags(cmd)
	addRunSelectFlags(cmd)
	cmd.Flags().Int("limit", 0, "only print the last n generations")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy the artifacts of a run into an export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runID, latest := runSelection(cmd)
			outDir, _ := cmd.Flags().GetString("out")
			client, err := lookupClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			exported, err := client.Export(cmd.Context(), emergents.ExportRequest{RunID: runID, Latest: latest, OutDir: outDir})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
			return nil
		},
	}
	addLookupFlags(cmd)
	addRunSelectFlags(cmd)
	cmd.Flags().String("out", "exports", "export directory")
	return cmd
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render length plots for a recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runID, latest := runSelection(cmd)
			outDir, _ := cmd.Flags().GetString("out")
			client, err := lookupClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			plotted, err := client.Plot(cmd.Context(), emergents.PlotRequest{RunID: runID, Latest: latest, OutDir: outDir})
			if err != nil {
				return err
			}
			for _, file := range plotted.Files {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", file)
			}
			return nil
		},
	}
	addLookupFlags(cmd)
	addRunSelectFlags(cmd)
	cmd.Flags().String("out", "", "output directory, defaults to the run's artifacts directory")
	return cmd
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk a fixed set of mutations over a small example genome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed, _ := cmd.Flags().GetUint64("seed")
			report, err := emergents.Demo(seed)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, report.Genome)
			fmt.Fprintf(out, "length=%d circular=%t segments=%d\n", report.Length, report.Circular, report.SegmentCount)
			for _, step := range report.Steps {
				verdict := "rejected"
				if step.Applied {
					verdict = "applied"
				}
				fmt.Fprintf(out, "%-48s %-8s length=%d\n", step.Mutation, verdict, step.LengthAfter)
			}
			fmt.Fprint(out, report.Final)
			return nil
		},
	}
	cmd.Flags().Uint64("seed", 42, "priority seed for the genome tree")
	return cmd
}
