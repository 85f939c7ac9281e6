package cmd

import (
	"fmt"

	"contention-bench/internal/config"
	"contention-bench/internal/experiment"

	"github.com/spf13/cobra"
)

// newSweepCmd builds the ad-hoc single-configuration sweep: no config file,
// CSV rows on stdout.
func newSweepCmd() *cobra.Command {
	var tasks, interconnects, trials, points int
	var seed int64
	var utilization, density float64
	var policy string

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a single-configuration sweep and print the curve",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &config.ExperimentConfig{
				Experiment: config.ExperimentInfo{
					Name:   "sweep",
					Seed:   seed,
					Trials: trials,
					Load:   config.LoadSweep{Points: points, Min: 0, Max: 1},
					Contention: config.ContentionConfig{
						Implementation: policy,
					},
					Generation: config.GenerationConfig{
						Utilization:        utilization,
						PeriodMinMs:        10,
						PeriodMaxMs:        100,
						PeriodDistribution: "logunif",
						Density:            density,
						Phi:                6,
						BurstSize:          16,
					},
				},
				Configurations: []config.Configuration{
					{Tasks: tasks, Interconnects: interconnects},
				},
			}

			if interconnects > tasks {
				return fmt.Errorf("interconnects (%d) exceed tasks (%d)", interconnects, tasks)
			}

			curve, err := experiment.SchedulabilityRatio(cfg, tasks, interconnects)
			if err != nil {
				return err
			}

			for _, p := range curve.Points {
				fmt.Printf("%.5f,%.5f\n", p.Load, p.Ratio)
			}
			return nil
		},
	}

	sweepCmd.Flags().IntVar(&tasks, "tasks", 8, "Number of tasks")
	sweepCmd.Flags().IntVar(&interconnects, "interconnects", 2, "Number of interconnects")
	sweepCmd.Flags().IntVar(&trials, "trials", 200, "Trials per load sample")
	sweepCmd.Flags().IntVar(&points, "points", 50, "Number of load samples over [0,1]")
	sweepCmd.Flags().Int64Var(&seed, "seed", 100, "Base random seed")
	sweepCmd.Flags().Float64Var(&utilization, "utilization", 1.0, "Total task-set utilization")
	sweepCmd.Flags().Float64Var(&density, "density", 0.5, "Transaction density in [0,1]")
	sweepCmd.Flags().StringVar(&policy, "policy", "additive", "Contention policy (additive, bandwidth)")

	return sweepCmd
}
