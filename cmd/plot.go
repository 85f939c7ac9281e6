package cmd

import (
	"fmt"

	"contention-bench/internal/logging"
	"contention-bench/internal/plot"

	"github.com/spf13/cobra"
)

func newPlotCmd() *cobra.Command {
	var dataDir string
	var tasks int
	var experimentName string
	var onlyPlot, onlyWrapper bool

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "Generate TikZ plots from sweep CSV data",
		Long:  "Generate LaTeX/TikZ schedulability-ratio figures from the CSV curves written by run",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger()

			curves, err := plot.ReadCurves(dataDir)
			if err != nil {
				logger.WithField("data_dir", dataDir).WithError(err).Error("Failed to read curves")
				return err
			}

			taskCounts := plot.TaskCounts(curves)
			if tasks != 0 {
				taskCounts = []int{tasks}
			}

			gen := plot.NewGenerator(experimentName, 0, "")

			showPlot := !onlyWrapper
			showWrapper := !onlyPlot

			for _, n := range taskCounts {
				plotTikz, wrapperTex, err := gen.Generate(n, curves)
				if err != nil {
					logger.WithField("tasks", n).WithError(err).Error("Failed to generate plot")
					return fmt.Errorf("failed to generate plot: %w", err)
				}

				if showPlot {
					fmt.Println(plotTikz)
					if showWrapper {
						fmt.Println()
					}
				}
				if showWrapper {
					fmt.Println(wrapperTex)
				}
			}

			return nil
		},
	}

	plotCmd.Flags().StringVar(&dataDir, "data-dir", "data", "Directory holding the curve CSV files")
	plotCmd.Flags().IntVar(&tasks, "tasks", 0, "Task count to plot (0 = all)")
	plotCmd.Flags().StringVar(&experimentName, "name", "contention-bench", "Experiment name for plot headers")
	plotCmd.Flags().BoolVar(&onlyPlot, "plot", false, "Print only the plot file (TikZ)")
	plotCmd.Flags().BoolVar(&onlyWrapper, "wrapper", false, "Print only the wrapper file (LaTeX)")

	return plotCmd
}
