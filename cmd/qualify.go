package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/energy-comms/internal/model"
)

var qualifyResolution string

var coalCmd = &cobra.Command{
	Use:   "coal",
	Short: "Qualify areas with closed coal mines or retired coal plants",
	Long:  "Evaluates MSHA mine closures and EIA-860 plant retirements, qualifying the containing areas and their adjacent neighbors.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSelected(cmd, []string{runCoal})
	},
}

var brownfieldCmd = &cobra.Command{
	Use:   "brownfield",
	Short: "Qualify EPA RE-Powering brownfield sites",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSelected(cmd, []string{runBrownfield})
	},
}

var employmentCmd = &cobra.Command{
	Use:   "employment",
	Short: "Qualify counties by fossil fuel employment and unemployment",
	Long:  "Evaluates the QCEW fossil employment share and LAU unemployment rates over MSA and nonmetropolitan areas; always county resolution.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runQualification(ctx, model.LevelCounty, []string{runEmployment})
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every criterion and merge the results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSelected(cmd, []string{runCoal, runBrownfield, runEmployment})
	},
}

func runSelected(cmd *cobra.Command, selected []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolution, err := model.ParseGeoLevel(qualifyResolution)
	if err != nil {
		return err
	}
	return runQualification(ctx, resolution, selected)
}

func init() {
	for _, c := range []*cobra.Command{coalCmd, brownfieldCmd, allCmd} {
		c.Flags().StringVar(&qualifyResolution, "resolution", string(model.LevelTract),
			"geography resolution (tract or county)")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(employmentCmd)
}
