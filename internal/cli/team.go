package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	heatmapTeamID int64
	heatmapJSON   bool

	gapEmployeeID int64
	gapProjectID  int64
	gapJSON       bool
)

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Show each team member's skills and the team's skill union",
	Args:  cobra.NoArgs,
	RunE:  runHeatmap,
}

var gapCmd = &cobra.Command{
	Use:   "gap",
	Short: "Compare an employee's skills with a project's requirements",
	Args:  cobra.NoArgs,
	RunE:  runGap,
}

func init() {
	heatmapCmd.Flags().Int64Var(&heatmapTeamID, "team", 0, "team id")
	heatmapCmd.Flags().BoolVar(&heatmapJSON, "json", false, "print JSON")
	_ = heatmapCmd.MarkFlagRequired("team")

	gapCmd.Flags().Int64Var(&gapEmployeeID, "employee", 0, "employee id")
	gapCmd.Flags().Int64Var(&gapProjectID, "project", 0, "project id")
	gapCmd.Flags().BoolVar(&gapJSON, "json", false, "print JSON")
	_ = gapCmd.MarkFlagRequired("employee")
	_ = gapCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(heatmapCmd, gapCmd)
}

func runHeatmap(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	heatmap, err := a.teams.Heatmap(ctx, heatmapTeamID)
	if err != nil {
		return err
	}
	if heatmapJSON {
		return printJSON(heatmap)
	}

	for _, row := range heatmap.Employees {
		fmt.Printf("%-24s %s\n", truncate(row.EmployeeName, 24), joinOrDash(row.Skills))
	}
	fmt.Printf("\nAll skills (%d): %s\n", len(heatmap.AllSkills), joinOrDash(heatmap.AllSkills))
	return nil
}

func runGap(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.teams.SkillGap(ctx, gapEmployeeID, gapProjectID)
	if err != nil {
		return err
	}
	if gapJSON {
		return printJSON(report)
	}

	fmt.Printf("%s vs %s: %.2f%% covered\n", report.EmployeeName, report.ProjectTitle, report.CoveragePercentage)
	fmt.Printf("  covered: %s\n", joinOrDash(report.CoveredSkills))
	fmt.Printf("  missing: %s\n", joinOrDash(report.MissingSkills))
	return nil
}
