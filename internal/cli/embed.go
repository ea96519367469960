package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"teammatch/internal/domain"
	"teammatch/internal/usecase"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Compute and store embeddings",
}

var embedEmployeeCmd = &cobra.Command{
	Use:   "employee <id>",
	Short: "Embed one employee profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEmbedOne(cmd, domain.ClassEmployee, args[0])
	},
}

var embedProjectCmd = &cobra.Command{
	Use:   "project <id>",
	Short: "Embed one project description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEmbedOne(cmd, domain.ClassProject, args[0])
	},
}

var embedPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Embed every record whose vector is missing or stale",
	Args:  cobra.NoArgs,
	RunE:  runEmbedPending,
}

func init() {
	embedCmd.AddCommand(embedEmployeeCmd, embedProjectCmd, embedPendingCmd)
	rootCmd.AddCommand(embedCmd)
}

func parseID(kind, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s id %q is not an integer", domain.ErrInvalidInput, kind, raw)
	}
	return id, nil
}

func runEmbedOne(cmd *cobra.Command, class domain.EntityClass, raw string) error {
	id, err := parseID(class.String(), raw)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var row int
	if class == domain.ClassEmployee {
		row, err = a.embed.EmbedEmployee(ctx, id)
	} else {
		row, err = a.embed.EmbedProject(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("embed %s %d: %w", class, id, err)
	}
	a.publishIndexState()

	fmt.Printf("Embedded %s %d at row %d\n", class, id, row)
	return nil
}

func runEmbedPending(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.embed.EmbedPending(ctx, newProgressBar("Embedding"))
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	a.publishIndexState()

	printEmbedResult(result)
	return nil
}

func printEmbedResult(r *usecase.EmbedResult) {
	fmt.Printf("  Embedded:    %d employees, %d projects\n", r.EmployeesEmbedded, r.ProjectsEmbedded)
	fmt.Printf("  Up to date:  %d\n", r.UpToDate)
	if len(r.Failures) > 0 {
		fmt.Printf("  Failed:      %d\n", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Printf("    - %s\n", f.Error())
		}
	}
}
