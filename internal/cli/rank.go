package cli

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"teammatch/internal/domain"
)

const (
	promptYes = "Yes"
	promptNo  = "No"
)

var errSaveDeclined = errors.New("save declined")

var (
	scoreTeamID    int64
	scoreProjectID int64

	rankProjectID int64
	rankTopK      int
	rankJSON      bool
	rankSave      bool
	rankYes       bool

	matchEmployeeID int64
	matchTopK       int
	matchJSON       bool

	scoresProjectID int64
	scoresJSON      bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one team against one project",
	Args:  cobra.NoArgs,
	RunE:  runScore,
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank all teams for a project",
	Long: `Rank every team for a project by the hybrid score and print the top k.
With --save the full ranking is persisted as one evaluation; saving again
overwrites the previous records for the same team and project.

Examples:
  teammatch rank --project 3
  teammatch rank --project 3 --top-k 10 --json
  teammatch rank --project 3 --save --yes`,
	Args: cobra.NoArgs,
	RunE: runRank,
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank projects for an employee",
	Args:  cobra.NoArgs,
	RunE:  runMatch,
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "List saved team scores for a project",
	Args:  cobra.NoArgs,
	RunE:  runScores,
}

func init() {
	scoreCmd.Flags().Int64Var(&scoreTeamID, "team", 0, "team id")
	scoreCmd.Flags().Int64Var(&scoreProjectID, "project", 0, "project id")
	_ = scoreCmd.MarkFlagRequired("team")
	_ = scoreCmd.MarkFlagRequired("project")

	rankCmd.Flags().Int64Var(&rankProjectID, "project", 0, "project id")
	rankCmd.Flags().IntVarP(&rankTopK, "top-k", "k", 0, "number of teams to show (default from config)")
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "print JSON")
	rankCmd.Flags().BoolVar(&rankSave, "save", false, "persist the ranking")
	rankCmd.Flags().BoolVarP(&rankYes, "yes", "y", false, "save without asking")
	_ = rankCmd.MarkFlagRequired("project")

	matchCmd.Flags().Int64Var(&matchEmployeeID, "employee", 0, "employee id")
	matchCmd.Flags().IntVarP(&matchTopK, "top-k", "k", 0, "number of projects to show (default from config)")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "print JSON")
	_ = matchCmd.MarkFlagRequired("employee")

	scoresCmd.Flags().Int64Var(&scoresProjectID, "project", 0, "project id")
	scoresCmd.Flags().BoolVar(&scoresJSON, "json", false, "print JSON")
	_ = scoresCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(scoreCmd, rankCmd, matchCmd, scoresCmd)
}

func topK(flag int) int {
	if flag > 0 {
		return flag
	}
	return cfg.Matching.TopK
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.rank.ScoreTeam(ctx, scoreTeamID, scoreProjectID)
	if err != nil {
		return err
	}
	printScoreTable([]domain.ScoreRecord{rec})
	return nil
}

func runRank(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	k := topK(rankTopK)
	records, err := a.rank.TopTeams(ctx, rankProjectID, k)
	if err != nil {
		return err
	}

	if rankJSON {
		if err := printJSON(records); err != nil {
			return err
		}
	} else {
		fmt.Printf("Top %d teams for project %d:\n\n", k, rankProjectID)
		printScoreTable(records)
	}

	if !rankSave {
		return nil
	}
	if !rankYes {
		if err := confirmSave(); err != nil {
			if errors.Is(err, errSaveDeclined) {
				fmt.Println("Nothing saved.")
				return nil
			}
			return err
		}
	}

	saved, err := a.rank.SaveScores(ctx, rankProjectID)
	if err != nil {
		return err
	}
	if !rankJSON {
		fmt.Printf("\nSaved %d scores (evaluation %s)\n", len(saved), evaluationOf(saved))
	}
	return nil
}

func confirmSave() error {
	prompt := promptui.Select{
		Label: "Save the full ranking?",
		Items: []string{promptYes, promptNo},
	}
	_, selected, err := prompt.Run()
	if err != nil {
		return err
	}
	if selected != promptYes {
		return errSaveDeclined
	}
	return nil
}

func evaluationOf(records []domain.ScoreRecord) string {
	if len(records) == 0 {
		return "-"
	}
	return records[0].EvaluationID
}

func runMatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	matches, err := a.rank.RankProjectsForEmployee(ctx, matchEmployeeID, topK(matchTopK))
	if err != nil {
		return err
	}
	if matchJSON {
		return printJSON(matches)
	}

	if len(matches) == 0 {
		fmt.Printf("No project matches for employee %d (is the employee embedded?)\n", matchEmployeeID)
		return nil
	}
	for i, m := range matches {
		fmt.Printf("%d. [%d] %s  score=%.4f  match=%.1f%%\n", i+1, m.ProjectID, m.Title, m.Score, m.MatchPercentage)
		fmt.Printf("   required: %s\n", joinOrDash(m.RequiredSkills))
		fmt.Printf("   missing:  %s\n", joinOrDash(m.SkillGap))
	}
	return nil
}

func runScores(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.rank.ListScores(ctx, scoresProjectID)
	if err != nil {
		return err
	}
	if scoresJSON {
		return printJSON(records)
	}
	printScoreTable(records)
	if len(records) > 0 {
		fmt.Printf("\nEvaluation %s at %s\n", records[0].EvaluationID, records[0].UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}
