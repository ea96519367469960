package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"teammatch/internal/domain"
)

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printScoreTable(records []domain.ScoreRecord) {
	if len(records) == 0 {
		fmt.Println("No teams scored.")
		return
	}
	fmt.Printf("%-4s %-8s %-24s %7s %7s %7s %7s %7s %6s\n",
		"#", "TEAM", "NAME", "FINAL", "EMB", "SKILL", "EXP", "BAL", "MATCH")
	for i, r := range records {
		fmt.Printf("%-4d %-8d %-24s %7.4f %7.4f %7.4f %7.4f %7.4f %5.1f%%\n",
			i+1, r.TeamID, truncate(r.TeamName, 24),
			r.FinalScore, r.EmbeddingSimilarity, r.SkillCoverage, r.ExperienceMatch, r.TeamBalance,
			r.MatchPercentage)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
