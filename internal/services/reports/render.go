package reports

import (
	"fmt"
	"strings"

	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

// Render produces the markdown digest for one analysis run.
func Render(result *models.AnalysisResult) string {
	var b strings.Builder

	date := result.Date.UTC().Format("2006-01-02")
	fmt.Fprintf(&b, "# Daily Log Analysis Report - %s\n\n", date)

	b.WriteString("## Summary\n\n")
	b.WriteString(result.Summary)
	b.WriteString("\n\n")

	b.WriteString("## Statistics\n\n")
	fmt.Fprintf(&b, "- Total logs processed: %d\n", result.TotalLogsProcessed)
	fmt.Fprintf(&b, "- Errors: %d (%.1f%%)\n", result.ErrorCount, result.ErrorRate()*100)
	fmt.Fprintf(&b, "- Warnings: %d (%.1f%%)\n", result.WarningCount, result.WarningRate()*100)
	fmt.Fprintf(&b, "- Log groups: %d\n", len(result.Clusters))
	fmt.Fprintf(&b, "- High severity issues: %d\n", result.HighSeverityCount())
	fmt.Fprintf(&b, "- Execution time: %s\n\n", result.ExecutionTime)

	b.WriteString("## Top Issues\n\n")
	if len(result.TopIssues) == 0 {
		b.WriteString("No issues requiring attention.\n")
		return b.String()
	}

	for i, issue := range result.TopIssues {
		rep := issue.Representative
		fmt.Fprintf(&b, "### %d. [%s] %s\n\n", i+1, strings.ToUpper(string(issue.Severity)), issue.Key)
		if rep != nil {
			fmt.Fprintf(&b, "- Message: `%s`\n", rep.Message)
			fmt.Fprintf(&b, "- Level: %s\n", rep.Level)
			fmt.Fprintf(&b, "- Source: %s\n", rep.Source)
		}
		fmt.Fprintf(&b, "- Occurrences: %d\n", issue.Count)
		fmt.Fprintf(&b, "- Distinct sources: %d\n", issue.DistinctSources())
		if issue.Reasoning != "" {
			fmt.Fprintf(&b, "- Assessment: %s\n", issue.Reasoning)
		}
		b.WriteString("\n")
	}

	return b.String()
}
