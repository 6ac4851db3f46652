package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"basegraph.app/insight/internal/analytics"
	"basegraph.app/insight/internal/model"
)

var (
	workspaceFlag string
	metricFlag    string
	sinceFlag     time.Duration
	pathFlag      string
)

var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Code analytics for a workspace",
}

var debtCmd = &cobra.Command{
	Use:   "debt",
	Short: "Analyze technical debt",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := engines(cmd.Context())
		if err != nil {
			return err
		}
		analysis, err := s.Code().AnalyzeTechnicalDebt(cmd.Context(), workspaceFlag)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), analysis)
		}
		renderDebt(cmd.OutOrStdout(), analysis)
		return nil
	},
}

var architectureCmd = &cobra.Command{
	Use:   "architecture",
	Short: "Assess architecture quality",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := engines(cmd.Context())
		if err != nil {
			return err
		}
		metrics, err := s.Code().AssessArchitectureQuality(cmd.Context(), workspaceFlag)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), metrics)
		}
		renderArchitecture(cmd.OutOrStdout(), metrics)
		return nil
	},
}

var securityCmd = &cobra.Command{
	Use:   "security",
	Short: "Assess security risk",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := engines(cmd.Context())
		if err != nil {
			return err
		}
		assessment, err := s.Code().AssessSecurityRisks(cmd.Context(), workspaceFlag)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), assessment)
		}
		renderSecurity(cmd.OutOrStdout(), assessment)
		return nil
	},
}

var evolutionCmd = &cobra.Command{
	Use:   "evolution",
	Short: "Record a code evolution snapshot and print the history",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := engines(cmd.Context())
		if err != nil {
			return err
		}
		history, err := s.Code().TrackCodeEvolution(cmd.Context(), workspaceFlag)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), history)
		}
		w := cmd.OutOrStdout()
		printHeader(w, "Code evolution: "+workspaceFlag)
		for _, snap := range history {
			fmt.Fprintf(w, "  %s  +%-6d -%-6d files %-4d complexity %6.2f  quality %5.1f\n",
				snap.Timestamp.Format("2006-01-02 15:04"), snap.LinesAdded, snap.LinesRemoved,
				snap.FilesChanged, snap.AverageComplexity, snap.QualityScore)
		}
		return nil
	},
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Print a resampled metric trend",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := engines(cmd.Context())
		if err != nil {
			return err
		}
		end := time.Now().UTC()
		trend, err := s.Code().GetMetricTrend(cmd.Context(), workspaceFlag, metricFlag,
			model.TimeRange{Start: end.Add(-sinceFlag), End: end})
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), trend)
		}
		renderTrend(cmd.OutOrStdout(), trend)
		return nil
	},
}

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Score code quality for a path",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := engines(cmd.Context())
		if err != nil {
			return err
		}
		score, err := s.Code().GetCodeQualityScore(cmd.Context(), pathFlag)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), score)
		}
		w := cmd.OutOrStdout()
		printHeader(w, "Quality: "+score.Path)
		fmt.Fprintf(w, "  complexity %5.1f  duplication %5.1f  coverage %5.1f\n", score.Complexity, score.Duplication, score.Coverage)
		fmt.Fprintf(w, "  documentation %5.1f  style %5.1f  overall %5.1f\n", score.Documentation, score.Style, score.Overall)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{debtCmd, architectureCmd, securityCmd, evolutionCmd, trendCmd} {
		c.Flags().StringVarP(&workspaceFlag, "workspace", "w", "", "Workspace id (group/project)")
		_ = c.MarkFlagRequired("workspace")
		codeCmd.AddCommand(c)
	}
	trendCmd.Flags().StringVar(&metricFlag, "metric", "quality_score", "Snapshot metric to trend: "+strings.Join(analytics.TrendMetrics(), ", "))
	trendCmd.Flags().DurationVar(&sinceFlag, "since", 30*24*time.Hour, "How far back the trend starts")

	qualityCmd.Flags().StringVar(&pathFlag, "path", "", "File or directory path")
	_ = qualityCmd.MarkFlagRequired("path")
	codeCmd.AddCommand(qualityCmd)

	rootCmd.AddCommand(codeCmd)
}
