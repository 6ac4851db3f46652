package cli

import (
	"fmt"
	"net/url"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"basegraph.app/insight/internal/http/dto"
	"basegraph.app/insight/internal/model"
)

var (
	categoryFlag  string
	limitFlag     int
	helpfulFlag   bool
	commentFlag   string
	olderThanFlag time.Duration
)

var insightsCmd = &cobra.Command{
	Use:     "insights",
	Aliases: []string{"insight"},
	Short:   "Generate and manage insights",
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the insight generators on the server",
	Long:  "Run the insight generators through the server at INSIGHT_API_URL, so performance insights see its live cognitive telemetry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/insights/generate"
		if categoryFlag != "" {
			category, err := model.ParseInsightCategory(categoryFlag)
			if err != nil {
				return err
			}
			path += "?category=" + url.QueryEscape(string(category))
		}

		api, err := newAPIClient()
		if err != nil {
			return err
		}
		var resp dto.InsightListResponse
		if err := api.post(cmd.Context(), path, &resp); err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), resp.Insights)
		}
		renderInsights(cmd.OutOrStdout(), resp.Insights)
		return nil
	},
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the highest ranked unacknowledged insights",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := engines(cmd.Context())
		if err != nil {
			return err
		}
		insights, err := s.Insights().GetPrioritizedInsights(cmd.Context(), limitFlag)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), insights)
		}
		renderInsights(cmd.OutOrStdout(), insights)
		return nil
	},
}

var ackCmd = &cobra.Command{
	Use:   "ack <insight-id>",
	Short: "Acknowledge an insight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := engines(cmd.Context())
		if err != nil {
			return err
		}
		if err := s.Insights().AcknowledgeInsight(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("acknowledged"), args[0])
		return nil
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <insight-id>",
	Short: "Record whether an insight was helpful",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := engines(cmd.Context())
		if err != nil {
			return err
		}
		var comment *string
		if cmd.Flags().Changed("comment") {
			comment = &commentFlag
		}
		record, err := s.Insights().ProvideInsightFeedback(cmd.Context(), args[0], helpfulFlag, comment)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), record)
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("recorded"), record.ID)
		return nil
	},
}

var acceptanceCmd = &cobra.Command{
	Use:   "acceptance",
	Short: "Print the share of feedback marked helpful",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := engines(cmd.Context())
		if err != nil {
			return err
		}
		rate, err := s.Insights().GetInsightAcceptanceRate(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]float64{"acceptance_rate": rate})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "acceptance rate: %.1f%%\n", rate*100)
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete insights older than a retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := engines(cmd.Context())
		if err != nil {
			return err
		}
		cutoff := time.Now().UTC().Add(-olderThanFlag)
		purged, err := s.Insights().PurgeInsights(cmd.Context(), cutoff)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"purged": purged, "before": cutoff})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d insights generated before %s\n", purged, cutoff.Format(time.RFC3339))
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&categoryFlag, "category", "", "Only run one generator (performance, quality, productivity, security, collaboration)")
	topCmd.Flags().IntVar(&limitFlag, "limit", 10, "Maximum insights to show")
	feedbackCmd.Flags().BoolVar(&helpfulFlag, "helpful", false, "Mark the insight as helpful")
	feedbackCmd.Flags().StringVar(&commentFlag, "comment", "", "Optional comment")
	purgeCmd.Flags().DurationVar(&olderThanFlag, "older-than", 30*24*time.Hour, "Retention window")

	insightsCmd.AddCommand(generateCmd, topCmd, ackCmd, feedbackCmd, acceptanceCmd, purgeCmd)
	rootCmd.AddCommand(insightsCmd)
}
