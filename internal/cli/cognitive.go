package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"basegraph.app/insight/internal/http/dto"
	"basegraph.app/insight/internal/model"
)

var cognitiveCmd = &cobra.Command{
	Use:   "cognitive",
	Short: "Cognitive system metrics from the running server",
	Long:  "Cognitive system metrics. These commands query the server at INSIGHT_API_URL, which holds the live engine telemetry.",
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Score cognitive system health",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newAPIClient()
		if err != nil {
			return err
		}
		var health model.CognitiveSystemHealth
		if err := api.get(cmd.Context(), "/cognitive/health", &health); err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), health)
		}
		renderHealth(cmd.OutOrStdout(), health)
		return nil
	},
}

var recommendationsCmd = &cobra.Command{
	Use:   "recommendations",
	Short: "List optimization recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newAPIClient()
		if err != nil {
			return err
		}
		var resp dto.RecommendationsResponse
		if err := api.get(cmd.Context(), "/cognitive/recommendations", &resp); err != nil {
			return err
		}
		recs := resp.Recommendations
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), recs)
		}
		w := cmd.OutOrStdout()
		if len(recs) == 0 {
			dimColor.Fprintln(w, "no recommendations")
			return nil
		}
		for _, rec := range recs {
			fmt.Fprintf(w, "• %s\n", rec)
		}
		return nil
	},
}

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List reasoning engine metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newAPIClient()
		if err != nil {
			return err
		}
		var resp struct {
			Engines []model.ReasoningEngineMetrics `json:"engines"`
		}
		if err := api.get(cmd.Context(), "/cognitive/engines", &resp); err != nil {
			return err
		}
		metrics := resp.Engines
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), metrics)
		}
		w := cmd.OutOrStdout()
		printHeader(w, "Reasoning engines")
		if len(metrics) == 0 {
			dimColor.Fprintln(w, "  no engine telemetry received yet")
		}
		for _, m := range metrics {
			accuracy := color.GreenString("%5.1f%%", m.Accuracy*100)
			if m.Accuracy < 0.7 {
				accuracy = color.RedString("%5.1f%%", m.Accuracy*100)
			}
			fmt.Fprintf(w, "  %-24s accuracy %s  latency %7.1fms  inferences %d\n",
				m.EngineID, accuracy, m.AverageLatencyMs, m.TotalInferences)
		}
		return nil
	},
}

func init() {
	cognitiveCmd.AddCommand(healthCmd, recommendationsCmd, enginesCmd)
	rootCmd.AddCommand(cognitiveCmd)
}
