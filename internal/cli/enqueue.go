package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"basegraph.app/insight/internal/queue"
)

var enqueueWorkspace, enqueueCategory string

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <task-type>",
	Short: "Push a task onto the worker stream",
	Long: "Push a task onto the worker stream. Task types: " + strings.Join([]string{
		string(queue.TaskTypeCollectCodeEvolution),
		string(queue.TaskTypeCollectCognitiveMetrics),
		string(queue.TaskTypeGenerateInsights),
		string(queue.TaskTypePurgeInsights),
	}, ", "),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := buildTask(args[0], enqueueWorkspace, enqueueCategory)
		if err != nil {
			return err
		}
		if err := loadConfig(); err != nil {
			return err
		}

		opts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing redis url: %w", err)
		}
		producer := queue.NewRedisProducer(redis.NewClient(opts), cfg.Pipeline.RedisStream, slog.Default())
		defer producer.Close()

		if err := producer.Enqueue(cmd.Context(), task); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s trace=%s\n", color.GreenString("enqueued"), task.TaskType, *task.TraceID)
		return nil
	},
}

func buildTask(taskType, workspaceID, category string) (queue.Task, error) {
	t := queue.TaskType(taskType)
	if !t.Valid() {
		return queue.Task{}, fmt.Errorf("unknown task type %q", taskType)
	}
	if t == queue.TaskTypeCollectCodeEvolution && workspaceID == "" {
		return queue.Task{}, fmt.Errorf("%s requires --workspace", t)
	}
	if category != "" && t != queue.TaskTypeGenerateInsights {
		return queue.Task{}, fmt.Errorf("--category only applies to %s", queue.TaskTypeGenerateInsights)
	}
	traceID := strings.ReplaceAll(uuid.NewString(), "-", "")
	return queue.Task{
		TaskType:    t,
		WorkspaceID: workspaceID,
		Category:    category,
		TraceID:     &traceID,
		Attempt:     1,
	}, nil
}

func init() {
	enqueueCmd.Flags().StringVarP(&enqueueWorkspace, "workspace", "w", "", "Workspace id for collect_code_evolution")
	enqueueCmd.Flags().StringVar(&enqueueCategory, "category", "", "Insight category for generate_insights")
	rootCmd.AddCommand(enqueueCmd)
}
