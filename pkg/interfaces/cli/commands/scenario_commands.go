package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vsinha/opsplan/pkg/application/services/scenario"
	"github.com/vsinha/opsplan/pkg/domain/repositories"
	"github.com/vsinha/opsplan/pkg/infrastructure/events"
	"github.com/vsinha/opsplan/pkg/infrastructure/logging"
	"github.com/vsinha/opsplan/pkg/infrastructure/migrate"
)

// newScenarioService returns a scenario service whose events are logged as
// they are published
func newScenarioService(repo repositories.ScenarioRepository) (*scenario.Service, *events.InMemoryEventStore) {
	store := events.NewInMemoryEventStore()
	_ = store.Subscribe(events.ScenarioEventTypes(), events.NewLogHandler(logging.Component("scenario")))
	return scenario.NewService(repo, store), store
}

// initCmd creates a new scenario
var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a new scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		empty, _ := cmd.Flags().GetBool("empty")

		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		svc, _ := newScenarioService(repo)
		s, err := svc.Create(cmd.Context(), args[0], !empty)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Created scenario %s (%d stock items, %d batches, %d schedule entries)\n",
			s.Name, len(s.StockItems), len(s.Batches), len(s.Schedule))
		return nil
	},
}

// listCmd prints every stored scenario
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		summaries, err := repo.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No scenarios stored. Run 'opsplan init <name>' to create one.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tREVISION\tSTOCK\tBATCHES\tSCHEDULE\tUPDATED")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
				s.Name, s.Revision, s.StockItems, s.Batches, s.Schedule, s.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

// deleteCmd removes a scenario
var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		svc, _ := newScenarioService(repo)
		if err := svc.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted scenario %s\n", args[0])
		return nil
	},
}

// exportCmd writes a stored scenario as a JSON or YAML document
var exportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Export a stored scenario as JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outFile, _ := cmd.Flags().GetString("output")

		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		s, err := repo.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var data []byte
		switch format {
		case "yaml", "yml":
			data, err = migrate.EncodeYAML(s)
		case "json":
			data, err = migrate.Encode(s)
		default:
			return fmt.Errorf("unsupported export format: %s", format)
		}
		if err != nil {
			return err
		}

		if outFile == "" {
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		return os.WriteFile(outFile, data, 0644)
	},
}

// historyCmd prints the recorded saves and deletes of a scenario
var historyCmd = &cobra.Command{
	Use:   "history <name>",
	Short: "Show the revision history of a scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		entries, err := repo.History(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "REVISION\tCHANGE\tAT")
		for _, h := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\n", h.Revision, h.ChangeType, h.OccurredAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(initCmd, listCmd, deleteCmd, exportCmd, historyCmd)
	initCmd.Flags().Bool("empty", false, "Create an empty scenario instead of the starter plant")
	exportCmd.Flags().StringP("format", "f", "yaml", "Export format: yaml, json")
	exportCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
}
