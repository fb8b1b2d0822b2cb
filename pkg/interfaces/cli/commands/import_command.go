package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vsinha/opsplan/pkg/application/services/scenario"
	"github.com/vsinha/opsplan/pkg/domain/entities"
	"github.com/vsinha/opsplan/pkg/domain/repositories"
	"github.com/vsinha/opsplan/pkg/infrastructure/events"
	"github.com/vsinha/opsplan/pkg/infrastructure/migrate"
	"github.com/vsinha/opsplan/pkg/infrastructure/repositories/csv"
)

// ImportConfig holds configuration for the import command
type ImportConfig struct {
	Scenario string
	File     string
	CSVFiles map[string]string
	Merge    bool
	Verbose  bool
}

// ImportCommand loads scenario documents and CSV collections into the store
type ImportCommand struct {
	config ImportConfig
	svc    *scenario.Service
	events *events.InMemoryEventStore
	loader *csv.Loader
	out    io.Writer
}

// NewImportCommand creates a new import command writing through repo
func NewImportCommand(config ImportConfig, repo repositories.ScenarioRepository, out io.Writer) *ImportCommand {
	svc, store := newScenarioService(repo)
	return &ImportCommand{
		config: config,
		svc:    svc,
		events: store,
		loader: csv.NewLoader(),
		out:    out,
	}
}

// Execute runs the import
func (c *ImportCommand) Execute(ctx context.Context) error {
	if c.config.File == "" && len(c.config.CSVFiles) == 0 {
		return fmt.Errorf("nothing to import: pass a scenario file or --csv collection=file")
	}

	name := c.config.Scenario
	if c.config.File != "" {
		s, err := migrate.LoadFile(c.config.File)
		if err != nil {
			return err
		}
		if name != "" {
			s.Name = name
		}
		name = s.Name

		revision, err := c.svc.Save(ctx, s)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "📂 Imported %s as %s (revision %d)\n", c.config.File, name, revision)
	}

	if len(c.config.CSVFiles) == 0 {
		return c.printEvents(name)
	}
	if name == "" {
		return fmt.Errorf("--scenario is required when importing CSV collections")
	}
	if err := c.ensureScenario(ctx, name); err != nil {
		return err
	}

	// Deterministic order keeps revisions reproducible
	collections := make([]string, 0, len(c.config.CSVFiles))
	for collection := range c.config.CSVFiles {
		collections = append(collections, collection)
	}
	sort.Strings(collections)

	for _, collection := range collections {
		filename := c.config.CSVFiles[collection]
		var (
			rows int
			err  error
		)
		if c.config.Merge {
			rows, err = c.mergeCSV(ctx, name, collection, filename)
		} else {
			rows, err = c.svc.ReplaceCollection(ctx, name, serviceCollection(collection), filename,
				func(s *entities.Snapshot) (*entities.Snapshot, int, error) {
					return c.loader.Load(s, collection, filename)
				})
		}
		if err != nil {
			return fmt.Errorf("error loading %s: %w", collection, err)
		}
		if c.config.Verbose {
			fmt.Fprintf(c.out, "  %s: %d rows from %s\n", collection, rows, filename)
		}
	}

	fmt.Fprintf(c.out, "✅ Imported %d CSV collection(s) into %s\n", len(collections), name)
	return c.printEvents(name)
}

// printEvents lists the changes recorded against the scenario in verbose mode
func (c *ImportCommand) printEvents(name string) error {
	if !c.config.Verbose {
		return nil
	}
	recorded, err := c.events.ReadEvents(name, 1)
	if err != nil {
		return err
	}
	for _, e := range recorded {
		fmt.Fprintf(c.out, "  #%d %s\n", e.Version(), e.Type())
	}
	return nil
}

// ensureScenario creates an empty scenario when CSV rows target a new name
func (c *ImportCommand) ensureScenario(ctx context.Context, name string) error {
	_, err := c.svc.Get(ctx, name)
	if errors.Is(err, repositories.ErrScenarioNotFound) {
		_, err = c.svc.Create(ctx, name, false)
	}
	return err
}

// mergeCSV upserts rows by id instead of replacing the collection
func (c *ImportCommand) mergeCSV(ctx context.Context, name, collection, filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var ids []string
	switch collection {
	case csv.CollectionStock:
		items, err := c.loader.ReadStockItems(file)
		if err != nil {
			return 0, err
		}
		ids, err = c.svc.UpsertStockItems(ctx, name, items)
		if err != nil {
			return 0, err
		}
	case csv.CollectionBatches:
		batches, err := c.loader.ReadBatches(file)
		if err != nil {
			return 0, err
		}
		ids, err = c.svc.UpsertBatches(ctx, name, batches)
		if err != nil {
			return 0, err
		}
	case csv.CollectionSchedule:
		entries, err := c.loader.ReadSchedule(file)
		if err != nil {
			return 0, err
		}
		ids, err = c.svc.UpsertSchedule(ctx, name, entries)
		if err != nil {
			return 0, err
		}
	case csv.CollectionMaintenance:
		blocks, err := c.loader.ReadMaintenance(file)
		if err != nil {
			return 0, err
		}
		ids, err = c.svc.UpsertMaintenance(ctx, name, blocks)
		if err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("unknown collection %q (expected one of %v)", collection, csv.Collections())
	}
	return len(ids), nil
}

// serviceCollection maps CSV collection names to snapshot collection names
func serviceCollection(collection string) string {
	switch collection {
	case csv.CollectionStock:
		return scenario.CollectionStock
	case csv.CollectionBatches:
		return scenario.CollectionBatches
	case csv.CollectionSchedule:
		return scenario.CollectionSchedule
	case csv.CollectionMaintenance:
		return scenario.CollectionMaintenance
	default:
		return collection
	}
}

// parseCSVFlags turns collection=file pairs into a map
func parseCSVFlags(values []string) (map[string]string, error) {
	files := make(map[string]string, len(values))
	for _, v := range values {
		collection, file, ok := strings.Cut(v, "=")
		if !ok || collection == "" || file == "" {
			return nil, fmt.Errorf("invalid --csv %q, expected collection=file", v)
		}
		files[strings.TrimSpace(collection)] = strings.TrimSpace(file)
	}
	return files, nil
}

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [scenario-file]",
	Short: "Import a JSON/YAML scenario or CSV collections",
	Long: `Import a whole scenario from a JSON or YAML document, and/or replace individual
collections from CSV files:

  opsplan import plant.yaml
  opsplan import --scenario plant --csv stock=stock.csv --csv schedule=schedule.csv

Collections: ` + strings.Join(csv.Collections(), ", "),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("scenario")
		csvValues, _ := cmd.Flags().GetStringArray("csv")
		merge, _ := cmd.Flags().GetBool("merge")

		csvFiles, err := parseCSVFlags(csvValues)
		if err != nil {
			return err
		}

		config := ImportConfig{
			Scenario: name,
			CSVFiles: csvFiles,
			Merge:    merge,
			Verbose:  verbose(cmd),
		}
		if len(args) == 1 {
			config.File = args[0]
		}

		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		return NewImportCommand(config, repo, cmd.OutOrStdout()).Execute(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringP("scenario", "s", "", "Target scenario name (defaults to the document name)")
	importCmd.Flags().StringArray("csv", nil, "Collection CSV as collection=file (repeatable)")
	importCmd.Flags().Bool("merge", false, "Upsert CSV rows by id instead of replacing the collection")
}
