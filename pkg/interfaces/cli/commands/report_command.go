package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vsinha/opsplan/pkg/application/services/orchestration"
	"github.com/vsinha/opsplan/pkg/domain/entities"
	"github.com/vsinha/opsplan/pkg/domain/repositories"
	"github.com/vsinha/opsplan/pkg/infrastructure/migrate"
	"github.com/vsinha/opsplan/pkg/interfaces/cli/output"
)

// ReportConfig holds configuration for the report and conflicts commands
type ReportConfig struct {
	Scenario      string
	File          string
	Today         time.Time
	WindowDays    int
	Format        string
	OutputDir     string
	GanttOutput   string
	Strict        bool
	ConflictsOnly bool
	Verbose       bool
}

// ReportCommand derives and renders the planning report of one scenario
type ReportCommand struct {
	config ReportConfig
	repo   repositories.ScenarioRepository
	out    io.Writer
}

// NewReportCommand creates a new report command. repo may be nil when the
// scenario comes from a file.
func NewReportCommand(config ReportConfig, repo repositories.ScenarioRepository, out io.Writer) *ReportCommand {
	return &ReportCommand{
		config: config,
		repo:   repo,
		out:    out,
	}
}

// Execute runs the report
func (c *ReportCommand) Execute(ctx context.Context) error {
	s, err := c.loadScenario(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := orchestration.NewPlanningOrchestrator(c.repo, c.config.WindowDays).Run(ctx, s, c.config.Today)
	if err != nil {
		return err
	}

	if c.config.Strict && report.Validation != nil && report.Validation.HasWarnings() {
		return fmt.Errorf("scenario %s failed validation: %s", s.Name, strings.Join(report.Validation.Warnings, "; "))
	}

	config := output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Out:       c.out,
		Verbose:   c.config.Verbose,
		Elapsed:   time.Since(start),
	}
	if c.config.ConflictsOnly {
		err = output.GenerateConflicts(report.Conflicts, config)
	} else {
		err = output.Generate(report, config)
	}
	if err != nil {
		return err
	}

	if c.config.GanttOutput != "" {
		if err := output.WriteGanttSVG(s, report.Conflicts, c.config.GanttOutput); err != nil {
			return err
		}
		if c.config.Verbose {
			fmt.Fprintf(c.out, "📈 Schedule chart saved to: %s\n", c.config.GanttOutput)
		}
	}
	return nil
}

func (c *ReportCommand) loadScenario(ctx context.Context) (*entities.Snapshot, error) {
	if c.config.File != "" {
		return migrate.LoadFile(c.config.File)
	}
	if c.config.Scenario == "" {
		return nil, fmt.Errorf("a scenario name or --file is required")
	}
	if c.repo == nil {
		return nil, fmt.Errorf("no scenario database configured")
	}
	s, err := c.repo.Get(ctx, c.config.Scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario %s: %w", c.config.Scenario, err)
	}
	return s, nil
}

func runReport(cmd *cobra.Command, args []string, conflictsOnly bool) error {
	file, _ := cmd.Flags().GetString("file")
	todayFlag, _ := cmd.Flags().GetString("today")
	format, _ := cmd.Flags().GetString("format")
	outputDir, _ := cmd.Flags().GetString("output")
	gantt, _ := cmd.Flags().GetString("gantt")
	strict, _ := cmd.Flags().GetBool("strict")
	windowDays, _ := cmd.Flags().GetInt("window")

	today, err := parseToday(todayFlag)
	if err != nil {
		return err
	}
	if format == "" {
		format = viper.GetString("report.format")
	}
	if windowDays == 0 {
		windowDays = viper.GetInt("conflicts.window_days")
	}

	config := ReportConfig{
		File:          file,
		Today:         today,
		WindowDays:    windowDays,
		Format:        format,
		OutputDir:     outputDir,
		GanttOutput:   gantt,
		Strict:        strict,
		ConflictsOnly: conflictsOnly,
		Verbose:       verbose(cmd),
	}
	if len(args) == 1 {
		config.Scenario = args[0]
	}

	var repo repositories.ScenarioRepository
	if file == "" {
		sqliteRepo, err := openRepository()
		if err != nil {
			return err
		}
		defer sqliteRepo.Close()
		repo = sqliteRepo
	}

	return NewReportCommand(config, repo, cmd.OutOrStdout()).Execute(cmd.Context())
}

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report [scenario]",
	Short: "Derive cost, capacity, exposure, consumption, conflicts and alerts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, args, false)
	},
}

// conflictsCmd represents the conflicts command
var conflictsCmd = &cobra.Command{
	Use:   "conflicts [scenario]",
	Short: "Assess the schedule window for double bookings and maintenance clashes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, args, true)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{reportCmd, conflictsCmd} {
		rootCmd.AddCommand(cmd)
		cmd.Flags().String("file", "", "Read the scenario from a JSON/YAML file instead of the database")
		cmd.Flags().String("today", "", "Anchor day of the conflict window (YYYY-MM-DD, default today)")
		cmd.Flags().StringP("format", "f", "", "Output format: "+strings.Join(output.Formats(), ", "))
		cmd.Flags().StringP("output", "o", "", "Output directory for results (optional, required for csv)")
		cmd.Flags().String("gantt", "", "Also write an SVG schedule chart to this file")
		cmd.Flags().Bool("strict", false, "Fail when the scenario has validation warnings")
		cmd.Flags().Int("window", 0, "Conflict window in days (default from config, 14)")
	}
}
