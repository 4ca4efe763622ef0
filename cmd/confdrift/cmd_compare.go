package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"confdrift/internal/compare"
	"confdrift/internal/extract"
	"confdrift/internal/inventory"
	"confdrift/internal/report"
	"confdrift/internal/session"
	"confdrift/internal/ux"
)

var (
	compareInventoryPath string
	compareRoot          string
	compareReference     string
	compareReportPath    string
	compareExportPath    string
	compareJobs          int
	compareCategories    []string
)

// compareCmd runs the full comparison pipeline and writes both reports.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare every project against the reference and write reports",
	Long: `Runs the full pipeline over the inventory catalog:
  1. Load and extract each project's configuration files (concurrently)
  2. Compare every project's semantic records against the reference
  3. Group differences by (category, difference kind, field path)
  4. Write the narrative Markdown report and the flat CSV export

Example:
  confdrift compare --inventory inventory.json --root ./projects \
    --report drift.md --export drift.csv`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareInventoryPath, "inventory", "", "Path to the inventory catalog JSON (required)")
	compareCmd.Flags().StringVar(&compareRoot, "root", ".", "Directory containing one subdirectory per project")
	compareCmd.Flags().StringVar(&compareReference, "reference", "", "Reference project name (overrides the catalog's designation)")
	compareCmd.Flags().StringVar(&compareReportPath, "report", "drift_report.md", "Narrative Markdown output path (empty to skip)")
	compareCmd.Flags().StringVar(&compareExportPath, "export", "drift_report.csv", "Flat CSV export path (empty to skip)")
	compareCmd.Flags().IntVar(&compareJobs, "jobs", 0, "Concurrent project extractions (0 = auto)")
	compareCmd.Flags().StringSliceVar(&compareCategories, "category", nil, "Restrict to specific categories (repeatable)")
	_ = compareCmd.MarkFlagRequired("inventory")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	log := logger.With(zap.String("run_id", uuid.NewString()))

	catalog, err := inventory.Load(compareInventoryPath)
	if err != nil {
		return err
	}
	ref, err := catalog.ResolveReference(compareReference)
	if err != nil {
		return err
	}

	categories, err := parseCategories(compareCategories)
	if err != nil {
		return err
	}

	s := session.New(catalog, session.Options{
		Root:       compareRoot,
		Reference:  ref,
		Jobs:       compareJobs,
		Categories: categories,
		Logger:     log,
	})

	outcome, err := s.Run(cmd.Context())
	if err != nil {
		return err
	}
	log.Info("comparison complete",
		zap.String("reference", outcome.Reference),
		zap.Int("projects", len(outcome.Projects)),
		zap.Int("findings", len(outcome.Findings)))

	if compareReportPath != "" {
		if err := os.WriteFile(compareReportPath, []byte(report.Narrative(outcome)), 0644); err != nil {
			return fmt.Errorf("writing narrative report: %w", err)
		}
		fmt.Printf("Narrative report: %s\n", compareReportPath)
	}
	if compareExportPath != "" {
		f, err := os.Create(compareExportPath)
		if err != nil {
			return fmt.Errorf("creating export: %w", err)
		}
		if err := report.Export(f, outcome); err != nil {
			f.Close()
			return fmt.Errorf("writing export: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing export: %w", err)
		}
		fmt.Printf("Flat export:      %s\n", compareExportPath)
	}

	fmt.Println()
	fmt.Print(summaryTable(outcome).View(ux.DefaultStyles()))
	return nil
}

func parseCategories(names []string) ([]extract.Category, error) {
	var out []extract.Category
	for _, n := range names {
		e, ok := extract.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("unknown category %q (known: %v)", n, extract.Categories())
		}
		out = append(out, e.Category)
	}
	return out, nil
}

// summaryTable condenses the run into one terminal table row per category.
func summaryTable(o *session.Outcome) *ux.Table {
	tbl := ux.NewTable(
		fmt.Sprintf("Drift vs %s (%d projects)", o.Reference, len(o.Projects)),
		"Category", "Identical", "Differs", "Missing", "Unparseable", "Findings",
	)

	findingsPerCategory := make(map[extract.Category]int)
	for _, f := range o.Findings {
		findingsPerCategory[f.Key.Category]++
	}

	for _, cat := range o.Categories {
		var identical, differs, missing, unparseable int
		for _, res := range o.Results {
			if res.Category != cat {
				continue
			}
			for _, fc := range res.Files {
				switch fc.Status {
				case compare.StatusIdentical:
					identical++
				case compare.StatusDiffers:
					differs++
				case compare.StatusTargetMissing, compare.StatusReferenceMissing:
					missing++
				case compare.StatusTargetUnparseable:
					unparseable++
				}
			}
		}
		tbl.AddRow(string(cat),
			strconv.Itoa(identical),
			strconv.Itoa(differs),
			strconv.Itoa(missing),
			strconv.Itoa(unparseable),
			strconv.Itoa(findingsPerCategory[cat]))
	}
	return tbl
}
