package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"confdrift/internal/extract"
	"confdrift/internal/inventory"
	"confdrift/internal/ux"
)

var inventoryPath string

// inventoryCmd prints a summary of the catalog without comparing anything,
// useful for sanity-checking the discovery step's output.
var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Summarize the inventory catalog",
	RunE:  runInventory,
}

func init() {
	inventoryCmd.Flags().StringVar(&inventoryPath, "inventory", "", "Path to the inventory catalog JSON (required)")
	_ = inventoryCmd.MarkFlagRequired("inventory")
	rootCmd.AddCommand(inventoryCmd)
}

func runInventory(cmd *cobra.Command, args []string) error {
	catalog, err := inventory.Load(inventoryPath)
	if err != nil {
		return err
	}

	headers := []string{"Project"}
	for _, cat := range extract.Categories() {
		headers = append(headers, string(cat))
	}
	tbl := ux.NewTable(fmt.Sprintf("Inventory: %d projects, %d files",
		catalog.Metadata.ProjectCount, catalog.Metadata.FileCount), headers...)

	for _, name := range catalog.ProjectNames() {
		display := name
		if name == catalog.Reference {
			display += " (reference)"
		}
		row := []string{display}
		for _, cat := range extract.Categories() {
			row = append(row, strconv.Itoa(len(catalog.Files(name, string(cat)))))
		}
		tbl.AddRow(row...)
	}

	fmt.Print(tbl.View(ux.DefaultStyles()))
	return nil
}
