package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"confdrift/internal/compare"
	"confdrift/internal/session"
)

// Flat-export status values. These are file-presence facts, coarser than
// the comparator's per-record statuses.
const (
	exportExists  = "EXISTS"
	exportMissing = "MISSING"
	exportExtra   = "EXTRA"
)

// Export writes the flat tabular export: one row per (category, reference
// file, target project, target file) with a presence status and a semantic
// difference count. Non-applicable cells stay empty - consumers treat
// absence-of-value and zero-differences as distinct facts, so no
// placeholder tokens. Output is deterministic for unchanged inputs.
func Export(w io.Writer, o *session.Outcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"category", "reference_file", "target_project", "target_file", "status", "differences"}); err != nil {
		return fmt.Errorf("writing export header: %w", err)
	}

	for _, res := range o.Results {
		for _, fc := range res.Files {
			row, ok := exportRow(res, fc)
			if !ok {
				continue
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing export row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(res compare.Result, fc compare.FileComparison) ([]string, bool) {
	row := []string{string(res.Category), fc.ReferenceFile, res.Project, fc.TargetFile, "", ""}

	switch fc.Status {
	case compare.StatusIdentical, compare.StatusDiffers:
		row[4] = exportExists
		row[5] = strconv.Itoa(len(fc.Entries))
	case compare.StatusTargetUnparseable:
		// The file exists but could not be compared; a zero here would
		// falsely claim conformance, so the count stays empty.
		row[4] = exportExists
	case compare.StatusTargetMissing:
		row[4] = exportMissing
		row[3] = ""
	case compare.StatusReferenceMissing:
		if fc.TargetFile == "" && fc.ReferenceFile == "" {
			// Category absent on both sides: nothing to export.
			return nil, false
		}
		if fc.ReferenceFile != "" {
			// Reference file present but unparseable: an EXISTS row with
			// no count, mirroring the unparseable-target case.
			row[4] = exportExists
			return row, true
		}
		row[4] = exportExtra
		row[1] = ""
	}
	return row, true
}
