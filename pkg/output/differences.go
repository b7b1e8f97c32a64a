package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/foldermirror/pkg/models"
)

// WritePlanReport writes the actions of a (usually dry-run) pass to a file.
// Format can be "human" or "json". Nothing is written when there are no actions.
func WritePlanReport(report *models.PassReport, path string, format string) error {
	if len(report.Operations) == 0 {
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	switch format {
	case "json":
		return writePlanJSON(report, file)
	default: // "human"
		return WritePlanHuman(report, file)
	}
}

// planSections lists the action groups in report order
var planSections = []struct {
	action models.Action
	label  string
}{
	{models.ActionReplace, "Replace (content differs)"},
	{models.ActionCopy, "Copy (only in source)"},
	{models.ActionCopyTree, "Copy directory (only in source)"},
	{models.ActionDelete, "Delete (only in target)"},
	{models.ActionDeleteTree, "Delete directory (only in target)"},
}

// WritePlanHuman writes the actions grouped by kind in human-readable format
func WritePlanHuman(report *models.PassReport, w io.Writer) error {
	fmt.Fprintf(w, "Planned Actions\n")
	fmt.Fprintf(w, "===============\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Source: %s\n", report.SourcePath)
	fmt.Fprintf(w, "Target: %s\n", report.TargetPath)
	fmt.Fprintf(w, "Dry Run: %v\n\n", report.DryRun)
	fmt.Fprintf(w, "Total Actions: %d\n\n", len(report.Operations))

	byAction := make(map[models.Action][]models.FileOperation)
	for _, op := range report.Operations {
		byAction[op.Action] = append(byAction[op.Action], op)
	}

	for _, section := range planSections {
		ops := byAction[section.action]
		if len(ops) == 0 {
			continue
		}

		label := fmt.Sprintf("%s (%d)", section.label, len(ops))
		fmt.Fprintf(w, "%s\n", label)
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(label)))

		for _, op := range ops {
			fmt.Fprintf(w, "  %s", op.TargetPath)
			if op.Size > 0 {
				fmt.Fprintf(w, " (%s)", humanize.IBytes(uint64(op.Size)))
			}
			fmt.Fprintf(w, "\n")
		}
		fmt.Fprintf(w, "\n")
	}

	return nil
}

// writePlanJSON writes the actions in JSON format
func writePlanJSON(report *models.PassReport, w io.Writer) error {
	output := struct {
		Generated  string                 `json:"generated"`
		PassID     string                 `json:"pass_id"`
		SourcePath string                 `json:"source_path"`
		TargetPath string                 `json:"target_path"`
		DryRun     bool                   `json:"dry_run"`
		TotalCount int                    `json:"total_count"`
		Operations []models.FileOperation `json:"operations"`
	}{
		Generated:  time.Now().Format(time.RFC3339),
		PassID:     report.PassID,
		SourcePath: report.SourcePath,
		TargetPath: report.TargetPath,
		DryRun:     report.DryRun,
		TotalCount: len(report.Operations),
		Operations: report.Operations,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
