package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/poiesic/bizmatch"
	"github.com/poiesic/bizmatch/core"
	"github.com/poiesic/bizmatch/corpus"
	"github.com/poiesic/bizmatch/export"
)

var (
	boldGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow    = color.New(color.FgYellow).SprintFunc()
	faint     = color.New(color.Faint).SprintFunc()
)

func writeResults(w io.Writer, format string, results []core.RankedResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "csv":
		return export.WriteCSV(w, results)
	default:
		printResults(w, results)
		return nil
	}
}

func printResults(w io.Writer, results []core.RankedResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matching companies.")
		return
	}
	for i, r := range results {
		fmt.Fprintf(w, "%d. %s %s  %s\n", i+1, boldGreen(r.Name), faint("("+r.EntityID+")"), yellow(fmt.Sprintf("%.4f", r.Score)))
		for _, m := range r.Matches {
			fmt.Fprintf(w, "   %s  %s\n", boldCyan(fmt.Sprintf("%.4f", m.Score)), m.Text)
		}
	}
}

func printRefresh(w io.Writer, r *bizmatch.RefreshResult) {
	switch r.Source {
	case bizmatch.SourceBuild:
		fmt.Fprintln(w, boldGreen("Corpus built"))
	default:
		fmt.Fprintf(w, "%s (snapshot reused from %s)\n", boldGreen("Corpus up to date"), r.Source)
	}
	fmt.Fprintf(w, "Build: %s\n", r.BuildID)
	printStats(w, r.Stats)
}

func printSnapshot(w io.Writer, s *corpus.Snapshot) {
	fmt.Fprintf(w, "Build: %s\n", s.BuildID)
	fmt.Fprintf(w, "Model: %s\n", s.Model)
	fmt.Fprintf(w, "Built: %s\n", s.BuiltAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Fingerprint: %s\n", faint(s.Fingerprint))
	printStats(w, s.Stats())
}

func printStats(w io.Writer, s corpus.Stats) {
	fmt.Fprintf(w, "Companies: %d (%d indexed, %d empty description, %d no functional sentences)\n",
		s.Entities, s.Indexed, s.EmptyDescription, s.NoFunctionalUnits)
	fmt.Fprintf(w, "Sentences: %d x %d dimensions\n", s.Units, s.Dimension)
}

func printEntityStatus(w io.Writer, id string, status core.EntityStatus) {
	label := yellow(status.String())
	if status.Rankable() {
		label = boldGreen(status.String())
	}
	fmt.Fprintf(w, "%s: %s\n", id, label)
}
