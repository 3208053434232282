package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"media-explorer/internal/api"

	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// render writes v in the selected format. text prints the human-readable
// form.
func (a *app) render(out io.Writer, v interface{}, text func(io.Writer)) error {
	switch a.output {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(out)
		return nil
	}
}

func statusText(d api.DirectoryStatus) string {
	switch {
	case d.Ready:
		return "ready"
	case d.Failed:
		return "failed: " + d.InitProgressDescription
	default:
		return strings.TrimSpace(fmt.Sprintf("initializing %.0f%% %s", d.InitProgress*100, d.InitProgressDescription))
	}
}

func printDirectories(out io.Writer, dirs []api.DirectoryStatus) {
	if len(dirs) == 0 {
		fmt.Fprintln(out, "no directories registered")
		return
	}
	for _, d := range dirs {
		fmt.Fprintf(out, "%-24s %s\n", d.Name, statusText(d))
	}
}

func printFiles(out io.Writer, results []api.ScoredFile) {
	for _, r := range results {
		f := r.File
		fmt.Fprintf(out, "%6d %s %s", f.ID, f.FileType.Glyph(), f.Name)
		if caption := strings.TrimSpace(r.Caption()); caption != "" {
			fmt.Fprintf(out, "  (%s)", caption)
		}
		fmt.Fprintln(out)
	}
}

func printPage(out io.Writer, results []api.ScoredFile, offset, total int) {
	printFiles(out, results)
	if len(results) == 0 {
		fmt.Fprintf(out, "no results (%d total)\n", total)
		return
	}
	fmt.Fprintf(out, "%d-%d of %d\n", offset+1, offset+len(results), total)
}
