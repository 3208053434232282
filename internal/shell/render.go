package shell

import (
	"context"
	"fmt"
	"strings"

	"media-explorer/internal/api"
	"media-explorer/internal/logging"
	"media-explorer/internal/session"
)

const maxDescription = 60

// show prints the current view: the directory selector, the readiness
// message of a gated directory, or the current page of results.
func (sh *Shell) show(ctx context.Context) {
	switch sh.session.View() {
	case session.ViewLoading:
		sh.printf("Loading directories...\n")
	case session.ViewSelector:
		sh.printf("Register a directory to start: /add <name> <path>, or /pick to choose one on the server.\n")
		sh.printDirectories(ctx)
	case session.ViewViewer:
		if r := sh.session.Readiness(); r.State != session.StateReady {
			sh.printf("[%s] %s\n", r.Directory, r.Message())
			return
		}
		sh.printPage(ctx)
	}
}

func (sh *Shell) printPage(ctx context.Context) {
	v := sh.session.Viewer()
	total := v.Total()

	sh.mu.Lock()
	size := sh.density.PageSize()
	if sh.offset >= total {
		sh.offset = 0
	}
	start := sh.offset
	sh.mu.Unlock()
	end := min(start+size, total)

	if err := v.AwaitRange(ctx, start, end); err != nil {
		logging.Debug("shell: stopped waiting for page %d-%d: %v", start+1, end, err)
	}

	sh.printf("%s\n", header(v, total))
	for i := start; i < end; i++ {
		item, ok := v.Item(i)
		if !ok {
			sh.printf("%4d  (not available, /show to retry)\n", i+1)
			continue
		}
		sh.printf("%s\n", row(i, item, v.Opened(i)))
	}
	if total > 0 {
		more := ""
		if end < total {
			more = ", /more for the next page"
		}
		sh.printf("Showing %d-%d of %d%s.\n", start+1, end, total, more)
	}
}

func header(v *session.Viewer, total int) string {
	var what string
	switch v.Source() {
	case session.SourceSearch:
		what = fmt.Sprintf("search %q", v.Query())
	case session.SourceSimilarity:
		what = "similarity results"
		if trail := v.History(); len(trail) > 0 {
			what += " for " + trail[len(trail)-1]
		}
	default:
		what = "all files"
	}
	return fmt.Sprintf("[%s] %s: %d %s", v.Directory(), what, total, plural(total, "result"))
}

func row(i int, item api.ScoredFile, opened bool) string {
	mark := " "
	if opened {
		mark = "*"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%4d %s %s %s", i+1, mark, item.File.FileType.Glyph(), item.File.Name)
	if caption := item.Caption(); caption != "" {
		fmt.Fprintf(&b, "  (%s)", strings.TrimSpace(caption))
	}
	if d := truncate(item.File.Description, maxDescription); d != "" {
		fmt.Fprintf(&b, "  %s", d)
	}
	return b.String()
}

func (sh *Shell) printDirectories(ctx context.Context) {
	dirs := sh.session.Directories()
	if len(dirs) == 0 {
		sh.printf("No directories registered.\n")
		return
	}
	current := sh.session.Directory()
	def := sh.session.Preferences().DefaultDirectory(ctx)
	for _, d := range dirs {
		mark := " "
		if d.Name == current {
			mark = ">"
		}
		suffix := ""
		if d.Name == def {
			suffix = " (default)"
		}
		sh.printf("  %s %s%s: %s\n", mark, d.Name, suffix, describeStatus(d))
	}
}

func describeStatus(d api.DirectoryStatus) string {
	switch {
	case d.Ready:
		return "ready"
	case d.Failed:
		return "failed: " + d.InitProgressDescription
	default:
		return fmt.Sprintf("initializing %.0f%% %s", d.InitProgress*100, d.InitProgressDescription)
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
