package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"media-explorer/internal/logging"
	"media-explorer/internal/session"
	"media-explorer/internal/settings"
	"media-explorer/internal/suggest"

	"golang.org/x/term"
)

const prompt = "explorer> "

const keyTab = '\t'

// Shell drives a session from a terminal.
type Shell struct {
	session *session.Session
	term    *term.Terminal

	mu      sync.Mutex
	density settings.Density
	offset  int
	seen    session.Event
}

// New creates a Shell reading from and writing to rw. rw is normally a
// terminal in raw mode, but any stream works.
func New(ctx context.Context, s *session.Session, rw io.ReadWriter) *Shell {
	sh := &Shell{
		session: s,
		term:    term.NewTerminal(rw, prompt),
		density: s.Preferences().GridDensity(ctx, settings.DensityMedium),
	}
	sh.term.AutoCompleteCallback = sh.complete
	return sh
}

// SetSize tells the line editor the terminal dimensions.
func (sh *Shell) SetSize(width, height int) error {
	return sh.term.SetSize(width, height)
}

// Run reads lines until /quit, end of input or ctx is done.
func (sh *Shell) Run(ctx context.Context) error {
	events, cancel := sh.session.Subscribe()
	defer cancel()
	go sh.watch(ctx, events)

	sh.printf("Type a search, or /help for commands.\n")
	sh.show(ctx)

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		for {
			line, err := sh.term.ReadLine()
			if err != nil {
				errs <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case line := <-lines:
			quit, err := sh.Execute(ctx, line)
			if err != nil {
				sh.printf("error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// watch prints the view again whenever the session moves to another view,
// directory or readiness state.
func (sh *Shell) watch(ctx context.Context, events <-chan session.Event) {
	for ev := range events {
		sh.mu.Lock()
		changed := ev.View != sh.seen.View || ev.Directory != sh.seen.Directory ||
			ev.Readiness.State != sh.seen.Readiness.State
		sh.seen = ev
		if changed {
			sh.offset = 0
		}
		sh.mu.Unlock()

		if changed {
			logging.Debug("shell: view %s directory %q readiness %s", ev.View, ev.Directory, ev.Readiness.State)
			sh.show(ctx)
		}
	}
}

// complete accepts the best tag suggestion for the word before the cursor.
func (sh *Shell) complete(line string, pos int, key rune) (string, int, bool) {
	if key != keyTab {
		return "", 0, false
	}
	before := line[:pos]
	if strings.HasPrefix(before, "/") && !strings.Contains(before, " ") {
		return completeCommand(before, line[pos:])
	}
	suggestions := suggest.ForQuery(before)
	if len(suggestions) == 0 {
		return "", 0, false
	}
	completed := suggest.Apply(before, suggestions[0])
	return completed + strings.TrimLeft(line[pos:], " "), len(completed), true
}

// completeCommand completes a command name when exactly one matches.
func completeCommand(before, after string) (string, int, bool) {
	var match string
	for _, name := range commandNames() {
		if strings.HasPrefix("/"+name, before) {
			if match != "" {
				return "", 0, false
			}
			match = name
		}
	}
	if match == "" {
		return "", 0, false
	}
	completed := "/" + match + " "
	return completed + strings.TrimLeft(after, " "), len(completed), true
}

func (sh *Shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(sh.term, format, args...)
}
