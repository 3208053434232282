package shell

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"media-explorer/internal/api"
	"media-explorer/internal/history"
	"media-explorer/internal/media"
	"media-explorer/internal/pagination"
	"media-explorer/internal/session"
	"media-explorer/internal/settings"
	"media-explorer/internal/suggest"
)

type command struct {
	name  string
	args  string
	help  string
	alias []string
	run   func(sh *Shell, ctx context.Context, args []string) (quit bool, err error)
}

var commands []command

func init() {
	commands = []command{
		{name: "help", help: "list commands", run: (*Shell).cmdHelp},
		{name: "quit", alias: []string{"exit"}, help: "leave the explorer", run: (*Shell).cmdQuit},
		{name: "back", help: "go back to the previous search", run: (*Shell).cmdBack},
		{name: "show", help: "print the current page again", run: (*Shell).cmdShow},
		{name: "more", alias: []string{"next"}, help: "next page of results", run: (*Shell).cmdMore},
		{name: "prev", help: "previous page of results", run: (*Shell).cmdPrev},
		{name: "similar", args: "<n> [variant]", help: "find files similar to result n", run: (*Shell).cmdSimilar},
		{name: "paste", args: "<image file>", help: "find images similar to an image file", run: (*Shell).cmdPaste},
		{name: "thumb", args: "<n>", help: "find images similar to the thumbnail of result n", run: (*Shell).cmdThumb},
		{name: "info", args: "<n>", help: "show everything known about result n", run: (*Shell).cmdInfo},
		{name: "open", args: "<n>", help: "open result n on the server host", run: (*Shell).cmdOpen},
		{name: "reveal", args: "<n>", help: "show result n in the server host's file manager", run: (*Shell).cmdReveal},
		{name: "history", help: "list the searches /back walks through", run: (*Shell).cmdHistory},
		{name: "tags", args: "[query]", help: "list search tags, or completions for query", run: (*Shell).cmdTags},
		{name: "density", args: "[small|medium|large|+|-]", help: "show or change results per page", run: (*Shell).cmdDensity},
		{name: "dirs", help: "list registered directories", run: (*Shell).cmdDirs},
		{name: "use", args: "<name>", help: "browse another directory", run: (*Shell).cmdUse},
		{name: "default", args: "<name>", help: "open this directory on start", run: (*Shell).cmdDefault},
		{name: "add", args: "<name> <path>", help: "register a directory", run: (*Shell).cmdAdd},
		{name: "pick", args: "[name]", help: "choose a directory with the server's folder picker and register it", run: (*Shell).cmdPick},
		{name: "rm", args: "<name>", help: "unregister a directory", run: (*Shell).cmdRemove},
		{name: "cancel", args: "[name]", help: "stop initializing a directory", run: (*Shell).cmdCancel},
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
		for _, a := range c.alias {
			if a == name {
				return c, true
			}
		}
	}
	return command{}, false
}

// Execute runs one line of input. It reports whether the shell should exit.
func (sh *Shell) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return false, sh.search(ctx, line)
	}

	fields := strings.Fields(line)
	cmd, ok := lookup(strings.TrimPrefix(fields[0], "/"))
	if !ok {
		return false, fmt.Errorf("unknown command %s, try /help", fields[0])
	}
	return cmd.run(sh, ctx, fields[1:])
}

// viewer returns the viewer if the current directory can be browsed,
// leaving the directory selector if needed.
func (sh *Shell) viewer() (*session.Viewer, error) {
	if sh.session.View() == session.ViewSelector {
		if err := sh.session.ShowViewer(); err != nil {
			return nil, err
		}
	}
	if r := sh.session.Readiness(); r.State != session.StateReady {
		return nil, errors.New(r.Message())
	}
	return sh.session.Viewer(), nil
}

func (sh *Shell) search(ctx context.Context, query string) error {
	v, err := sh.viewer()
	if err != nil {
		return err
	}
	if query == "" {
		_, err = v.EmptyEnter(ctx)
	} else {
		err = v.Submit(ctx, query)
	}
	return sh.refresh(ctx, err)
}

// refresh prints the first page after a view change. A superseded change is
// not an error; the newer one prints.
func (sh *Shell) refresh(ctx context.Context, err error) error {
	if errors.Is(err, pagination.ErrSuperseded) {
		return nil
	}
	if err != nil {
		return err
	}
	sh.mu.Lock()
	sh.offset = 0
	sh.mu.Unlock()
	sh.show(ctx)
	return nil
}

// index parses a 1-based result number.
func index(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errors.New("missing result number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid result number %q", args[0])
	}
	return n - 1, nil
}

func (sh *Shell) item(args []string) (*session.Viewer, int, api.ScoredFile, error) {
	v, err := sh.viewer()
	if err != nil {
		return nil, 0, api.ScoredFile{}, err
	}
	i, err := index(args)
	if err != nil {
		return nil, 0, api.ScoredFile{}, err
	}
	item, ok := v.Item(i)
	if !ok {
		return nil, 0, api.ScoredFile{}, fmt.Errorf("result %d is not loaded", i+1)
	}
	return v, i, item, nil
}

func (sh *Shell) cmdHelp(context.Context, []string) (bool, error) {
	sh.printf("Type a search and press Enter; Tab completes @tags. An empty line shows all files.\n")
	for _, c := range commands {
		usage := "/" + c.name
		if c.args != "" {
			usage += " " + c.args
		}
		sh.printf("  %-32s %s\n", usage, c.help)
	}
	return false, nil
}

func (sh *Shell) cmdQuit(context.Context, []string) (bool, error) {
	return true, nil
}

func (sh *Shell) cmdBack(ctx context.Context, _ []string) (bool, error) {
	v, err := sh.viewer()
	if err != nil {
		return false, err
	}
	ok, err := v.GoBack(ctx)
	if !ok && err == nil {
		sh.printf("Nothing to go back to.\n")
		return false, nil
	}
	return false, sh.refresh(ctx, err)
}

func (sh *Shell) cmdShow(ctx context.Context, _ []string) (bool, error) {
	sh.show(ctx)
	return false, nil
}

func (sh *Shell) cmdMore(ctx context.Context, _ []string) (bool, error) {
	return false, sh.page(ctx, 1)
}

func (sh *Shell) cmdPrev(ctx context.Context, _ []string) (bool, error) {
	return false, sh.page(ctx, -1)
}

func (sh *Shell) page(ctx context.Context, delta int) error {
	v, err := sh.viewer()
	if err != nil {
		return err
	}
	sh.mu.Lock()
	size := sh.density.PageSize()
	next := sh.offset + delta*size
	if next < 0 || next >= v.Total() {
		sh.mu.Unlock()
		return errors.New("no more results")
	}
	sh.offset = next
	sh.mu.Unlock()
	sh.show(ctx)
	return nil
}

func (sh *Shell) cmdSimilar(ctx context.Context, args []string) (bool, error) {
	v, i, item, err := sh.item(args)
	if err != nil {
		return false, err
	}
	variants := api.AvailableVariants(item.File)
	if len(variants) == 0 {
		return false, fmt.Errorf("no similarity search applies to %s", item.File.Name)
	}
	if len(args) < 2 {
		sh.printf("Similarity searches for %s:\n", item.File.Name)
		for n, variant := range variants {
			sh.printf("  %d. %-24s %s\n", n+1, variant, variant.Caption())
		}
		return false, nil
	}

	variant := api.Variant(args[1])
	if n, err := strconv.Atoi(args[1]); err == nil {
		if n < 1 || n > len(variants) {
			return false, fmt.Errorf("choose a variant between 1 and %d", len(variants))
		}
		variant = variants[n-1]
	}
	return false, sh.refresh(ctx, v.SimilarTo(ctx, i, variant))
}

func (sh *Shell) cmdPaste(ctx context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		return false, errors.New("missing image file")
	}
	v, err := sh.viewer()
	if err != nil {
		return false, err
	}
	img, err := media.PreparePastedFile(strings.Join(args, " "))
	if err != nil {
		return false, err
	}
	return false, sh.refresh(ctx, v.RunSemantic(ctx, history.ImageTarget(img), api.SimilarToPasted))
}

func (sh *Shell) cmdThumb(ctx context.Context, args []string) (bool, error) {
	v, _, item, err := sh.item(args)
	if err != nil {
		return false, err
	}
	if item.File.ThumbnailBase64 == "" {
		return false, fmt.Errorf("%s has no thumbnail", item.File.Name)
	}
	img, err := media.ThumbnailAsPasted(item.File.ThumbnailBase64)
	if err != nil {
		return false, err
	}
	return false, sh.refresh(ctx, v.RunSemantic(ctx, history.ImageTarget(img), api.SimilarToPasted))
}

func (sh *Shell) cmdInfo(_ context.Context, args []string) (bool, error) {
	_, i, item, err := sh.item(args)
	if err != nil {
		return false, err
	}
	f := item.File
	sh.printf("#%d %s (id %d, %s)\n", i+1, f.Name, f.ID, f.FileType)
	if caption := item.Caption(); caption != "" {
		sh.printf("  scores:      %s\n", caption)
	}
	fields := []struct{ label, value string }{
		{"description", f.Description},
		{"ocr text", f.OCRText},
		{"transcript", f.Transcript},
		{"llm", f.LLMDescription},
	}
	for _, field := range fields {
		if field.value != "" {
			sh.printf("  %-12s %s\n", field.label+":", field.value)
		}
	}
	if f.IsScreenshot {
		sh.printf("  screenshot\n")
	}
	if f.ThumbnailBase64 != "" {
		info, err := media.InspectThumbnail(f.ThumbnailBase64)
		if err != nil {
			sh.printf("  thumbnail:   unreadable (%v)\n", err)
		} else {
			sh.printf("  thumbnail:   %s\n", info)
		}
	}
	return false, nil
}

func (sh *Shell) cmdOpen(ctx context.Context, args []string) (bool, error) {
	v, i, item, err := sh.item(args)
	if err != nil {
		return false, err
	}
	if err := v.OpenItem(ctx, i); err != nil {
		return false, err
	}
	sh.printf("Opened %s.\n", item.File.Name)
	return false, nil
}

func (sh *Shell) cmdReveal(ctx context.Context, args []string) (bool, error) {
	v, i, item, err := sh.item(args)
	if err != nil {
		return false, err
	}
	if err := v.Reveal(ctx, i); err != nil {
		return false, err
	}
	sh.printf("Revealed %s.\n", item.File.Name)
	return false, nil
}

func (sh *Shell) cmdHistory(context.Context, []string) (bool, error) {
	trail := sh.session.Viewer().History()
	if len(trail) == 0 {
		sh.printf("No searches yet.\n")
		return false, nil
	}
	for n := len(trail) - 1; n >= 0; n-- {
		sh.printf("  %d. %s\n", n+1, trail[n])
	}
	return false, nil
}

func (sh *Shell) cmdTags(_ context.Context, args []string) (bool, error) {
	query := strings.Join(args, " ")
	if query == "" {
		for _, tag := range suggest.Vocabulary() {
			sh.printf("  %s%-6s %s\n", suggest.Sigil, tag, suggest.Describe(tag))
		}
		return false, nil
	}

	suggestions := suggest.ForQuery(query)
	if len(suggestions) == 0 {
		sh.printf("No tag completions for %q.\n", query)
		return false, nil
	}
	for _, s := range suggestions {
		sh.printf("  %s%-6s %s\n", suggest.Sigil, s.Tag, suggest.Describe(s.Tag))
	}
	return false, nil
}

func (sh *Shell) cmdDensity(ctx context.Context, args []string) (bool, error) {
	sh.mu.Lock()
	current := sh.density
	sh.mu.Unlock()

	if len(args) == 0 {
		sh.printf("Density %s, %d results per page.\n", current, current.PageSize())
		return false, nil
	}

	next := settings.Density(args[0])
	switch args[0] {
	case "+":
		next = current.Higher()
	case "-":
		next = current.Lower()
	}
	if err := sh.session.Preferences().SetGridDensity(ctx, next); err != nil {
		return false, err
	}

	sh.mu.Lock()
	sh.density = next
	sh.offset -= sh.offset % next.PageSize()
	sh.mu.Unlock()
	sh.printf("Density %s, %d results per page.\n", next, next.PageSize())
	return false, nil
}

func (sh *Shell) cmdDirs(ctx context.Context, _ []string) (bool, error) {
	sh.printDirectories(ctx)
	return false, nil
}

func (sh *Shell) cmdUse(ctx context.Context, args []string) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: /use <name>")
	}
	return false, sh.refresh(ctx, sh.session.SwitchDirectory(ctx, args[0]))
}

func (sh *Shell) cmdDefault(ctx context.Context, args []string) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: /default <name>")
	}
	if err := sh.session.SetDefault(ctx, args[0]); err != nil {
		return false, err
	}
	sh.printf("%s will open on start.\n", args[0])
	return false, nil
}

func (sh *Shell) cmdAdd(ctx context.Context, args []string) (bool, error) {
	if len(args) < 2 {
		return false, errors.New("usage: /add <name> <path>")
	}
	return false, sh.register(ctx, api.NewRegisterRequest(args[0], strings.Join(args[1:], " ")))
}

func (sh *Shell) cmdPick(ctx context.Context, args []string) (bool, error) {
	req := api.NewRegisterRequest(strings.Join(args, " "), "")
	req, err := sh.session.PickDirectory(ctx, req)
	if err != nil {
		return false, err
	}
	if req.Path == "" {
		sh.printf("No directory chosen.\n")
		return false, nil
	}
	return false, sh.register(ctx, req)
}

func (sh *Shell) register(ctx context.Context, req api.RegisterRequest) error {
	status, err := sh.session.Register(ctx, req)
	if err != nil {
		return err
	}
	sh.printf("Registered %s: %s\n", status.Name, describeStatus(status))
	return sh.refresh(ctx, nil)
}

func (sh *Shell) cmdRemove(ctx context.Context, args []string) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: /rm <name>")
	}
	if err := sh.session.Unregister(ctx, args[0]); err != nil {
		return false, err
	}
	sh.printf("Unregistered %s.\n", args[0])
	return false, sh.refresh(ctx, nil)
}

func (sh *Shell) cmdCancel(ctx context.Context, args []string) (bool, error) {
	name := strings.Join(args, " ")
	if err := sh.session.CancelInitialization(ctx, name); err != nil {
		return false, err
	}
	if name == "" {
		name = sh.session.Directory()
	}
	sh.printf("Asked the server to stop initializing %s.\n", name)
	return false, nil
}

// commandNames lists command names and aliases in order.
func commandNames() []string {
	var names []string
	for _, c := range commands {
		names = append(names, c.name)
		names = append(names, c.alias...)
	}
	sort.Strings(names)
	return names
}
