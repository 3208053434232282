package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"media-explorer/internal/api"
	"media-explorer/internal/apitest"
	"media-explorer/internal/mediatypes"
	"media-explorer/internal/startup"

	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, srv *apitest.Server, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	root.SetArgs(append([]string{"--server", srv.URL}, args...))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, srv *apitest.Server, args ...string) string {
	t.Helper()
	out, err := execute(t, srv, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestDirs(t *testing.T) {
	srv := apitest.New(t)

	if out := mustExecute(t, srv, "dirs"); !strings.Contains(out, "no directories registered") {
		t.Errorf("empty output: %q", out)
	}

	srv.SetDirectories(
		api.DirectoryStatus{Name: "photos", Ready: true},
		api.DirectoryStatus{Name: "music", InitProgress: 0.25, InitProgressDescription: "transcribing"},
		api.DirectoryStatus{Name: "old", Failed: true, InitProgressDescription: "path not found"},
	)

	out := mustExecute(t, srv, "dirs")
	for _, want := range []string{"photos", "ready", "initializing 25% transcribing", "failed: path not found"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	var dirs []api.DirectoryStatus
	if err := json.Unmarshal([]byte(mustExecute(t, srv, "dirs", "-o", "json")), &dirs); err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 3 || dirs[1].Name != "music" {
		t.Errorf("json dirs = %+v", dirs)
	}

	var generic []map[string]interface{}
	if err := yaml.Unmarshal([]byte(mustExecute(t, srv, "dirs", "--output", "yaml")), &generic); err != nil {
		t.Fatal(err)
	}
	if len(generic) != 3 || generic[0]["name"] != "photos" {
		t.Errorf("yaml dirs = %+v", generic)
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	srv := apitest.New(t)
	if _, err := execute(t, srv, "dirs", "-o", "xml"); err == nil {
		t.Error("xml output accepted")
	}
	if srv.Requests(apitest.RouteListDirectories) != 0 {
		t.Error("request sent before flag validation")
	}
}

func TestDirectoryLifecycle(t *testing.T) {
	srv := apitest.New(t)

	out := mustExecute(t, srv, "register", "photos", "/data/photos", "--lang", "pl", "--llm")
	if !strings.Contains(out, "registered photos: initializing 0% queued") {
		t.Errorf("register output: %q", out)
	}
	want := api.RegisterRequest{Name: "photos", Path: "/data/photos", PrimaryLanguage: "pl", ShouldGenerateLLMDescriptions: true}
	if got := srv.Registered(); len(got) != 1 || got[0] != want {
		t.Errorf("registered = %+v", got)
	}

	if _, err := execute(t, srv, "register", "photos", "/elsewhere"); err == nil {
		t.Error("duplicate registration succeeded")
	}
	if _, err := execute(t, srv, "register", "photos"); err == nil {
		t.Error("missing path accepted")
	}

	mustExecute(t, srv, "cancel", "photos")
	mustExecute(t, srv, "unregister", "photos")
	if !reflect.DeepEqual(srv.Canceled(), []string{"photos"}) || !reflect.DeepEqual(srv.Unregistered(), []string{"photos"}) {
		t.Errorf("canceled %v unregistered %v", srv.Canceled(), srv.Unregistered())
	}
	if _, err := execute(t, srv, "unregister", "photos"); err == nil {
		t.Error("unregistering a missing directory succeeded")
	}
}

func TestPick(t *testing.T) {
	srv := apitest.New(t)
	if out := mustExecute(t, srv, "pick"); !strings.Contains(out, "no directory chosen") {
		t.Errorf("canceled output: %q", out)
	}
	srv.SetPicker(api.SelectDirectoryResponse{SelectedPath: "/data/music"})
	if out := mustExecute(t, srv, "pick"); strings.TrimSpace(out) != "/data/music" {
		t.Errorf("picked output: %q", out)
	}
}

func TestListAndSearch(t *testing.T) {
	srv := apitest.New(t)
	srv.SetDirectories(api.DirectoryStatus{Name: "photos", Ready: true})
	srv.SetFiles("photos", []api.FileMetadata{
		{ID: 1, Name: "beach.jpg", FileType: mediatypes.FileTypeImage},
		{ID: 2, Name: "beach.mp4", FileType: mediatypes.FileTypeVideo},
		{ID: 3, Name: "city.jpg", FileType: mediatypes.FileTypeImage},
	})

	out := mustExecute(t, srv, "ls", "photos", "--offset", "1", "--limit", "1")
	if !strings.Contains(out, "[vid] beach.mp4") || !strings.Contains(out, "2-2 of 3") {
		t.Errorf("ls output:\n%s", out)
	}
	if got := srv.DirectoryHeaders(apitest.RouteListFiles); !reflect.DeepEqual(got, []string{"photos"}) {
		t.Errorf("directory headers = %v", got)
	}

	out = mustExecute(t, srv, "search", "photos", "@video", "beach")
	if !strings.Contains(out, "beach.mp4  (s: 1 l: 1 d: none)") || strings.Contains(out, "beach.jpg") {
		t.Errorf("search output:\n%s", out)
	}

	var page api.SearchPage
	if err := json.Unmarshal([]byte(mustExecute(t, srv, "search", "photos", "nothing", "-o", "json")), &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 0 {
		t.Errorf("page = %+v", page)
	}

	if _, err := execute(t, srv, "ls", "missing"); err == nil {
		t.Error("listing an unknown directory succeeded")
	}
}

func TestSimilar(t *testing.T) {
	srv := apitest.New(t)
	srv.SetDirectories(api.DirectoryStatus{Name: "photos", Ready: true})
	srv.GenerateFiles("photos", 3)

	out := mustExecute(t, srv, "similar", "photos", "--file", "1", "--variant", "similar-images")
	if !strings.Contains(out, "file-2.jpg") || !strings.Contains(out, "2 results") {
		t.Errorf("similar output:\n%s", out)
	}
	if srv.Requests(apitest.RouteSimilar(api.SimilarImages)) != 1 {
		t.Error("similar-images not called")
	}

	path := filepath.Join(t.TempDir(), "query.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	out = mustExecute(t, srv, "similar", "photos", "--image", path)
	if !strings.Contains(out, "3 results") || srv.Requests(apitest.RouteSimilarToImage) != 1 {
		t.Errorf("similar-to-image output:\n%s", out)
	}

	bad := [][]string{
		{"similar", "photos"},
		{"similar", "photos", "--file", "1", "--image", path},
		{"similar", "photos", "--file", "1", "--variant", "similar-to-pasted"},
		{"similar", "photos", "--file", "1", "--variant", "nope"},
	}
	for _, args := range bad {
		if _, err := execute(t, srv, args...); err == nil {
			t.Errorf("%v succeeded", args)
		}
	}
}

func TestSuggest(t *testing.T) {
	srv := apitest.New(t)

	out := mustExecute(t, srv, "suggest", "beach", "@s")
	if !strings.Contains(out, "@sem") || !strings.Contains(out, "@ss") {
		t.Errorf("suggest output:\n%s", out)
	}

	var got []suggestion
	if err := json.Unmarshal([]byte(mustExecute(t, srv, "suggest", "@lex @ima", "-o", "json")), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Tag != "image" || got[0].Completion != "@lex @image " {
		t.Errorf("suggestions = %+v", got)
	}

	if out := mustExecute(t, srv, "suggest", "beach"); !strings.Contains(out, "no completions") {
		t.Errorf("output: %q", out)
	}
	if srv.Requests(apitest.RouteListDirectories) != 0 {
		t.Error("suggest contacted the server")
	}
}

func TestVersion(t *testing.T) {
	srv := apitest.New(t)

	var info startup.BuildInfo
	if err := json.Unmarshal([]byte(mustExecute(t, srv, "version", "-o", "json")), &info); err != nil {
		t.Fatal(err)
	}
	if info.Version != startup.Version {
		t.Errorf("version = %+v", info)
	}
	if out := mustExecute(t, srv, "version"); !strings.HasPrefix(out, "explorerctl "+startup.Version) {
		t.Errorf("output: %q", out)
	}
}
