package cli

import (
	"io"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := map[string]bool{
		"log":        false,
		"layout":     false,
		"render":     false,
		"preview":    false,
		"serve":      false,
		"cache":      false,
		"completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"text"}},
		{"svg", []string{"svg"}},
		{"text,dot,json", []string{"text", "dot", "json"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseHeads(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"abc", []string{"abc"}},
		{"abc, def ,", []string{"abc", "def"}},
	}
	for _, tt := range tests {
		if got := parseHeads(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseHeads(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCacheDirRespectsXDG(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", tmp)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error = %v", err)
	}
	if want := filepath.Join(tmp, appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	if got := defaultOutputPath("graph.layout.json", "svg"); got != "graph.layout.svg" {
		t.Errorf("defaultOutputPath() = %q, want graph.layout.svg", got)
	}
	if got := defaultOutputPath("layout.json", "preview.json"); got != "layout.preview.json" {
		t.Errorf("defaultOutputPath() = %q, want layout.preview.json", got)
	}
}
