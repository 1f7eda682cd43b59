package app

import (
	"testing"

	"mailsnap/pkg/store"
)

func newTestRegistry(s store.Store) *processorRegistry {
	resolver := newEntityResolver(s)
	return newProcessorRegistry(
		newMessagesProcessor(s, resolver),
		newFoldersProcessor(s),
	)
}

func TestRegistryDispatch(t *testing.T) {
	reg := newTestRegistry(store.NewMemoryStore())

	cases := []struct {
		file string
		want string
	}{
		{"messages.json", "MESSAGES"},
		{"export-messages-2024.json", "MESSAGES"},
		{"folders.json", "FOLDERS"},
		{"export-folders.json", "FOLDERS"},
	}
	for _, tc := range cases {
		p := reg.Find(tc.file)
		if p == nil {
			t.Fatalf("Find(%q) = nil", tc.file)
		}
		if p.FileType() != tc.want {
			t.Fatalf("Find(%q).FileType() = %q, want %q", tc.file, p.FileType(), tc.want)
		}
	}
}

func TestRegistryNoMatch(t *testing.T) {
	reg := newTestRegistry(store.NewMemoryStore())
	for _, file := range []string{"cookies.json", "messages.txt", "localstorage.json", "readme.md"} {
		if p := reg.Find(file); p != nil {
			t.Fatalf("Find(%q) = %v, want nil", file, p.FileType())
		}
	}
}

func TestFileTypeTag(t *testing.T) {
	cases := map[string]string{
		"messages.json":     "MESSAGES",
		"folders.json":      "FOLDERS",
		"cookies.json":      "COOKIES",
		"localstorage.json": "LOCALSTORAGE",
		"random.bin":        "UNKNOWN",
	}
	for file, want := range cases {
		if got := fileTypeTag(file); got != want {
			t.Fatalf("fileTypeTag(%q) = %q, want %q", file, got, want)
		}
	}
}
