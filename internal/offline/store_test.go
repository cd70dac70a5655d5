package offline

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type entry struct {
	name string
	body string
	dir  bool
}

func tarGz(t *testing.T, entries ...entry) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.dir {
			hdr = &tar.Header{Name: e.name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		if !e.dir {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("Write: %v", err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar Close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip Close: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestStore_PathIsVerbatimConcatenation(t *testing.T) {
	s := NewStore("/cache", "")
	want := "/cache/" + DefaultDirName + string(os.PathSeparator) + "Acadia National Park "
	if got := s.Path("Acadia National Park "); got != want {
		t.Fatalf("Path = %q, want %q", got, want)
	}
	if got := s.Root(); got != filepath.Join("/cache", DefaultDirName) {
		t.Fatalf("Root = %q, want %q", got, filepath.Join("/cache", DefaultDirName))
	}
}

func TestStore_ProvisionIsIdempotent(t *testing.T) {
	s := NewStore(t.TempDir(), "maps")

	created, err := s.Provision()
	if err != nil {
		t.Fatalf("Provision returned error: %v", err)
	}
	if !created {
		t.Fatalf("first Provision created = false, want true")
	}

	created, err = s.Provision()
	if err != nil {
		t.Fatalf("second Provision returned error: %v", err)
	}
	if created {
		t.Fatalf("second Provision created = true, want false")
	}
}

func TestStore_ProvisionFailsWhenRootIsFile(t *testing.T) {
	cache := t.TempDir()
	if err := os.WriteFile(filepath.Join(cache, "maps"), []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := NewStore(cache, "maps").Provision(); err == nil {
		t.Fatalf("Provision returned nil error, want not-a-directory error")
	}
}

func TestStore_ExistsTracksAnyEntry(t *testing.T) {
	s := NewStore(t.TempDir(), "maps")
	if _, err := s.Provision(); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if s.Exists("Acadia") {
		t.Fatalf("Exists(Acadia) = true before download")
	}
	if err := os.Mkdir(s.Path("Acadia"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if !s.Exists("Acadia") {
		t.Fatalf("Exists(Acadia) = false, want true for empty directory")
	}
}

func TestStore_MaterializeExtractsAndReplaces(t *testing.T) {
	s := NewStore(t.TempDir(), "maps")
	ctx := context.Background()

	err := s.Materialize(ctx, "Acadia", tarGz(t,
		entry{name: "p13/", dir: true},
		entry{name: "p13/map.info", body: "v1"},
		entry{name: "package.info", body: "acadia"},
	))
	if err != nil {
		t.Fatalf("Materialize returned error: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(s.Path("Acadia"), "p13", "map.info"))
	if err != nil || string(got) != "v1" {
		t.Fatalf("map.info = %q (%v), want v1", got, err)
	}

	if err := s.Materialize(ctx, "Acadia", tarGz(t, entry{name: "package.info", body: "v2"})); err != nil {
		t.Fatalf("second Materialize returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Path("Acadia"), "p13")); !os.IsNotExist(err) {
		t.Fatalf("stale p13 still present after replace: %v", err)
	}

	entries, err := os.ReadDir(s.Root())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".staging-") {
			t.Fatalf("staging directory %q left behind", e.Name())
		}
	}
}

func TestStore_MaterializeRejectsEscapingEntries(t *testing.T) {
	s := NewStore(t.TempDir(), "maps")
	err := s.Materialize(context.Background(), "Acadia", tarGz(t, entry{name: "../../evil", body: "x"}))
	if err == nil || !strings.Contains(err.Error(), "escapes") {
		t.Fatalf("Materialize error = %v, want escape error", err)
	}
	if s.Exists("Acadia") {
		t.Fatalf("Exists(Acadia) = true after rejected package")
	}
}

func TestStore_MaterializeRejectsCorruptPackage(t *testing.T) {
	s := NewStore(t.TempDir(), "maps")
	err := s.Materialize(context.Background(), "Acadia", bytes.NewReader([]byte("not a gzip stream")))
	if err == nil {
		t.Fatalf("Materialize returned nil error for corrupt package")
	}
	if s.Exists("Acadia") {
		t.Fatalf("Exists(Acadia) = true after corrupt package")
	}
}

func TestStore_RemoveDeletesRecursivelyAndIgnoresMissing(t *testing.T) {
	s := NewStore(t.TempDir(), "maps")
	ctx := context.Background()

	if err := s.Remove(ctx, "Nothing Here"); err != nil {
		t.Fatalf("Remove of missing area returned error: %v", err)
	}

	if err := s.Materialize(ctx, "Baxter", tarGz(t, entry{name: "a/b/c.dat", body: "x"})); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if err := s.Remove(ctx, "Baxter"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if s.Exists("Baxter") {
		t.Fatalf("Exists(Baxter) = true after Remove")
	}
}

func TestStore_RejectsTitlesOutsideTheRoot(t *testing.T) {
	cache := t.TempDir()
	s := NewStore(cache, "maps")
	ctx := context.Background()
	if err := s.Materialize(ctx, "Acadia", tarGz(t, entry{name: "package.info", body: "acadia"})); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	sibling := filepath.Join(cache, "user-data")
	if err := os.Mkdir(sibling, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	titles := []string{"", ".", "..", "../user-data", "Maine/../..", ".lock", ".staging-123", "Maine/../.lock"}
	for _, title := range titles {
		t.Run(title, func(t *testing.T) {
			if s.Exists(title) {
				t.Fatalf("Exists(%q) = true, want false", title)
			}
			if err := s.Remove(ctx, title); !errors.Is(err, ErrInvalidTitle) {
				t.Fatalf("Remove(%q) error = %v, want ErrInvalidTitle", title, err)
			}
			err := s.Materialize(ctx, title, tarGz(t, entry{name: "x", body: "x"}))
			if !errors.Is(err, ErrInvalidTitle) {
				t.Fatalf("Materialize(%q) error = %v, want ErrInvalidTitle", title, err)
			}
		})
	}

	if !s.Exists("Acadia") {
		t.Fatalf("Acadia removed by an invalid-title call")
	}
	if _, err := os.Stat(sibling); err != nil {
		t.Fatalf("directory outside the root was touched: %v", err)
	}
	if _, err := os.Stat(s.Root()); err != nil {
		t.Fatalf("offline root removed: %v", err)
	}
}

func TestStore_AllowsTitlesWithDots(t *testing.T) {
	s := NewStore(t.TempDir(), "maps")
	ctx := context.Background()
	for _, title := range []string{"Mt. Katahdin", "...", "Acadia..Loop"} {
		if err := s.Materialize(ctx, title, tarGz(t, entry{name: "package.info", body: "x"})); err != nil {
			t.Fatalf("Materialize(%q): %v", title, err)
		}
		if !s.Exists(title) {
			t.Fatalf("Exists(%q) = false after Materialize", title)
		}
	}
}
