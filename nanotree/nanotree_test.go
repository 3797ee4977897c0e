package nanotree

import (
	"errors"
	"testing"

	"github.com/arthur-debert/nanotree/nanotree/storage"
	"github.com/arthur-debert/nanotree/testutil"
	"github.com/arthur-debert/nanotree/types"
)

const path = "/work/screens.json"

func openMock(t *testing.T, fsys *storage.MockFileSystem, opts ...Option) *Editor {
	t.Helper()
	opts = append(opts, WithStorageOptions(
		storage.WithFileSystem(fsys),
		storage.WithFileLockFactory(storage.NewMockFileLockFactory()),
	))
	ed, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return ed
}

func seeded(t *testing.T) *storage.MockFileSystem {
	t.Helper()
	fsys := storage.NewMockFileSystem()
	if err := fsys.WriteFile(path, testutil.ScreensJSON(), 0o644); err != nil {
		t.Fatal(err)
	}
	return fsys
}

func reload(t *testing.T, fsys *storage.MockFileSystem) []*types.Node {
	t.Helper()
	data, ok := fsys.Content(path)
	if !ok {
		t.Fatal("document missing")
	}
	forest, err := types.DecodeDocument(data)
	if err != nil {
		t.Fatal(err)
	}
	return forest
}

func TestOpenLoadsDocument(t *testing.T) {
	ed := openMock(t, seeded(t))
	defer func() { _ = ed.Close() }()

	if got := len(ed.Session().Types()); got != 3 {
		t.Errorf("expected 3 types, got %d", got)
	}
	if ed.Path() != path {
		t.Errorf("path = %s", ed.Path())
	}
}

func TestOpenMissingDocument(t *testing.T) {
	fsys := storage.NewMockFileSystem()
	ed := openMock(t, fsys, WithAutosaveDelay(-1))
	if len(ed.Session().Forest()) != 0 {
		t.Error("missing document should open empty")
	}
	id, _ := ed.Session().NextRootID()
	if err := ed.Session().AddRoot(NewStandard(id, "Card", "Card")); err != nil {
		t.Fatal(err)
	}
	if err := ed.Close(); err != nil {
		t.Fatal(err)
	}
	if fsys.Exists(path) {
		t.Error("autosave is off; Close must not write")
	}
}

func TestAutosave(t *testing.T) {
	fsys := seeded(t)
	ed := openMock(t, fsys, WithAutosaveDelay(0))

	if err := ed.Session().UpdateNode("01", NodeUpdate{Name: ptr("Tile")}); err != nil {
		t.Fatal(err)
	}
	forest := reload(t, fsys)
	if forest[0].Name != "Tile" {
		t.Errorf("change should be saved, got %s", forest[0].Name)
	}
	if slot := testutil.MustFind(t, forest, "0202"); slot.RootType() != "Tile" {
		t.Errorf("saved reference should follow the rename, got %s", slot.RootType())
	}
	if err := ed.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCloseFlushes(t *testing.T) {
	fsys := seeded(t)
	ed := openMock(t, fsys)
	writes := fsys.Writes

	_ = ed.Session().DeleteNode("03")
	if err := ed.Close(); err != nil {
		t.Fatal(err)
	}
	if fsys.Writes != writes+1 {
		t.Errorf("Close should flush exactly one save, got %d", fsys.Writes-writes)
	}
	if len(reload(t, fsys)) != 2 {
		t.Error("saved document should have two roots")
	}
}

func TestSave(t *testing.T) {
	fsys := seeded(t)
	ed := openMock(t, fsys, WithAutosaveDelay(-1))
	defer func() { _ = ed.Close() }()

	// The fixture is hand formatted, so the first save rewrites it.
	if _, err := ed.Save(); err != nil {
		t.Fatal(err)
	}
	written, err := ed.Save()
	if err != nil || written {
		t.Errorf("unchanged forest should not be written again: %v, %v", written, err)
	}
	d1, _ := ed.Digest()
	_ = ed.Session().DeleteNode("0301")
	d2, _ := ed.Digest()
	if d1 == d2 {
		t.Error("digest should change with the forest")
	}
}

func TestOpenRejectsCycles(t *testing.T) {
	fsys := storage.NewMockFileSystem()
	_ = fsys.WriteFile(path, []byte(`[{"id":"01","name":"Card","type":"Card","children":[
		{"id":"0101","name":"Loop","type":"Card","isVirtual":true,"referencedRootType":"Card","children":[]}
	]}]`), 0o644)
	_, err := Open(path, WithStorageOptions(
		storage.WithFileSystem(fsys),
		storage.WithFileLockFactory(storage.NewMockFileLockFactory()),
	))
	if !errors.Is(err, types.ErrCycleDenied) {
		t.Errorf("expected ErrCycleDenied, got %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
