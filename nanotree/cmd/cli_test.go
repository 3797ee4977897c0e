package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/nanotree/testutil"
	"github.com/arthur-debert/nanotree/types"
	"github.com/google/go-cmp/cmp"
)

// setupDoc isolates the CLI from the user's environment and writes the
// screens fixture to a temporary document.
func setupDoc(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("NANOTREE_CONFIG", "")
	t.Setenv("NANOTREE_DOC", "")
	t.Setenv("NANOTREE_FORMAT", "")

	doc := filepath.Join(dir, "screens.json")
	if err := os.WriteFile(doc, testutil.ScreensJSON(), 0o644); err != nil {
		t.Fatal(err)
	}
	return doc
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cli := NewCLI()
	var out bytes.Buffer
	cli.out = &out
	cli.rootCmd.SetOut(&out)
	cli.rootCmd.SetErr(&out)
	cli.rootCmd.SetArgs(args)
	err := cli.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("nanotree %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func load(t *testing.T, doc string) []*types.Node {
	t.Helper()
	data, err := os.ReadFile(doc)
	if err != nil {
		t.Fatal(err)
	}
	forest, err := types.DecodeDocument(data)
	if err != nil {
		t.Fatal(err)
	}
	return forest
}

func TestShow(t *testing.T) {
	doc := setupDoc(t)

	t.Run("outline", func(t *testing.T) {
		out := mustRun(t, "--doc", doc, "show")
		for _, line := range []string{
			"01 Card <Card> Vertical\n",
			"  0101 Title <Label>\n",
			"  0201 Header <View> Horizontal\n",
			"    020101 Logo <Image>\n",
			"  0202 CardSlot <Card> Reference -> Card\n",
			"03 Settings <Screen>\n",
		} {
			if !strings.Contains(out, line) {
				t.Errorf("outline missing %q:\n%s", line, out)
			}
		}
	})

	t.Run("one node as json", func(t *testing.T) {
		out := mustRun(t, "--doc", doc, "--format", "json", "show", "0201")
		forest, err := types.DecodeDocument([]byte(out))
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertOutline(t, forest, "0201:Header", "020101:Logo")
	})

	t.Run("expanded reference", func(t *testing.T) {
		out := mustRun(t, "--doc", doc, "show", "--expand", "0202")
		if strings.Contains(out, "Reference") {
			t.Errorf("expanded node should be standard:\n%s", out)
		}
		if !strings.Contains(out, "  0101 Title <Label>\n") {
			t.Errorf("expected Card's children inline:\n%s", out)
		}
	})

	t.Run("digest", func(t *testing.T) {
		out := strings.TrimSpace(mustRun(t, "--doc", doc, "show", "--digest"))
		if len(out) != 64 {
			t.Errorf("expected a hex blake3 digest, got %q", out)
		}
	})

	t.Run("unknown node", func(t *testing.T) {
		_, err := run(t, "--doc", doc, "show", "0909")
		if !errors.Is(err, types.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAddCommands(t *testing.T) {
	doc := setupDoc(t)

	if out := mustRun(t, "--doc", doc, "add-root", "--name", "Dialog", "--layout", "vertical"); out != "04\n" {
		t.Errorf("add-root printed %q", out)
	}
	if out := mustRun(t, "--doc", doc, "add-child", "04", "--name", "OK", "--type", "Button",
		"--set", "text=OK", "--set", "enabled=true"); out != "0401\n" {
		t.Errorf("add-child printed %q", out)
	}
	if out := mustRun(t, "--doc", doc, "add-child", "04", "--name", "Preview", "--ref", "Card"); out != "0402\n" {
		t.Errorf("add-child printed %q", out)
	}

	forest := load(t, doc)
	dialog := testutil.AssertNamedOnce(t, forest, "Dialog")
	if dialog.Layout != types.LayoutVertical || dialog.Type != "Dialog" {
		t.Errorf("unexpected root %+v", dialog)
	}
	ok := testutil.MustFind(t, forest, "0401")
	if diff := cmp.Diff(map[string]any{"text": "OK", "enabled": true}, ok.Attributes); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
	if preview := testutil.MustFind(t, forest, "0402"); preview.RootType() != "Card" || preview.Type != "Card" {
		t.Errorf("expected a reference to Card, got %+v", preview)
	}

	t.Run("reference nodes own no children", func(t *testing.T) {
		if _, err := run(t, "--doc", doc, "add-child", "0202", "--name", "Oops"); !errors.Is(err, types.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("name is required", func(t *testing.T) {
		if _, err := run(t, "--doc", doc, "add-root"); err == nil {
			t.Error("expected an error without --name")
		}
	})
}

func TestUpdate(t *testing.T) {
	doc := setupDoc(t)

	mustRun(t, "--doc", doc, "update", "01", "--name", "Tile")
	forest := load(t, doc)
	if forest[0].Name != "Tile" {
		t.Errorf("root not renamed: %s", forest[0].Name)
	}
	if slot := testutil.MustFind(t, forest, "0202"); slot.RootType() != "Tile" {
		t.Errorf("reference should follow the rename, got %s", slot.RootType())
	}

	mustRun(t, "--doc", doc, "update", "0101", "--set", "fontSize=20", "--unset", "text")
	title := testutil.MustFind(t, load(t, doc), "0101")
	if diff := cmp.Diff(map[string]any{"fontSize": float64(20)}, title.Attributes); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}

	mustRun(t, "--doc", doc, "update", "0102", "--json", `{"constraintPackages": []}`)
	if body := testutil.MustFind(t, load(t, doc), "0102"); len(body.ConstraintPackages) != 0 {
		t.Errorf("constraint packages should be replaced, got %v", body.ConstraintPackages)
	}

	t.Run("empty update", func(t *testing.T) {
		_, err := run(t, "--doc", doc, "update", "0101")
		if err == nil || !strings.Contains(err.Error(), "nothing to update") {
			t.Errorf("expected a nothing-to-update error, got %v", err)
		}
	})

	t.Run("bad layout", func(t *testing.T) {
		if _, err := run(t, "--doc", doc, "update", "0101", "--layout", "diagonal"); err == nil {
			t.Error("expected an invalid layout error")
		}
	})
}

func TestDelete(t *testing.T) {
	doc := setupDoc(t)

	mustRun(t, "--doc", doc, "delete", "03")
	if got := len(load(t, doc)); got != 2 {
		t.Fatalf("expected 2 roots, got %d", got)
	}

	_, err := run(t, "--doc", doc, "--dangling-policy", "reject", "delete", "01")
	if !errors.Is(err, types.ErrReferencedRoot) {
		t.Fatalf("expected ErrReferencedRoot, got %v", err)
	}
	if !strings.Contains(err.Error(), "Suggestions:") {
		t.Errorf("error should carry suggestions:\n%v", err)
	}
	if got := len(load(t, doc)); got != 2 {
		t.Errorf("rejected delete changed the document: %d roots", got)
	}

	if _, err := run(t, "--doc", doc, "--dangling-policy", "sometimes", "delete", "01"); err == nil {
		t.Error("expected an unknown policy error")
	}
}

func TestDryRun(t *testing.T) {
	doc := setupDoc(t)

	out := mustRun(t, "--doc", doc, "--dry-run", "delete", "03")
	if !strings.Contains(out, "dry run") {
		t.Errorf("expected a dry run notice, got %q", out)
	}
	data, _ := os.ReadFile(doc)
	if !bytes.Equal(data, testutil.ScreensJSON()) {
		t.Error("dry run must not touch the document")
	}
}

func TestMove(t *testing.T) {
	doc := setupDoc(t)

	mustRun(t, "--doc", doc, "move", "0101", "02")
	forest := load(t, doc)
	if title := testutil.MustFind(t, forest, "0204"); title.Name != "Title" {
		t.Errorf("expected Title at 0204, got %s", title.Name)
	}
	body := testutil.MustFind(t, forest, "0101")
	if body.Name != "Body" {
		t.Fatalf("expected Body renumbered to 0101, got %s", body.Name)
	}
	if got := testutil.PinTarget(body); got != "0204" {
		t.Errorf("Body's constraint should follow Title to 0204, got %q", got)
	}
	testutil.AssertConsistent(t, forest)

	if _, err := run(t, "--doc", doc, "move", "01", "0101"); !errors.Is(err, types.ErrCycleDenied) {
		t.Errorf("expected ErrCycleDenied, got %v", err)
	}
}

func TestApply(t *testing.T) {
	t.Run("batch", func(t *testing.T) {
		doc := setupDoc(t)
		cmds := filepath.Join(filepath.Dir(doc), "cmds.json")
		_ = os.WriteFile(cmds, []byte(`[
			{"action":"update","nodeId":"0101","updates":{"name":"Heading"}},
			{"action":"delete","nodeId":"03"}
		]`), 0o644)

		out := mustRun(t, "--doc", doc, "apply", cmds)
		if out != "applied 2 of 2 command(s)\n" {
			t.Errorf("unexpected output %q", out)
		}
		forest := load(t, doc)
		if len(forest) != 2 || testutil.MustFind(t, forest, "0101").Name != "Heading" {
			t.Errorf("batch not applied: %v", testutil.Outline(forest))
		}
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		doc := setupDoc(t)
		cmds := filepath.Join(filepath.Dir(doc), "cmds.json")
		_ = os.WriteFile(cmds, []byte(`[
			{"action":"delete","nodeId":"03"},
			{"action":"delete","nodeId":"0909"}
		]`), 0o644)

		out, err := run(t, "--doc", doc, "apply", cmds)
		if !errors.Is(err, types.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if !strings.Contains(out, "applied 1 of 2") {
			t.Errorf("unexpected output %q", out)
		}
		if got := len(load(t, doc)); got != 2 {
			t.Errorf("first command should stay applied, got %d roots", got)
		}
	})
}

func TestTypesAndCanSelect(t *testing.T) {
	doc := setupDoc(t)

	if out := mustRun(t, "--doc", doc, "types"); out != "Card\nPage\nSettings\n" {
		t.Errorf("types printed %q", out)
	}

	var names []string
	out := mustRun(t, "--doc", doc, "--format", "json", "types")
	if err := json.Unmarshal([]byte(out), &names); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Card", "Page", "Settings"}, names); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}

	if out := mustRun(t, "--doc", doc, "can-select", "020101", "Card"); out != "allowed\n" {
		t.Errorf("expected allowed, got %q", out)
	}
	if out := mustRun(t, "--doc", doc, "can-select", "01", "Card"); !strings.HasPrefix(out, "denied: ") {
		t.Errorf("expected a denial, got %q", out)
	}

	var decision struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}
	out = mustRun(t, "--doc", doc, "--format", "json", "can-select", "0201", "Page")
	if err := json.Unmarshal([]byte(out), &decision); err != nil {
		t.Fatal(err)
	}
	if decision.Allowed || decision.Reason == "" {
		t.Errorf("a node inside Page may not embed Page: %+v", decision)
	}
}

func TestLint(t *testing.T) {
	doc := setupDoc(t)

	if out := mustRun(t, "--doc", doc, "lint"); out != "no findings\n" {
		t.Errorf("fixture should lint clean, got %q", out)
	}

	mustRun(t, "--doc", doc, "delete", "01")
	out := mustRun(t, "--doc", doc, "lint")
	if !strings.Contains(out, `[warning] node 0102: referenced type "Card" does not exist`) {
		t.Errorf("expected a stale reference warning, got %q", out)
	}
}

func TestExportImport(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.json.zst", "out.json"} {
		t.Run(name, func(t *testing.T) {
			doc := setupDoc(t)
			want := testutil.Outline(load(t, doc))
			path := filepath.Join(filepath.Dir(doc), name)

			mustRun(t, "--doc", doc, "export", path)
			mustRun(t, "--doc", doc, "delete", "03")

			out := mustRun(t, "--doc", doc, "import", path)
			if out != "imported 10 node(s)\n" {
				t.Errorf("unexpected output %q", out)
			}
			testutil.AssertOutline(t, load(t, doc), want...)
		})
	}

	t.Run("yaml to stdout", func(t *testing.T) {
		doc := setupDoc(t)
		out := mustRun(t, "--doc", doc, "export", "-", "--as", "yaml")
		if !strings.Contains(out, "name: Card") {
			t.Errorf("expected YAML output:\n%s", out)
		}
	})

	t.Run("unknown extension", func(t *testing.T) {
		doc := setupDoc(t)
		if _, err := run(t, "--doc", doc, "export", filepath.Join(filepath.Dir(doc), "out.txt")); err == nil {
			t.Error("expected a format error")
		}
	})
}

func TestConfiguration(t *testing.T) {
	t.Run("document from the environment", func(t *testing.T) {
		doc := setupDoc(t)
		t.Setenv("NANOTREE_DOC", doc)
		if out := mustRun(t, "types"); out != "Card\nPage\nSettings\n" {
			t.Errorf("types printed %q", out)
		}
	})

	t.Run("config file from NANOTREE_CONFIG", func(t *testing.T) {
		doc := setupDoc(t)
		config := filepath.Join(filepath.Dir(doc), "project.json")
		data, _ := json.Marshal(map[string]any{"doc": doc, "format": "json", "dangling-policy": "reject"})
		_ = os.WriteFile(config, data, 0o644)
		t.Setenv("NANOTREE_CONFIG", config)

		var settings map[string]any
		if err := json.Unmarshal([]byte(mustRun(t, "config")), &settings); err != nil {
			t.Fatal(err)
		}
		if settings["doc"] != doc || settings["dangling-policy"] != "reject" || settings["config-file"] != config {
			t.Errorf("config file not applied: %v", settings)
		}
		if _, err := run(t, "delete", "01"); !errors.Is(err, types.ErrReferencedRoot) {
			t.Errorf("policy from the config file should reject, got %v", err)
		}
	})

	t.Run("flags beat the environment", func(t *testing.T) {
		doc := setupDoc(t)
		t.Setenv("NANOTREE_FORMAT", "json")
		if out := mustRun(t, "--doc", doc, "--format", "text", "types"); out != "Card\nPage\nSettings\n" {
			t.Errorf("types printed %q", out)
		}
	})

	t.Run("missing document", func(t *testing.T) {
		setupDoc(t)
		_, err := run(t, "types")
		var cliErr *CLIError
		if !errors.As(err, &cliErr) || !strings.Contains(cliErr.Cause, "no document file") {
			t.Errorf("expected a configuration error, got %v", err)
		}
	})
}

func TestWrapError(t *testing.T) {
	if WrapError("move", nil) != nil {
		t.Error("nil stays nil")
	}

	tests := []struct {
		name  string
		err   error
		cause string
	}{
		{"not found", types.NewNotFoundError("move", "0909"), "node not found"},
		{"cycle", types.NewCycleError("move", "01", "01 contains 0101"), "contain itself"},
		{"validation", types.NewValidationError("add", "01", "name is required"), "invalid data"},
		{"missing file", os.ErrNotExist, "file not found"},
		{"other", errors.New("disk on fire"), "document operation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapError("edit", tt.err)
			var cliErr *CLIError
			if !errors.As(err, &cliErr) {
				t.Fatalf("expected a CLIError, got %T", err)
			}
			if !strings.Contains(cliErr.Cause, tt.cause) {
				t.Errorf("cause %q should mention %q", cliErr.Cause, tt.cause)
			}
			if !errors.Is(err, tt.err) {
				t.Error("the original error must stay in the chain")
			}
		})
	}

	t.Run("keeps an existing CLIError", func(t *testing.T) {
		orig := &CLIError{Cause: "nothing to update"}
		if got := WrapError("update", orig); got != orig || orig.Operation != "update" {
			t.Errorf("expected the same error with its operation filled, got %v", got)
		}
	})
}
