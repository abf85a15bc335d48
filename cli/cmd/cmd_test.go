package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/dexfetch/dexfetch/iox"
	"github.com/dexfetch/dexfetch/store"
	"github.com/dexfetch/dexfetch/types"
)

func TestParseItems_DefaultBatch(t *testing.T) {
	items, err := parseItems(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != len(DefaultItems) {
		t.Fatalf("got %d items, want %d", len(items), len(DefaultItems))
	}
	for i, name := range DefaultItems {
		if items[i] != types.Item(name) {
			t.Errorf("items[%d] = %q, want %q", i, items[i], name)
		}
	}
}

func TestParseItems_Explicit(t *testing.T) {
	items, err := parseItems([]string{"pikachu", "mr-mime"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0] != "pikachu" || items[1] != "mr-mime" {
		t.Errorf("unexpected items: %v", items)
	}
}

func TestParseItems_InvalidName(t *testing.T) {
	_, err := parseItems([]string{"pikachu", "Mr Mime"})
	if err == nil {
		t.Fatal("expected error for invalid item name")
	}
	if !strings.Contains(err.Error(), "invalid character") {
		t.Errorf("error should mention invalid character, got: %v", err)
	}
}

// newStoreTestApp wires StoreFlags to an action capturing openStore's result.
func newStoreTestApp(st *store.Store, openErr *error) *cli.App {
	app := cli.NewApp()
	app.Flags = StoreFlags()
	app.Action = func(c *cli.Context) error {
		*st, *openErr = openStore(c)
		return nil
	}
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app
}

func TestOpenStore_FSBackend(t *testing.T) {
	dir := t.TempDir()

	var st store.Store
	var openErr error
	app := newStoreTestApp(&st, &openErr)

	if err := app.Run([]string{"test", "--output-dir", dir}); err != nil {
		t.Fatal(err)
	}
	if openErr != nil {
		t.Fatalf("openStore failed: %v", openErr)
	}
	fs, ok := st.(*store.FSStore)
	if !ok {
		t.Fatalf("expected *store.FSStore, got %T", st)
	}
	t.Cleanup(iox.CloseFunc(fs))
	if fs.Root() != dir {
		t.Errorf("Root() = %q, want %q", fs.Root(), dir)
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	var st store.Store
	var openErr error
	app := newStoreTestApp(&st, &openErr)

	if err := app.Run([]string{"test", "--store-backend", "gcs"}); err != nil {
		t.Fatal(err)
	}
	if openErr == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(openErr.Error(), "unknown store-backend") {
		t.Errorf("error should mention unknown store-backend, got: %v", openErr)
	}
}

func TestBuildAdapter_Webhook(t *testing.T) {
	a, err := buildAdapter(&runSettings{
		adapterType: "webhook",
		adapterURL:  "https://hooks.example.com/dexfetch",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = a.Close() }()
}

func TestBuildAdapter_WebhookMissingURL(t *testing.T) {
	_, err := buildAdapter(&runSettings{adapterType: "webhook"})
	if err == nil {
		t.Fatal("expected error for missing webhook URL")
	}
}

func TestBuildAdapter_UnknownType(t *testing.T) {
	_, err := buildAdapter(&runSettings{adapterType: "kafka"})
	if err == nil {
		t.Fatal("expected error for unknown adapter type")
	}
	if !strings.Contains(err.Error(), "unknown adapter") {
		t.Errorf("error should mention unknown adapter, got: %v", err)
	}
	if !strings.Contains(err.Error(), "kafka") {
		t.Errorf("error should include the bad type name, got: %v", err)
	}
}

func TestExitCodeValues(t *testing.T) {
	if exitSuccess != 0 {
		t.Errorf("exitSuccess should be 0, got %d", exitSuccess)
	}
	if exitFailedItems != 1 {
		t.Errorf("exitFailedItems should be 1, got %d", exitFailedItems)
	}
	if exitSetupFailure != 2 {
		t.Errorf("exitSetupFailure should be 2, got %d", exitSetupFailure)
	}
}

func TestStoreFlags_IncludeOutputDir(t *testing.T) {
	hasOutputDir := false
	for _, f := range StoreFlags() {
		if f.Names()[0] == "output-dir" {
			hasOutputDir = true
			break
		}
	}
	if !hasOutputDir {
		t.Error("StoreFlags should include --output-dir")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dexfetch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
