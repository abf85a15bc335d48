package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dexfetch/dexfetch/types"
)

const bulbasaurDoc = `{"id":1,"name":"bulbasaur","height":7,"weight":69,"types":[{"slot":1,"type":{"name":"grass"}}]}`

func newTestStore(t *testing.T) *FSStore {
	t.Helper()
	st, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	return st
}

func TestFSStore_CommitAndRead(t *testing.T) {
	st := newTestStore(t)
	ctx := t.Context()

	if err := st.CommitRecord(ctx, "bulbasaur", []byte(bulbasaurDoc)); err != nil {
		t.Fatalf("CommitRecord failed: %v", err)
	}

	data, err := st.ReadRecord(ctx, "bulbasaur")
	if err != nil {
		t.Fatalf("ReadRecord failed: %v", err)
	}
	if string(data) != bulbasaurDoc {
		t.Errorf("ReadRecord = %q, want committed document", data)
	}

	// Commit must not leave temp files behind.
	stale, _ := filepath.Glob(filepath.Join(st.Root(), "*.tmp"))
	if len(stale) != 0 {
		t.Errorf("leftover temp files after commit: %v", stale)
	}
}

func TestFSStore_ReadAbsent(t *testing.T) {
	st := newTestStore(t)

	_, err := st.ReadRecord(t.Context(), "mewtwo")
	if !errors.Is(err, ErrNoRecord) {
		t.Errorf("error = %v, want ErrNoRecord", err)
	}
}

func TestFSStore_RemoveAbsentIsNoError(t *testing.T) {
	st := newTestStore(t)
	if err := st.Remove(t.Context(), "mewtwo"); err != nil {
		t.Errorf("Remove(absent) = %v, want nil", err)
	}
}

func TestFSStore_List(t *testing.T) {
	st := newTestStore(t)
	ctx := t.Context()

	for _, it := range []types.Item{"ivysaur", "bulbasaur", "venusaur"} {
		if err := st.CommitRecord(ctx, it, []byte(bulbasaurDoc)); err != nil {
			t.Fatal(err)
		}
	}
	// Unrelated files and temp leftovers must not be listed.
	if err := os.WriteFile(filepath.Join(st.Root(), "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(st.Root(), "pikachu-123.tmp"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []types.Item{"bulbasaur", "ivysaur", "venusaur"}
	if len(items) != len(want) {
		t.Fatalf("List = %v, want %v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, items[i], want[i])
		}
	}
}

func TestFSStore_Clean(t *testing.T) {
	st := newTestStore(t)
	ctx := t.Context()

	if err := st.CommitRecord(ctx, "bulbasaur", []byte(bulbasaurDoc)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(st.Root(), "orphan-42.tmp"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := st.Clean(ctx); err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	items, err := st.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("items after Clean = %v, want none", items)
	}
	stale, _ := filepath.Glob(filepath.Join(st.Root(), "*.tmp"))
	if len(stale) != 0 {
		t.Errorf("temp files after Clean = %v, want none", stale)
	}
}

func TestReadValid(t *testing.T) {
	st := newTestStore(t)
	ctx := t.Context()

	if err := st.CommitRecord(ctx, "bulbasaur", []byte(bulbasaurDoc)); err != nil {
		t.Fatal(err)
	}

	rec, err := ReadValid(ctx, st, "bulbasaur")
	if err != nil {
		t.Fatalf("ReadValid failed: %v", err)
	}
	if rec.ID != 1 {
		t.Errorf("ID = %d, want 1", rec.ID)
	}

	// A stale document with the wrong identity must not validate.
	if err := st.CommitRecord(ctx, "ivysaur", []byte(bulbasaurDoc)); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadValid(ctx, st, "ivysaur"); err == nil {
		t.Error("ReadValid with identity mismatch = nil, want error")
	}

	// A corrupt document must not validate.
	if err := os.WriteFile(st.Path("venusaur"), []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadValid(ctx, st, "venusaur"); err == nil {
		t.Error("ReadValid with corrupt document = nil, want error")
	}
}
