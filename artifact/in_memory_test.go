package artifact

import (
	"fmt"
	"sync"
	"testing"

	"github.com/flowpipe/flowpipe/core"
)

// Interface compliance (compile-time assertions)
var _ core.ArtifactStore = (*InMemoryStore)(nil)

func TestInMemoryStore_SaveGetIsolation(t *testing.T) {
	store := NewInMemoryStore()
	data := []byte("hello")
	loc, err := store.Save("doc", "extract.txt", data)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if loc != "doc/extract.txt" {
		t.Fatalf("unexpected location %q", loc)
	}
	// mutate original slice
	data[0] = 'H'
	out, err := store.Get("doc", "extract.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(out) != "hello" { // should not reflect mutation
		t.Fatalf("expected 'hello', got %q", string(out))
	}
	// mutate returned slice
	out[0] = 'x'
	out2, _ := store.Get("doc", "extract.txt")
	if string(out2) != "hello" {
		t.Fatalf("expected isolation, got %q", string(out2))
	}
}

func TestInMemoryStore_NotFound(t *testing.T) {
	store := NewInMemoryStore()
	if _, err := store.Get("doc", "missing.txt"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Save("doc", "a.txt", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get("doc", "missing.txt"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing name, got %v", err)
	}
}

func TestInMemoryStore_List(t *testing.T) {
	store := NewInMemoryStore()
	names, err := store.List("doc")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty list, got %v", names)
	}
	if _, err := store.Save("doc", "a.txt", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save("doc", "b.txt", []byte("2")); err != nil {
		t.Fatal(err)
	}
	names, _ = store.List("doc")
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %d", len(names))
	}
}

func TestInMemoryStore_Concurrency(t *testing.T) {
	store := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("doc%d", i%10)
			if _, err := store.Save(id, "out.txt", []byte("data")); err != nil {
				t.Errorf("save err: %v", err)
			}
			_, _ = store.List(id)
		}()
	}
	wg.Wait()
	for i := 0; i < 10; i++ {
		if _, err := store.Get(fmt.Sprintf("doc%d", i), "out.txt"); err != nil {
			t.Fatalf("get after concurrent save: %v", err)
		}
	}
}

func TestInMemoryStore_Prepare(t *testing.T) {
	store := NewInMemoryStore()
	if err := store.Prepare("doc"); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	names, err := store.List("doc")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty namespace, got %v", names)
	}
	if _, err := store.Save("doc", "a.txt", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := store.Prepare("doc"); err != nil { // must not clear outputs
		t.Fatal(err)
	}
	if _, err := store.Get("doc", "a.txt"); err != nil {
		t.Fatalf("get after re-prepare: %v", err)
	}
}
