package library

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"dfcode.dev/internal/template"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "lib", "library.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	tpl := template.New(
		template.NewAction(template.CategoryPlayerEvent, "Join"),
		template.NewAction(template.CategoryPlayerAction, "SendMessage", template.Str("hi")),
	)

	e, err := s.Put(ctx, "greeter", tpl)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	env, _ := tpl.Compress()
	if e.Hash != Hash(env) || len(e.Hash) != 64 || e.Blocks != 2 || e.Size != len(env) {
		t.Fatalf("entry = %+v", e)
	}

	for _, ref := range []string{"greeter", e.Hash, e.Hash[:8]} {
		got, ge, err := s.Get(ctx, ref)
		if err != nil {
			t.Fatalf("Get(%q): %v", ref, err)
		}
		if ge.Hash != e.Hash || ge.Name != "greeter" || got.Name != "" || !reflect.DeepEqual(got.Blocks, tpl.Blocks) {
			t.Fatalf("Get(%q) = %+v %+v", ref, ge, got)
		}
	}

	if _, _, err := s.Get(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPut_SameTemplateRenames(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	tpl := template.New(template.NewAction(template.CategoryPlayerEvent, "Join"))

	a, err := s.Put(ctx, "first", tpl)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	b, err := s.Put(ctx, "second", tpl)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if a.Hash != b.Hash {
		t.Fatalf("hash changed: %s %s", a.Hash, b.Hash)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Name != "second" {
		t.Fatalf("list = %+v", list)
	}
}

func TestList_NewestFirst(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	names := []string{"a", "b", "c"}
	for i, n := range names {
		tpl := template.New(template.NewFunction(template.CategoryFunction, n))
		if _, err := s.Put(ctx, n, tpl); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].Name != "c" || list[2].Name != "a" {
		t.Fatalf("list = %+v", list)
	}
}

func TestDelete(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	tpl := template.New(template.NewAction(template.CategoryPlayerEvent, "Join"))
	e, err := s.Put(ctx, "gone", tpl)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	d, err := s.Delete(ctx, "gone")
	if err != nil || d.Hash != e.Hash {
		t.Fatalf("Delete = %+v, %v", d, err)
	}
	if _, _, err := s.Get(ctx, e.Hash); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := s.Delete(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestImport(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	doc := []byte(`{"blocks":[{"id":"block","block":"event","action":"Join","args":{"items":[]}}]}`)
	e, err := s.Import(ctx, "imported", doc)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if e.Blocks != 1 {
		t.Fatalf("entry = %+v", e)
	}
	if _, err := s.Import(ctx, "bad", []byte(`{"blocks":[{"id":"block"}]}`)); err == nil {
		t.Fatalf("expected invalid document error")
	}
}
