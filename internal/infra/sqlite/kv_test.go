package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestKVPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "quizwise.db")

	kv, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = kv.Set(ctx, "quizwise_quiz_q1", "first")
	_ = kv.Set(ctx, "quizwise_quiz_q1", "second")
	if err := kv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	kv, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv.Close()

	value, ok, err := kv.Get(ctx, "quizwise_quiz_q1")
	if err != nil || !ok || value != "second" {
		t.Fatalf("expected persisted overwrite, got %q ok=%v err=%v", value, ok, err)
	}
	if _, ok, err := kv.Get(ctx, "quizwise_quiz_missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestKVKeysMatchPlainPrefix(t *testing.T) {
	ctx := context.Background()
	kv, err := Open(ctx, filepath.Join(t.TempDir(), "quizwise.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer kv.Close()

	// "_" must not act as a wildcard.
	for _, key := range []string{"quizwise_results_u1", "quizwise_results", "quizwiseXresults", "quizwise_quiz_q1"} {
		if err := kv.Set(ctx, key, "[]"); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}
	keys, err := kv.Keys(ctx, "quizwise_results")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	want := []string{"quizwise_results", "quizwise_results_u1"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
