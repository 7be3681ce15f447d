package redis

import (
	"context"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestKVGetSetAndScan(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	kv := NewKV(newClient(mr), 0)

	if _, ok, err := kv.Get(ctx, "quizwise_quiz_q1"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	_ = kv.Set(ctx, "quizwise_quiz_q1", "first")
	_ = kv.Set(ctx, "quizwise_quiz_q1", "second")
	value, ok, err := kv.Get(ctx, "quizwise_quiz_q1")
	if err != nil || !ok || value != "second" {
		t.Fatalf("expected overwritten value, got %q ok=%v err=%v", value, ok, err)
	}

	for _, key := range []string{"quizwise_results_u1", "quizwise_results", "quizwise_answers_q1"} {
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

func TestKVAppliesTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	kv := NewKV(newClient(mr), time.Minute)
	if err := kv.Set(context.Background(), "quizwise_quiz_q1", "{}"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("quizwise_quiz_q1"); ttl != time.Minute {
		t.Fatalf("expected ttl of 1m, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := kv.Get(context.Background(), "quizwise_quiz_q1"); ok {
		t.Fatalf("expected key to expire")
	}
}

func TestMatchPrefixEscapesGlob(t *testing.T) {
	if got := matchPrefix("a*b?[c]"); got != `a\*b\?\[c\]*` {
		t.Fatalf("unexpected pattern %q", got)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
