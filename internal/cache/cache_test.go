package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/adverant/kreuzberg-go/internal/types"
)

func TestGetMissThenSetThenHit(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, hit := c.Get(context.Background(), "abc123"); hit {
		t.Fatal("expected a miss on empty cache")
	}

	result := &types.ExtractionResult{Content: "hello world"}
	if err := c.set("abc123", result); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, hit := c.Get(context.Background(), "abc123")
	if !hit {
		t.Fatal("expected a hit after set")
	}
	if got.Content != "hello world" {
		t.Fatalf("expected content round-trip, got %q", got.Content)
	}
}

func TestSingleFlightOneLeaderManyFollowers(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	key := "shared-key"
	if !c.MarkProcessing(key) {
		t.Fatal("expected the first caller to become leader")
	}
	if c.MarkProcessing(key) {
		t.Fatal("expected a second caller to become a follower, not another leader")
	}
	if !c.IsProcessing(key) {
		t.Fatal("expected IsProcessing to report true while the leader is working")
	}

	var wg sync.WaitGroup
	followerResults := make([]*types.ExtractionResult, 3)
	for i := 0; i < 3; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			result, hit, _ := c.Await(ctx, key)
			if hit {
				followerResults[i] = result
			}
		}()
	}

	time.Sleep(10 * time.Millisecond) // give followers time to block in Await
	c.MarkComplete(key, &types.ExtractionResult{Content: "produced once"}, nil)
	wg.Wait()

	for i, r := range followerResults {
		if r == nil || r.Content != "produced once" {
			t.Fatalf("follower %d did not observe the leader's result: %+v", i, r)
		}
	}
	if c.IsProcessing(key) {
		t.Fatal("expected in-flight entry to be released after MarkComplete")
	}
}

func TestMarkCompleteReleasesFollowersEvenOnError(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	key := "will-fail"
	c.MarkProcessing(key)

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, _, err := c.Await(ctx, key)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	c.MarkComplete(key, nil, errors.New("production failed"))

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected the follower to observe the leader's error")
		}
	case <-time.After(time.Second):
		t.Fatal("follower never unblocked after MarkComplete")
	}
}

func TestCorruptEntryTreatedAsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	key := "corrupt"
	if err := c.set(key, &types.ExtractionResult{Content: "valid"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	path := c.pathFor(key)
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("corrupting entry: %v", err)
	}

	if _, hit := c.Get(context.Background(), key); hit {
		t.Fatal("expected a corrupt entry to be treated as a miss")
	}
}

func TestPathForFanOut(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	got := c.pathFor("abcdef0123456789")
	want := filepath.Join(dir, "ab", "cd", "abcdef0123456789.json")
	if got != want {
		t.Fatalf("expected fan-out path %q, got %q", want, got)
	}
}
