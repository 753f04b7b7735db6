package run_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/sophialabs/visreg/internal/domain/run"
)

func TestRegistry_AcquireRelease(t *testing.T) {
	r := run.NewRegistry()

	release, err := r.Acquire("demo")
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if r.Active("demo") == nil {
		t.Error("expected an active handle after Acquire")
	}

	if _, err := r.Acquire("demo"); !errors.Is(err, run.ErrRunInProgress) {
		t.Errorf("second Acquire = %v, want ErrRunInProgress", err)
	}

	// A different project is unaffected.
	otherRelease, err := r.Acquire("other")
	if err != nil {
		t.Fatalf("Acquire for other project failed: %v", err)
	}
	otherRelease()

	release()
	if r.Active("demo") != nil {
		t.Error("handle should be gone after release")
	}
	if _, err := r.Acquire("demo"); err != nil {
		t.Errorf("Acquire after release failed: %v", err)
	}
}

func TestRegistry_ReleaseIdempotent(t *testing.T) {
	r := run.NewRegistry()

	release, err := r.Acquire("demo")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	release()

	// A second run acquires the slot; the stale release must not free it.
	if _, err := r.Acquire("demo"); err != nil {
		t.Fatalf("re-Acquire failed: %v", err)
	}
	release()
	if r.Active("demo") == nil {
		t.Error("stale release call freed a slot held by a newer run")
	}
}

func TestRegistry_ConcurrentAcquire(t *testing.T) {
	r := run.NewRegistry()

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan func(), attempts)
	for j := 0; j < attempts; j++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if release, err := r.Acquire("demo"); err == nil {
				wins <- release
			}
		}()
	}
	wg.Wait()
	close(wins)

	var releases []func()
	for release := range wins {
		releases = append(releases, release)
	}
	if len(releases) != 1 {
		t.Fatalf("expected exactly one winner, got %d", len(releases))
	}
	releases[0]()
}
