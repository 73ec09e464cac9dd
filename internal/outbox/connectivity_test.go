package outbox

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPollingSourceEmitsOnTransitions(t *testing.T) {
	var online atomic.Bool
	src := NewPollingSource(func() bool { return online.Load() }, 5*time.Millisecond)
	defer src.Close()

	var mu sync.Mutex
	var got []bool
	unsub := src.Subscribe(func(on bool) {
		mu.Lock()
		got = append(got, on)
		mu.Unlock()
	})
	defer unsub()

	waitFor := func(want int) {
		deadline := time.After(2 * time.Second)
		for {
			mu.Lock()
			n := len(got)
			mu.Unlock()
			if n >= want {
				return
			}
			select {
			case <-deadline:
				t.Fatalf("timed out waiting for %d transitions, have %d", want, n)
			case <-time.After(time.Millisecond):
			}
		}
	}

	// First probe reports offline
	waitFor(1)

	online.Store(true)
	waitFor(2)

	online.Store(false)
	waitFor(3)

	mu.Lock()
	defer mu.Unlock()
	want := []bool{false, true, false}
	for i, on := range want {
		if got[i] != on {
			t.Errorf("transition %d: got %v want %v", i, got[i], on)
		}
	}
}

func TestPollingSourceReplaysToLateSubscribers(t *testing.T) {
	src := NewPollingSource(func() bool { return true }, 5*time.Millisecond)
	defer src.Close()

	first := make(chan bool, 1)
	unsub := src.Subscribe(func(on bool) {
		select {
		case first <- on:
		default:
		}
	})
	defer unsub()

	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("first subscriber never notified")
	}

	// A late subscriber gets the known state immediately
	late := make(chan bool, 1)
	unsub2 := src.Subscribe(func(on bool) {
		select {
		case late <- on:
		default:
		}
	})
	defer unsub2()

	select {
	case on := <-late:
		if !on {
			t.Error("late subscriber should see online")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("late subscriber never notified")
	}
}
