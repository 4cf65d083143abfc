package game

import (
	"sync"
	"testing"
)

// TestQueueCapacityRounding verifies capacity rounds up to a power of two
func TestQueueCapacityRounding(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{1, 1},
		{3, 4},
		{256, 256},
		{300, 512},
	}
	for _, tt := range tests {
		if got := NewMPSCQueue[int](tt.in).Cap(); got != tt.want {
			t.Errorf("NewMPSCQueue(%d).Cap() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// TestQueueFIFO verifies single-producer order and the full/empty edges
func TestQueueFIFO(t *testing.T) {
	q := NewMPSCQueue[int](4)
	if _, ok := q.TryPop(); ok {
		t.Fatal("pop from an empty queue succeeded")
	}
	for i := range 4 {
		if !q.TryPush(i) {
			t.Fatalf("push %d failed", i)
		}
	}
	if q.TryPush(99) {
		t.Fatal("push into a full queue succeeded")
	}
	if q.Len() != 4 {
		t.Errorf("expected len 4, got %d", q.Len())
	}

	for want := range 4 {
		got, ok := q.TryPop()
		if !ok || got != want {
			t.Fatalf("expected %d, got %d (ok=%v)", want, got, ok)
		}
	}

	// Wrap around the ring.
	for i := range 10 {
		q.TryPush(i)
		if got, _ := q.TryPop(); got != i {
			t.Fatalf("wrap: expected %d, got %d", i, got)
		}
	}
}

// TestQueueConcurrentProducers verifies no item is lost or duplicated
func TestQueueConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 1000
	q := NewMPSCQueue[int](producers * perProducer)

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := range perProducer {
				for !q.TryPush(p*perProducer + i) {
				}
			}
		}(p)
	}
	wg.Wait()

	seen := make([]bool, producers*perProducer)
	buf := make([]int, 128)
	total := 0
	for {
		n := q.DrainTo(buf)
		if n == 0 {
			break
		}
		for _, v := range buf[:n] {
			if seen[v] {
				t.Fatalf("item %d popped twice", v)
			}
			seen[v] = true
		}
		total += n
	}
	if total != producers*perProducer {
		t.Errorf("expected %d items, got %d", producers*perProducer, total)
	}
}
