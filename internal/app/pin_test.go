package app

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"live-quiz-service/internal/domain"
)

func TestGenerateUniquePins(t *testing.T) {
	alloc := NewPinAllocatorWithRand(rand.New(rand.NewSource(1)))

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		pin, err := alloc.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(pin) != pinLength {
			t.Fatalf("expected %d-digit pin, got %q", pinLength, pin)
		}
		if seen[pin] {
			t.Fatalf("pin %q issued twice", pin)
		}
		seen[pin] = true
	}
}

func TestReleaseAllowsReuse(t *testing.T) {
	alloc := NewPinAllocatorWithRand(rand.New(rand.NewSource(2)))

	pin, err := alloc.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	alloc.Release(pin)
	alloc.Release(pin) // idempotent
	if alloc.InUse() != 0 {
		t.Fatalf("expected no pins in use after release, got %d", alloc.InUse())
	}
}

func TestGenerateFailsWhenSpaceNearlyFull(t *testing.T) {
	alloc := NewPinAllocatorWithRand(rand.New(rand.NewSource(3)))
	for i := 0; i < pinSpace*9/10; i++ {
		alloc.inUse[pinOf(i)] = struct{}{}
	}

	if _, err := alloc.Generate(); !errors.Is(err, domain.ErrPinExhausted) {
		t.Fatalf("expected ErrPinExhausted, got %v", err)
	}
}

func TestGenerateConcurrent(t *testing.T) {
	alloc := NewPinAllocator()

	const workers = 16
	const perWorker = 50
	pins := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				pin, err := alloc.Generate()
				if err != nil {
					t.Errorf("generate: %v", err)
					return
				}
				pins <- pin
			}
		}()
	}
	wg.Wait()
	close(pins)

	seen := make(map[string]bool)
	for pin := range pins {
		if seen[pin] {
			t.Fatalf("duplicate pin %q under concurrency", pin)
		}
		seen[pin] = true
	}
}

func pinOf(n int) string {
	digits := make([]byte, pinLength)
	for i := pinLength - 1; i >= 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits)
}
