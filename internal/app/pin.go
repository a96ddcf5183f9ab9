package app

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

const pinLength = 6

// pinSpace is the number of distinct pins (10^pinLength).
const pinSpace = 1000000

// PinAllocator hands out short numeric join codes. Uniqueness holds only
// among currently in-use pins; a released pin may be generated again.
type PinAllocator struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	inUse map[string]struct{}
}

func NewPinAllocator() *PinAllocator {
	return NewPinAllocatorWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewPinAllocatorWithRand allows a seeded source for deterministic tests.
func NewPinAllocatorWithRand(rnd *rand.Rand) *PinAllocator {
	return &PinAllocator{
		rnd:   rnd,
		inUse: make(map[string]struct{}),
	}
}

// Generate returns a pin not currently in use, retrying on collision.
// Once 90% of the pin space is occupied it fails instead of spinning.
func (a *PinAllocator) Generate() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.inUse)*10 >= pinSpace*9 {
		return "", domain.ErrPinExhausted
	}
	for {
		pin := fmt.Sprintf("%0*d", pinLength, a.rnd.Intn(pinSpace))
		if _, taken := a.inUse[pin]; taken {
			continue
		}
		a.inUse[pin] = struct{}{}
		return pin, nil
	}
}

// Release marks a pin free; releasing an unknown pin is a no-op.
func (a *PinAllocator) Release(pin string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inUse, pin)
}

// InUse reports how many pins are currently allocated.
func (a *PinAllocator) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inUse)
}
