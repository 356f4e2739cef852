package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/api"
)

// ErrInjected is returned for calls made to fail with Fail.
var ErrInjected = errors.New("injected failure")

// Fixtures is an in-memory api.Transport keyed by api.Request.Key. It
// counts every call, including failed ones.
type Fixtures struct {
	mu       sync.Mutex
	bodies   map[string][]byte
	failures map[string]int
	calls    map[string]int
}

// NewFixtures creates an empty fixture transport.
func NewFixtures() *Fixtures {
	return &Fixtures{
		bodies:   make(map[string][]byte),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

// Add registers the JSON encoding of body as the response to req.
// A nil body is served as JSON null.
func (f *Fixtures) Add(req api.Request, body any) *Fixtures {
	data, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("encode fixture %s: %v", req.Key(), err))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[req.Key()] = data
	return f
}

// AddRaw registers a literal response body for req.
func (f *Fixtures) AddRaw(req api.Request, body string) *Fixtures {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[req.Key()] = []byte(body)
	return f
}

// Fail makes the next n calls for req return ErrInjected.
func (f *Fixtures) Fail(req api.Request, n int) *Fixtures {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[req.Key()] = n
	return f
}

// Perform implements api.Transport.
func (f *Fixtures) Perform(ctx context.Context, req api.Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := req.Key()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[key]++
	if f.failures[key] > 0 {
		f.failures[key]--
		return nil, fmt.Errorf("%s: %w", key, ErrInjected)
	}
	body, ok := f.bodies[key]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", key)
	}
	return body, nil
}

// Calls returns how many times req was performed.
func (f *Fixtures) Calls(req api.Request) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[req.Key()]
}

// TotalCalls returns the number of requests performed.
func (f *Fixtures) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// ResetCalls clears the call counters.
func (f *Fixtures) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
}
