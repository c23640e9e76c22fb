package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func openBreaker(cb *CircuitBreaker, failures int) {
	for i := 0; i < failures; i++ {
		cb.RecordResult(false)
	}
}

func TestCircuitBreaker_StateClosed(t *testing.T) {
	cb := NewCircuitBreaker("deepgram", 3, 1*time.Second)

	if cb.GetState() != StateClosed {
		t.Errorf("Expected initial state to be Closed, got %s", cb.GetState())
	}
	if !cb.Allow() {
		t.Error("Expected to allow request in Closed state")
	}
	if cb.Name() != "deepgram" {
		t.Errorf("Expected name 'deepgram', got %s", cb.Name())
	}
}

func TestCircuitBreaker_OpenAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	openBreaker(cb, 2)
	if cb.GetState() != StateClosed {
		t.Error("Expected state to still be Closed after 2 failures")
	}

	cb.RecordResult(false)
	if cb.GetState() != StateOpen {
		t.Error("Expected state to be Open after 3 failures")
	}
	if cb.Allow() {
		t.Error("Expected to not allow request in Open state")
	}
}

func TestCircuitBreaker_SuccessResetsFailureRun(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	openBreaker(cb, 2)
	cb.RecordResult(true)
	openBreaker(cb, 2)

	if cb.GetState() != StateClosed {
		t.Error("Expected non-consecutive failures to keep the circuit Closed")
	}
}

func TestCircuitBreaker_HalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 50*time.Millisecond)
	openBreaker(cb, 3)

	if cb.GetState() != StateOpen {
		t.Fatal("Expected circuit to be Open")
	}

	time.Sleep(80 * time.Millisecond)

	if !cb.Allow() {
		t.Error("Expected to allow request after timeout (HalfOpen)")
	}

	state, _, _, _ := cb.GetStats()
	if state != StateHalfOpen {
		t.Errorf("Expected state to be HalfOpen, got %s", state)
	}
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
	openBreaker(cb, 1)
	time.Sleep(30 * time.Millisecond)

	allowed := 0
	for i := 0; i < 5; i++ {
		if cb.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("Expected 3 probes in HalfOpen, got %d", allowed)
	}
}

func TestCircuitBreaker_CloseAfterSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 50*time.Millisecond)
	openBreaker(cb, 3)

	time.Sleep(80 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if !cb.Allow() {
			t.Fatalf("Expected probe %d to be allowed", i)
		}
		cb.RecordResult(true)
	}

	if cb.GetState() != StateClosed {
		t.Errorf("Expected state to be Closed after successes in HalfOpen, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_OpenAfterFailureInHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 50*time.Millisecond)
	openBreaker(cb, 3)

	time.Sleep(80 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("Expected probe to be allowed")
	}
	cb.RecordResult(false)

	if cb.GetState() != StateOpen {
		t.Error("Expected state to be Open after failure in HalfOpen")
	}
}

func TestCircuitBreaker_Call(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	if err := cb.Call(func() error { return nil }); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	want := errors.New("test error")
	if err := cb.Call(func() error { return want }); !errors.Is(err, want) {
		t.Errorf("Expected %v, got %v", want, err)
	}
}

func TestCircuitBreaker_CallOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 1*time.Second)
	cb.RecordResult(false)

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("Expected fn not to run while the circuit is open")
	}
}

func TestCircuitBreaker_GetStats(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	cb.RecordResult(true)
	cb.RecordResult(true)
	cb.RecordResult(false)

	state, requestCount, failureCount, failureRate := cb.GetStats()

	if state != StateClosed {
		t.Errorf("Expected state Closed, got %s", state)
	}
	if requestCount != 3 {
		t.Errorf("Expected 3 requests, got %d", requestCount)
	}
	if failureCount != 1 {
		t.Errorf("Expected 1 failure, got %d", failureCount)
	}
	if failureRate < 33.0 || failureRate > 34.0 {
		t.Errorf("Expected failure rate around 33.33%%, got %.2f%%", failureRate)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)
	openBreaker(cb, 3)

	if cb.GetState() != StateOpen {
		t.Fatal("Expected circuit to be Open")
	}

	cb.Reset()

	state, requestCount, failureCount, _ := cb.GetStats()
	if state != StateClosed || requestCount != 0 || failureCount != 0 {
		t.Errorf("Expected stats to be reset, got state=%s requests=%d failures=%d", state, requestCount, failureCount)
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	cb := NewCircuitBreaker("cartesia", 1, 10*time.Millisecond)

	var mu sync.Mutex
	var seen []CircuitState
	cb.OnStateChange(func(name string, from, to CircuitState) {
		if name != "cartesia" {
			t.Errorf("Expected name 'cartesia', got %s", name)
		}
		mu.Lock()
		seen = append(seen, to)
		mu.Unlock()
	})

	cb.RecordResult(false)
	time.Sleep(30 * time.Millisecond)
	cb.Allow()
	cb.Reset()

	want := []CircuitState{StateOpen, StateHalfOpen, StateClosed}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != len(want) {
		t.Fatalf("Expected %d transitions, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("Transition %d: expected %s, got %s", i, want[i], seen[i])
		}
	}
}

func TestCircuitState_String(t *testing.T) {
	tests := map[CircuitState]string{
		StateClosed:      "closed",
		StateOpen:        "open",
		StateHalfOpen:    "half-open",
		CircuitState(42): "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}
