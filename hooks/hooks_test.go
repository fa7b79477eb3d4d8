package hooks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/youssefsiam38/agentctx/types"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
}

func TestOnBeforeSummarize(t *testing.T) {
	r := NewRegistry()
	var got []*types.Message

	r.OnBeforeSummarize(func(ctx context.Context, span []*types.Message) error {
		got = span
		return nil
	})

	span := []*types.Message{types.NewTextMessage(types.RoleUser, "hello")}
	if err := r.TriggerBeforeSummarize(context.Background(), span); err != nil {
		t.Errorf("TriggerBeforeSummarize returned error: %v", err)
	}
	if len(got) != 1 || got[0] != span[0] {
		t.Errorf("hook received %v, want %v", got, span)
	}
}

func TestOnAfterSummarize(t *testing.T) {
	r := NewRegistry()
	var got *types.SummaryEvent

	r.OnAfterSummarize(func(ctx context.Context, event *types.SummaryEvent) error {
		got = event
		return nil
	})

	event := &types.SummaryEvent{Strategy: "balanced", OriginalTokens: 1000, CompactedTokens: 300}
	if err := r.TriggerAfterSummarize(context.Background(), event); err != nil {
		t.Errorf("TriggerAfterSummarize returned error: %v", err)
	}
	if got != event {
		t.Error("hook did not receive the event")
	}
}

func TestNilRegistryTriggers(t *testing.T) {
	var r *Registry
	if err := r.TriggerBeforeSummarize(context.Background(), nil); err != nil {
		t.Errorf("nil registry TriggerBeforeSummarize returned %v", err)
	}
	if err := r.TriggerAfterSummarize(context.Background(), &types.SummaryEvent{}); err != nil {
		t.Errorf("nil registry TriggerAfterSummarize returned %v", err)
	}
}

func TestHookError(t *testing.T) {
	r := NewRegistry()
	expectedErr := errors.New("hook error")

	r.OnAfterSummarize(func(ctx context.Context, event *types.SummaryEvent) error {
		return expectedErr
	})

	err := r.TriggerAfterSummarize(context.Background(), &types.SummaryEvent{})
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestMultipleHooks(t *testing.T) {
	r := NewRegistry()
	callOrder := []int{}

	for i := 1; i <= 3; i++ {
		r.OnBeforeSummarize(func(ctx context.Context, span []*types.Message) error {
			callOrder = append(callOrder, i)
			return nil
		})
	}

	if err := r.TriggerBeforeSummarize(context.Background(), nil); err != nil {
		t.Errorf("TriggerBeforeSummarize returned error: %v", err)
	}

	if len(callOrder) != 3 {
		t.Fatalf("expected 3 hooks to be called, got %d", len(callOrder))
	}

	// Verify hooks are called in order
	for i, v := range callOrder {
		if v != i+1 {
			t.Errorf("expected call order %d at index %d, got %d", i+1, i, v)
		}
	}
}

func TestHookStopsOnError(t *testing.T) {
	r := NewRegistry()
	called := []int{}
	expectedErr := errors.New("stop here")

	r.OnBeforeSummarize(func(ctx context.Context, span []*types.Message) error {
		called = append(called, 1)
		return nil
	})

	r.OnBeforeSummarize(func(ctx context.Context, span []*types.Message) error {
		called = append(called, 2)
		return expectedErr
	})

	r.OnBeforeSummarize(func(ctx context.Context, span []*types.Message) error {
		called = append(called, 3)
		return nil
	})

	err := r.TriggerBeforeSummarize(context.Background(), nil)
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}

	if len(called) != 2 {
		t.Errorf("expected 2 hooks to be called before error, got %d", len(called))
	}
}

func TestConcurrentHookTrigger(t *testing.T) {
	r := NewRegistry()
	var callCount int
	var mu sync.Mutex

	r.OnAfterSummarize(func(ctx context.Context, event *types.SummaryEvent) error {
		mu.Lock()
		callCount++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	numGoroutines := 100

	wg.Add(numGoroutines)
	for range numGoroutines {
		go func() {
			defer wg.Done()
			_ = r.TriggerAfterSummarize(context.Background(), &types.SummaryEvent{})
		}()
	}
	wg.Wait()

	if callCount != numGoroutines {
		t.Errorf("expected %d calls, got %d", numGoroutines, callCount)
	}
}

func TestConcurrentRegistrationAndTrigger(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for range 10 {
		r.OnBeforeSummarize(func(ctx context.Context, span []*types.Message) error {
			return nil
		})
	}

	// Concurrently register and trigger
	wg.Add(200)
	for range 100 {
		go func() {
			defer wg.Done()
			r.OnBeforeSummarize(func(ctx context.Context, span []*types.Message) error {
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = r.TriggerBeforeSummarize(context.Background(), nil)
		}()
	}
	wg.Wait()
}
