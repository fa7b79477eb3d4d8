package hooks

import (
	"context"
	"sync"

	"github.com/youssefsiam38/agentctx/types"
)

// BeforeSummarizeHook is called with the span about to be summarized
type BeforeSummarizeHook func(ctx context.Context, span []*types.Message) error

// AfterSummarizeHook is called after a summarization round completes
type AfterSummarizeHook func(ctx context.Context, event *types.SummaryEvent) error

// Registry holds all registered hooks
type Registry struct {
	mu              sync.RWMutex
	beforeSummarize []BeforeSummarizeHook
	afterSummarize  []AfterSummarizeHook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{
		beforeSummarize: []BeforeSummarizeHook{},
		afterSummarize:  []AfterSummarizeHook{},
	}
}

// OnBeforeSummarize registers a hook to be called before summarization
func (r *Registry) OnBeforeSummarize(hook BeforeSummarizeHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeSummarize = append(r.beforeSummarize, hook)
}

// OnAfterSummarize registers a hook to be called after summarization
func (r *Registry) OnAfterSummarize(hook AfterSummarizeHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterSummarize = append(r.afterSummarize, hook)
}

// TriggerBeforeSummarize calls all registered before-summarize hooks,
// stopping at the first error
func (r *Registry) TriggerBeforeSummarize(ctx context.Context, span []*types.Message) error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	hooks := make([]BeforeSummarizeHook, len(r.beforeSummarize))
	copy(hooks, r.beforeSummarize)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, span); err != nil {
			return err
		}
	}
	return nil
}

// TriggerAfterSummarize calls all registered after-summarize hooks,
// stopping at the first error
func (r *Registry) TriggerAfterSummarize(ctx context.Context, event *types.SummaryEvent) error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	hooks := make([]AfterSummarizeHook, len(r.afterSummarize))
	copy(hooks, r.afterSummarize)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
