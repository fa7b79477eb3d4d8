// Package compaction keeps long conversations inside a model's context window.
//
// When the estimated token count of a conversation crosses a strategy
// threshold, older low-value messages are replaced by a single summary
// message while recent, bookmarked and important messages are kept in their
// original order.
//
// # Components
//
//   - TokenEstimator: ~4 characters per token, flat costs for images (170)
//     and tool specs (100 each), 10 tokens of overhead per message.
//   - ContextTracker: usage against a context window resolved from
//     ModelLimits (exact, then longest substring, then 200,000).
//   - Scorer and Pruner: importance scores in [0,1] and greedy discard of the
//     lowest-scored unprotected messages to meet a token target.
//   - Partitioner: splits a conversation into recent, bookmarked, important
//     and compactable messages.
//   - Summarizer: asks a Generator for a summary and falls back to a
//     deterministic rule-based summary on any failure.
//   - Manager: per-conversation orchestration, strategy, bookmarks, rolling
//     summary and statistics.
//
// # Strategies
//
//	aggressive    threshold 50%,  keep last 5,  1-2 sentence summaries
//	balanced      threshold 70%,  keep last 10, 2-4 sentence summaries
//	conservative  threshold 85%,  keep last 20, one detailed paragraph
//	manual        never triggers; use ForceSummarize
//
// # Usage
//
//	mgr, err := compaction.NewManager(&compaction.Config{
//	    Model:     "claude-sonnet-4-5-20250929",
//	    Strategy:  compaction.StrategyBalanced,
//	    Generator: generator,
//	    Logger:    slog.Default(),
//	})
//	if err != nil {
//	    return err
//	}
//
//	messages, info := mgr.ManageContext(ctx, messages, compaction.WithSystem(systemPrompt))
//	if info != nil {
//	    log.Println(info)
//	}
//
// # Failure Semantics
//
// Manager operations never return errors. Collaborator failures are logged
// and replaced by FallbackSummary; unknown strategy names are ignored; unknown
// models get the default window. When every remaining message is protected the
// result may still exceed the threshold, which Info.OverThreshold reports.
//
// # Thread Safety
//
// A Manager holds mutable per-conversation state and is not safe for
// concurrent use. The estimator, tracker, scorer and pruner are stateless.
package compaction
