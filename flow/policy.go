package flow

import (
	"math/rand"
	"time"
)

// Policy configures a node's timeout, retry, and backoff behavior (spec
// §4.3's "validate → invoke-with-timeout → validate → selective-emit"
// envelope). Ported from dshills-langgraph-go/graph.NodePolicy, trimmed of
// the teacher's IdempotencyKeyFunc/replay concerns (this runtime has no
// deterministic-replay engine) and extended with RetryClassifier for spec §4.3's
// "retry_classifier distinguishes retryable from terminal errors".
type Policy struct {
	// Timeout bounds a single invocation attempt. Zero means "use the
	// graph's DefaultNodeTimeout"; both zero means unlimited.
	Timeout time.Duration

	// Retry configures automatic retry of failed attempts. Nil disables
	// retries (a single attempt, no backoff).
	Retry *RetryPolicy

	// RetryClassifier decides whether an error returned by a node is
	// worth retrying. If nil, every error is considered retryable up to
	// Retry.MaxAttempts, since most node failures here are transient
	// tool/LLM calls, not workflow logic errors. Cancellation is never
	// retried regardless (the worker loop stops before consulting it).
	RetryClassifier func(error) bool
}

// RetryPolicy mirrors dshills-langgraph-go/graph.RetryPolicy: bounded
// attempts with exponential backoff and jitter.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Validate checks the policy's internal consistency, matching the
// teacher's RetryPolicy.Validate semantics.
func (rp *RetryPolicy) Validate() error {
	if rp == nil {
		return nil
	}
	if rp.MaxAttempts < 1 {
		return ErrInvalidRetryPolicy
	}
	if rp.MaxDelay > 0 && rp.BaseDelay > 0 && rp.MaxDelay < rp.BaseDelay {
		return ErrInvalidRetryPolicy
	}
	return nil
}

// computeBackoff returns the delay before retry attempt `attempt` (0-based:
// 0 is the delay before the second overall attempt), using
// min(base*2^attempt, maxDelay) + jitter(0, base). Ported from
// dshills-langgraph-go/graph.computeBackoff.
func computeBackoff(attempt int, base, maxDelay time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		return 0
	}
	exp := base * (1 << uint(attempt))
	if maxDelay > 0 && exp > maxDelay {
		exp = maxDelay
	}
	var jitter time.Duration
	if rng != nil {
		jitter = time.Duration(rng.Int63n(int64(base)))
	} else {
		jitter = time.Duration(rand.Int63n(int64(base)))
	}
	return exp + jitter
}

// getTimeout resolves the effective per-attempt timeout given node-level
// policy and the graph-wide default, matching dshills-langgraph-go's
// getNodeTimeout precedence (per-node override, then graph default, then
// unlimited).
func getTimeout(policy *Policy, defaultTimeout time.Duration) time.Duration {
	if policy != nil && policy.Timeout > 0 {
		return policy.Timeout
	}
	return defaultTimeout
}

// classify reports whether err should trigger a retry, given the policy's
// classifier (defaulting to "always retryable" when unset).
func classify(policy *Policy, err error) bool {
	if err == nil {
		return false
	}
	if policy == nil || policy.RetryClassifier == nil {
		return true
	}
	return policy.RetryClassifier(err)
}
