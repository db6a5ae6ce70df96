package flow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyValidate(t *testing.T) {
	assert.NoError(t, (*RetryPolicy)(nil).Validate())

	assert.ErrorIs(t, (&RetryPolicy{MaxAttempts: 0}).Validate(), ErrInvalidRetryPolicy)

	assert.ErrorIs(t, (&RetryPolicy{
		MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: time.Second,
	}).Validate(), ErrInvalidRetryPolicy)

	assert.NoError(t, (&RetryPolicy{
		MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 2 * time.Second,
	}).Validate())
}

func TestComputeBackoffCapsAtMaxDelay(t *testing.T) {
	base := 10 * time.Millisecond
	maxDelay := 20 * time.Millisecond

	for attempt := 0; attempt < 5; attempt++ {
		d := computeBackoff(attempt, base, maxDelay, nil)
		assert.LessOrEqual(t, d, maxDelay+base)
	}
}

func TestComputeBackoffZeroBaseIsZero(t *testing.T) {
	assert.Equal(t, time.Duration(0), computeBackoff(0, 0, time.Second, nil))
}

func TestGetTimeoutPrefersPolicyOverDefault(t *testing.T) {
	d := getTimeout(&Policy{Timeout: 5 * time.Second}, 30*time.Second)
	assert.Equal(t, 5*time.Second, d)

	d = getTimeout(&Policy{}, 30*time.Second)
	assert.Equal(t, 30*time.Second, d)

	d = getTimeout(nil, 30*time.Second)
	assert.Equal(t, 30*time.Second, d)
}

func TestClassifyDefaultsToRetryableWithoutClassifier(t *testing.T) {
	assert.True(t, classify(nil, errors.New("boom")))
	assert.True(t, classify(&Policy{}, errors.New("boom")))
	assert.False(t, classify(nil, nil))
}

func TestClassifyUsesCustomClassifier(t *testing.T) {
	terminal := errors.New("terminal")
	policy := &Policy{RetryClassifier: func(err error) bool { return !errors.Is(err, terminal) }}

	assert.False(t, classify(policy, terminal))
	assert.True(t, classify(policy, errors.New("transient")))
}
