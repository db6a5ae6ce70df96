package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEmissionPlainValueFansOutToAllSuccessors(t *testing.T) {
	out := resolveEmission("payload", []string{"a", "b", "c"})
	require := assert.New(t)
	require.Len(out, 3)
	for _, tp := range out {
		require.Equal("payload", tp.payload)
	}
}

func TestResolveEmissionWithNoTargetsFansOutToAll(t *testing.T) {
	out := resolveEmission(To("payload"), []string{"a", "b"})
	assert.Len(t, out, 2)
}

func TestResolveEmissionWithTargetsNarrowsDelivery(t *testing.T) {
	out := resolveEmission(To("payload", "b"), []string{"a", "b", "c"})
	assert.Len(t, out, 1)
	assert.Equal(t, "b", out[0].target)
	assert.Equal(t, "payload", out[0].payload)
}

func TestResolveEmissionSliceDeliversDistinctPayloads(t *testing.T) {
	out := resolveEmission([]Emission{
		To("for-a", "a"),
		To("for-b", "b"),
	}, []string{"a", "b", "c"})

	got := map[string]string{}
	for _, tp := range out {
		got[tp.target] = tp.payload.(string)
	}
	assert.Equal(t, map[string]string{"a": "for-a", "b": "for-b"}, got)
}

func TestResolveEmissionSliceEntryWithNoTargetsFansOut(t *testing.T) {
	out := resolveEmission([]Emission{To("broadcast")}, []string{"a", "b"})
	assert.Len(t, out, 2)
}
