package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
	"type": "object",
	"properties": {"name": {"type": "string"}},
	"required": ["name"]
}`

func TestRegisterAndValidateSuccess(t *testing.T) {
	r := New()
	schema, err := r.Register("greeter", "input", []byte(personSchema))
	require.NoError(t, err)

	assert.NoError(t, schema.Validate(map[string]any{"name": "Ada"}))
}

func TestValidateReturnsStructuredError(t *testing.T) {
	r := New()
	schema, err := r.Register("greeter", "input", []byte(personSchema))
	require.NoError(t, err)

	err = schema.Validate(map[string]any{})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "greeter", verr.NodeName)
	assert.Contains(t, verr.Error(), "greeter")
}

func TestLookupUnregisteredReturnsNil(t *testing.T) {
	r := New()
	assert.Nil(t, r.Lookup("unknown", "input"))
}

func TestLookupReturnsCachedSchema(t *testing.T) {
	r := New()
	_, err := r.Register("greeter", "input", []byte(personSchema))
	require.NoError(t, err)

	assert.NotNil(t, r.Lookup("greeter", "input"))
	assert.Nil(t, r.Lookup("greeter", "output"))
}

func TestRawSchemaRoundTrips(t *testing.T) {
	r := New()
	_, err := r.Register("greeter", "input", []byte(personSchema))
	require.NoError(t, err)

	raw, ok := r.RawSchema("greeter", "input")
	require.True(t, ok)
	assert.Contains(t, string(raw), "name")

	_, ok = r.RawSchema("unknown", "input")
	assert.False(t, ok)
}

func TestRegisterInvalidJSONFails(t *testing.T) {
	r := New()
	_, err := r.Register("bad", "input", []byte("not json"))
	assert.Error(t, err)
}

func TestNilCompiledSchemaValidatesAnything(t *testing.T) {
	s := &Schema{}
	assert.NoError(t, s.Validate(map[string]any{"anything": true}))
}
