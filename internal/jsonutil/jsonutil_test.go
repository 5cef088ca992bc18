package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnmarshalWithContext(t *testing.T) {
	var v map[string]interface{}
	err := UnmarshalWithContext([]byte(`{"a":1}`), &v, "parse status")
	assert.NoError(t, err)

	err = UnmarshalWithContext([]byte(`{`), &v, "parse status")
	assert.ErrorContains(t, err, "parse status")
}

func TestGetString(t *testing.T) {
	m := map[string]interface{}{"model": "claude4", "n": 3.0}
	assert.Equal(t, "claude4", GetString(m, "model"))
	assert.Equal(t, "", GetString(m, "n"))
	assert.Equal(t, "", GetString(m, "missing"))
	assert.Equal(t, "fallback", GetStringOr(m, "missing", "fallback"))
}

func TestUnmarshalLineSafe(t *testing.T) {
	var v map[string]interface{}
	assert.True(t, UnmarshalLineSafe(`{"type":"heartbeat"}`, &v))
	assert.False(t, UnmarshalLineSafe("", &v))
	assert.False(t, UnmarshalLineSafe(`{"type":`, &v))
}
