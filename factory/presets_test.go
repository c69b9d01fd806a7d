package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustJSON_PanicsOnUnencodableValue(t *testing.T) {
	assert.Panics(t, func() { mustJSON(map[string]any{"bad": make(chan int)}) })
	assert.NotPanics(t, func() { mustJSON(map[string]any{"name": "Karen"}) })
}
