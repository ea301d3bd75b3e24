package mapstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyPatterns(t *testing.T) {
	assert.Equal(t, "mapboard:prod:maps", MapSetKey("prod"))
	assert.Equal(t, "mapboard:prod:maps_updated", UpdatesChannel("prod"))
}

func TestKeyIsolationBetweenInstances(t *testing.T) {
	assert.NotEqual(t, MapSetKey("a"), MapSetKey("b"))
	assert.NotEqual(t, UpdatesChannel("a"), UpdatesChannel("b"))
}
