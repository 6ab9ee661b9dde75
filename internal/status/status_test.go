package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldArchitecturesMergesIntoExisting(t *testing.T) {
	types := map[string]TypeStatus{
		"i686-linux:":   {Runnable: 7},
		"x86_64-linux:": {Runnable: 3, LastActive: 100},
	}

	foldArchitectures(types)

	assert.Len(t, types, 1)
	assert.Equal(t, 10, types["x86_64-linux:"].Runnable)
	assert.Equal(t, int64(100), types["x86_64-linux:"].LastActive)
	_, hasI686 := types["i686-linux:"]
	assert.False(t, hasI686)
}

func TestFoldArchitecturesRenamesWhenNoTarget(t *testing.T) {
	types := map[string]TypeStatus{
		"i686-linux:big": {Runnable: 5},
	}

	foldArchitectures(types)

	assert.Len(t, types, 1)
	assert.Equal(t, 5, types["x86_64-linux:big"].Runnable)
}

func TestDownSynthesisesEmptyStatus(t *testing.T) {
	s := down()
	assert.False(t, s.Up)
	assert.Equal(t, int64(0), s.UptimeSec)
	assert.NotNil(t, s.MachineTypes)
	assert.NotNil(t, s.Machines)
}
