package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_UnknownLevelFallsBack(t *testing.T) {
	l := New("verbose", "console")
	assert.NotNil(t, l)
	l.Info("hello", "k", "v")
}

func TestWith_ReturnsChild(t *testing.T) {
	l := NewNop()
	child := l.With("venue_id", "v1")
	assert.NotNil(t, child)
	assert.NotSame(t, l, child)
	child.Debug("ignored")
}
