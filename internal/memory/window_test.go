package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackpowerc/ragchat/internal/core"
)

func TestNewWindow_RejectsNonPositiveMax(t *testing.T) {
	for _, max := range []int{0, -1, -30} {
		_, err := NewWindow(max)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrInvalidConfig)
	}
}

func TestWindow_AppendAndMessages(t *testing.T) {
	w, err := NewWindow(3)
	require.NoError(t, err)

	w.Append(core.Message{Role: core.RoleUser, Content: "hello"})
	w.Append(core.Message{Role: core.RoleAssistant, Content: "hi"})

	msgs := w.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "hi", msgs[1].Content)
}

func TestWindow_EvictsOldestFirst(t *testing.T) {
	const max = 5
	w, err := NewWindow(max)
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		w.Append(core.Message{Role: core.RoleUser, Content: fmt.Sprintf("turn-%d", i)})
	}

	msgs := w.Messages()
	require.Len(t, msgs, max)
	// Exactly the last max turns remain, oldest first.
	for i, msg := range msgs {
		assert.Equal(t, fmt.Sprintf("turn-%d", 12-max+i), msg.Content)
	}
}

func TestWindow_MessagesReturnsCopy(t *testing.T) {
	w, err := NewWindow(2)
	require.NoError(t, err)
	w.Append(core.Message{Role: core.RoleUser, Content: "original"})

	msgs := w.Messages()
	msgs[0].Content = "mutated"

	assert.Equal(t, "original", w.Messages()[0].Content)
}

func TestWindow_MinimumSizeOne(t *testing.T) {
	w, err := NewWindow(1)
	require.NoError(t, err)

	w.Append(core.Message{Role: core.RoleUser, Content: "first"})
	w.Append(core.Message{Role: core.RoleUser, Content: "second"})

	msgs := w.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "second", msgs[0].Content)
	assert.Equal(t, 1, w.Len())
}
