package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	item := New("cat.png", 3, 24)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "cat.png", item.Filename)
	assert.Equal(t, StatusReceived, item.Status)
	assert.Equal(t, 3, item.DurationSec)
	assert.Equal(t, 24, item.FPS)
	assert.False(t, item.CreatedAt.IsZero())
}

func TestJob_Lifecycle(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		item := New("cat.png", 5, 30)

		require.NoError(t, item.MarkInputStored("/tmp/abc_cat.png"))
		assert.Equal(t, StatusInputStored, item.GetStatus())
		assert.Equal(t, "/tmp/abc_cat.png", item.InputPath)

		require.NoError(t, item.Start())
		assert.Equal(t, StatusProcessing, item.GetStatus())
		assert.False(t, item.StartedAt.IsZero())

		require.NoError(t, item.Succeed("/out/video.mp4"))
		assert.Equal(t, StatusSucceeded, item.GetStatus())
		assert.Equal(t, "/out/video.mp4", item.OutputPath)
		assert.False(t, item.CompletedAt.IsZero())
		assert.True(t, item.IsTerminal())
	})

	t.Run("failure from any non-terminal state", func(t *testing.T) {
		for _, setup := range []func(*Job){
			func(j *Job) {},
			func(j *Job) { _ = j.MarkInputStored("/tmp/x") },
			func(j *Job) { _ = j.MarkInputStored("/tmp/x"); _ = j.Start() },
		} {
			item := New("cat.png", 5, 30)
			setup(item)

			require.NoError(t, item.Fail("boom"))
			assert.Equal(t, StatusFailed, item.GetStatus())
			assert.Equal(t, "boom", item.Error)
			assert.True(t, item.IsTerminal())
		}
	})
}

func TestJob_InvalidTransitions(t *testing.T) {
	t.Run("cannot start before input is stored", func(t *testing.T) {
		item := New("cat.png", 5, 30)
		assert.ErrorIs(t, item.Start(), ErrInvalidTransition)
	})

	t.Run("cannot succeed without processing", func(t *testing.T) {
		item := New("cat.png", 5, 30)
		assert.ErrorIs(t, item.Succeed("/out/v.mp4"), ErrInvalidTransition)
	})

	t.Run("terminal states are final", func(t *testing.T) {
		item := New("cat.png", 5, 30)
		require.NoError(t, item.Fail("boom"))

		assert.ErrorIs(t, item.TransitionTo(StatusProcessing), ErrInvalidTransition)
		assert.ErrorIs(t, item.Succeed("/out/v.mp4"), ErrInvalidTransition)
	})
}

func TestJob_Clone(t *testing.T) {
	item := New("cat.png", 5, 30)
	require.NoError(t, item.MarkInputStored("/tmp/x"))

	clone := item.Clone()
	assert.Equal(t, item.ID, clone.ID)
	assert.Equal(t, item.Status, clone.Status)

	// Mutating the clone must not affect the original.
	clone.Status = StatusFailed
	clone.Error = "mutated"
	assert.Equal(t, StatusInputStored, item.GetStatus())
	assert.Empty(t, item.Error)
}
