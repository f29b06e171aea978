package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubChannel struct {
	sent int
	fail bool
}

func (c *stubChannel) Send(_ context.Context, _, _, _ string) error {
	c.sent++
	if c.fail {
		return errors.New("delivery failed")
	}
	return nil
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out to every channel", func(t *testing.T) {
		first := &stubChannel{}
		second := &stubChannel{}
		d := NewDispatcher(zap.NewNop(), first, second)

		require.NoError(t, d.Notify(ctx, "a@b.c", "welcome", map[string]any{"name": "Alice"}))
		assert.Equal(t, 1, first.sent)
		assert.Equal(t, 1, second.sent)
	})

	t.Run("one failing channel does not stop the rest", func(t *testing.T) {
		broken := &stubChannel{fail: true}
		working := &stubChannel{}
		d := NewDispatcher(zap.NewNop(), broken, working)

		require.NoError(t, d.Notify(ctx, "a@b.c", "booking_requested", nil))
		assert.Equal(t, 1, working.sent)
	})

	t.Run("errors only when every channel fails", func(t *testing.T) {
		d := NewDispatcher(zap.NewNop(), &stubChannel{fail: true}, &stubChannel{fail: true})
		assert.Error(t, d.Notify(ctx, "a@b.c", "welcome", nil))
	})

	t.Run("no channels configured is a silent no-op", func(t *testing.T) {
		d := NewDispatcher(zap.NewNop())
		assert.NoError(t, d.Notify(ctx, "a@b.c", "welcome", nil))
	})

	t.Run("unknown template falls back to its name", func(t *testing.T) {
		subject, body := render("totally_custom", map[string]any{"k": "v"})
		assert.Equal(t, "totally_custom", subject)
		assert.Contains(t, body, "k: v")
	})
}
