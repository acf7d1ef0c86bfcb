package tx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTxNil(t *testing.T) {
	ctx := WithTx(context.Background(), nil)
	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestAfterCommit(t *testing.T) {
	t.Run("runs immediately outside a transaction runner", func(t *testing.T) {
		ran := false
		AfterCommit(context.Background(), func() { ran = true })
		assert.True(t, ran)
	})

	t.Run("waits for the hook list to run", func(t *testing.T) {
		h := NewHooks()
		ctx := WithHooks(context.Background(), h)

		var order []int
		AfterCommit(ctx, func() { order = append(order, 1) })
		AfterCommit(ctx, func() { order = append(order, 2) })
		assert.Empty(t, order)

		h.Run()
		assert.Equal(t, []int{1, 2}, order)
	})

	t.Run("run fires each hook once", func(t *testing.T) {
		h := NewHooks()
		ctx := WithHooks(context.Background(), h)

		count := 0
		AfterCommit(ctx, func() { count++ })
		h.Run()
		h.Run()
		assert.Equal(t, 1, count)
	})
}
