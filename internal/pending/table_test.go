package pending

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridctl/agenthub/pkg/wire"
)

func TestAwaitResolvedByMatchingReply(t *testing.T) {
	tbl := New()
	msg, err := wire.NewMessage("req-1", "agent.task.create", map[string]any{})
	require.NoError(t, err)

	done := make(chan struct{})
	var got wire.Message
	var gotErr error
	go func() {
		got, gotErr = tbl.Await(context.Background(), msg.ID, time.Second, nil)
		close(done)
	}()

	require.Eventually(t, func() bool { return tbl.Pending() == 1 }, time.Second, time.Millisecond)

	reply, err := msg.Reply("reply-1", "agent.task.result", map[string]any{"ok": true})
	require.NoError(t, err)
	assert.True(t, tbl.Resolve(reply))

	<-done
	require.NoError(t, gotErr)
	assert.Equal(t, reply.ID, got.ID)
}

func TestAwaitTimesOut(t *testing.T) {
	tbl := New()
	_, err := tbl.Await(context.Background(), "msg-1", 10*time.Millisecond, nil)
	require.Error(t, err)
	var wireErr *wire.Error
	require.ErrorAs(t, err, &wireErr)
	assert.Equal(t, wire.ErrTimeout, wireErr.Kind)
	assert.Equal(t, 0, tbl.Pending())
}

func TestResolveIgnoresUnknownRequestID(t *testing.T) {
	tbl := New()
	msg, err := wire.NewMessage("m1", "service.task.result", nil)
	require.NoError(t, err)
	reply, err := msg.Reply("reply-1", "service.task.result", nil)
	require.NoError(t, err)
	assert.False(t, tbl.Resolve(reply))
}

func TestResolveHonorsFilter(t *testing.T) {
	tbl := New()
	done := make(chan Result, 1)
	go func() {
		msg, err := tbl.Await(context.Background(), "m1", time.Second, func(m wire.Message) bool {
			return m.Type == "service.task.result"
		})
		done <- Result{Message: msg, Err: err}
	}()
	require.Eventually(t, func() bool { return tbl.Pending() == 1 }, time.Second, time.Millisecond)

	wrongType, err := wire.NewMessage("w1", "service.task.error", nil)
	require.NoError(t, err)
	wrongReply, err := wrongType.Reply("r1", "service.task.error", nil)
	require.NoError(t, err)
	wrongReply.RequestID = "m1"
	assert.False(t, tbl.Resolve(wrongReply))

	rightType, err := wire.NewMessage("w2", "service.task.result", nil)
	require.NoError(t, err)
	rightReply, err := rightType.Reply("r2", "service.task.result", nil)
	require.NoError(t, err)
	rightReply.RequestID = "m1"
	assert.True(t, tbl.Resolve(rightReply))

	res := <-done
	require.NoError(t, res.Err)
	assert.Equal(t, "service.task.result", res.Message.Type)
}

func TestDuplicateAwaitRejected(t *testing.T) {
	tbl := New()
	go tbl.Await(context.Background(), "dup", time.Second, nil)
	require.Eventually(t, func() bool { return tbl.Pending() == 1 }, time.Second, time.Millisecond)

	_, err := tbl.Await(context.Background(), "dup", time.Second, nil)
	require.Error(t, err)
}

func TestShutdownRejectsAllWaiters(t *testing.T) {
	tbl := New()
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		id := string(rune('a' + i))
		go func() {
			_, err := tbl.Await(context.Background(), id, time.Second, nil)
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return tbl.Pending() == 3 }, time.Second, time.Millisecond)

	tbl.Shutdown()
	for i := 0; i < 3; i++ {
		require.Error(t, <-errs)
	}

	_, err := tbl.Await(context.Background(), "after-shutdown", time.Second, nil)
	require.Error(t, err)
}

func TestAwaitCancelledByContext(t *testing.T) {
	tbl := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := tbl.Await(ctx, "cancel-me", time.Second, nil)
		done <- err
	}()
	require.Eventually(t, func() bool { return tbl.Pending() == 1 }, time.Second, time.Millisecond)

	cancel()
	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, tbl.Pending())
}
