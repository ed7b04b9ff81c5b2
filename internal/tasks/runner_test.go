package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRunner_SubmitAndWait(t *testing.T) {
	r := NewRunner(zap.NewNop(), time.Second)
	var n atomic.Int32
	for i := 0; i < 5; i++ {
		r.Submit("count", func(ctx context.Context) error {
			n.Add(1)
			return nil
		})
	}
	r.Wait()
	assert.Equal(t, int32(5), n.Load())
}

func TestRunner_ErrorIsLoggedNotPropagated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := NewRunner(zap.New(core), time.Second)

	r.Submit("send-mail", func(ctx context.Context) error { return errors.New("smtp down") })
	r.Submit("ok", func(ctx context.Context) error { return nil })
	r.Wait()

	entries := logs.FilterMessage("task failed").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "send-mail", entries[0].ContextMap()["task"])
	}
}

func TestRunner_TaskHasDeadline(t *testing.T) {
	r := NewRunner(nil, 20*time.Millisecond)
	var expired atomic.Bool
	r.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		expired.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	})
	r.Wait()
	assert.True(t, expired.Load())
}

func TestRunner_PanicIsRecovered(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := NewRunner(zap.New(core), time.Second)
	r.Submit("boom", func(ctx context.Context) error { panic("bad") })
	r.Wait()
	assert.Equal(t, 1, logs.FilterMessage("task panicked").Len())
}

func TestInline_RunsSynchronously(t *testing.T) {
	ran := false
	Inline{}.Submit("now", func(ctx context.Context) error {
		ran = true
		return errors.New("ignored")
	})
	assert.True(t, ran)
}
