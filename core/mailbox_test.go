package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/encodeous/routesim/state"
	"github.com/stretchr/testify/assert"
)

func TestMailboxFifo(t *testing.T) {
	mb := NewMailbox()
	_, ok := mb.TryTake()
	assert.False(t, ok)

	assert.NoError(t, mb.Put(state.Hello{Source: "A"}))
	assert.NoError(t, mb.Put(state.Hello{Source: "B"}))
	assert.Equal(t, 2, mb.Len())

	pkt, ok := mb.TryTake()
	assert.True(t, ok)
	assert.Equal(t, state.Hello{Source: "A"}, pkt)
	pkt, ok = mb.TryTake()
	assert.True(t, ok)
	assert.Equal(t, state.Hello{Source: "B"}, pkt)
	_, ok = mb.TryTake()
	assert.False(t, ok)
}

func TestMailboxConcurrentPut(t *testing.T) {
	mb := NewMailbox()
	wg := sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = mb.Put(state.Hello{Source: "A"})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, mb.Len())
}

func TestMailboxClose(t *testing.T) {
	mb := NewMailbox()
	assert.NoError(t, mb.Put(state.Hello{Source: "A"}))
	assert.Equal(t, 1, mb.Close())

	err := mb.Put(state.Hello{Source: "A"})
	assert.True(t, errors.Is(err, ErrMailboxClosed))
	_, ok := mb.TryTake()
	assert.False(t, ok)
}
