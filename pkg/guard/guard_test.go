package guard

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTryAcquireRelease(t *testing.T) {
	g := New()

	assert.True(t, g.TryAcquire("42"))
	assert.False(t, g.TryAcquire("42"))
	assert.True(t, g.TryAcquire("43"), "other users are independent")
	assert.Equal(t, 2, g.Len())

	g.Release("42")
	assert.False(t, g.Held("42"))
	assert.True(t, g.TryAcquire("42"))

	g.Release("missing")
	g.Release("42")
	g.Release("42")
	assert.Equal(t, 1, g.Len())
}

func TestConcurrentAcquireSameUser(t *testing.T) {
	g := New()

	for round := range 50 {
		user := fmt.Sprintf("user-%d", round)
		var wins atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if g.TryAcquire(user) {
					wins.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load(), "round %d", round)
		g.Release(user)
		assert.True(t, g.TryAcquire(user))
		g.Release(user)
	}
	assert.Zero(t, g.Len())
}

func TestConcurrentDifferentUsers(t *testing.T) {
	g := New()
	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, g.TryAcquire(fmt.Sprintf("u%d", i)))
		}()
	}
	wg.Wait()
	assert.Equal(t, 64, g.Len())
}

func TestAcquireReleasesOnce(t *testing.T) {
	g := New()

	release, ok := g.Acquire("7")
	assert.True(t, ok)

	_, ok = g.Acquire("7")
	assert.False(t, ok)

	release()
	assert.False(t, g.Held("7"))

	// A second call must not free a slot taken by a later session.
	assert.True(t, g.TryAcquire("7"))
	release()
	assert.True(t, g.Held("7"))
}
