package backend

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunsEveryJob(t *testing.T) {
	p := NewWorkerPool(3)
	defer p.Close()

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		err := p.Submit(context.Background(), func() {
			defer wg.Done()
			ran.Add(1)
		})
		require.NoError(t, err)
	}
	wg.Wait()
	assert.Equal(t, int32(20), ran.Load())
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	p := NewWorkerPool(2)
	defer p.Close()

	var active, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			_ = p.Submit(context.Background(), func() {
				defer wg.Done()
				n := active.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				active.Add(-1)
			})
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestWorkerPoolSubmitTimesOut(t *testing.T) {
	p := NewWorkerPool(1)
	defer p.Close()

	release := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestWorkerPoolClosed(t *testing.T) {
	p := NewWorkerPool(1)
	p.Close()
	p.Close()

	err := p.Submit(context.Background(), func() {})
	assert.ErrorIs(t, err, errPoolClosed)
}
