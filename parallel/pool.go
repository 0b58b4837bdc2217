// Package parallel runs independent jobs, such as one image file each, on a
// fixed number of goroutines.
package parallel

import (
	"runtime"
	"sync"
)

type Pool struct {
	wg    sync.WaitGroup
	work  chan func()
	close func()
}

// Start launches numWorkers goroutines. Zero or less uses GOMAXPROCS; a
// single worker runs jobs inline on the caller's goroutine.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{close: func() {}}
	if numWorkers == 1 {
		return p
	}

	p.work = make(chan func(), numWorkers)
	p.close = sync.OnceFunc(func() { close(p.work) })
	for range numWorkers {
		p.wg.Go(func() {
			for f := range p.work {
				f()
			}
		})
	}
	return p
}

// Go queues f, blocking while every worker is busy and the queue is full.
func (p *Pool) Go(f func()) {
	if p.work == nil {
		f()
		return
	}
	p.work <- f
}

// Wait stops accepting jobs and returns once all queued jobs have finished.
func (p *Pool) Wait() {
	p.close()
	p.wg.Wait()
}
