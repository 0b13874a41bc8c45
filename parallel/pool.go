// Package parallel runs independent jobs on a fixed set of workers.
package parallel

import (
	"errors"
	"runtime"
	"sync"
)

type Job func() error

type Pool struct {
	wg    sync.WaitGroup
	work  chan Job
	close func()

	mu   sync.Mutex
	errs []error
}

// Start launches numWorkers workers; below 1 uses GOMAXPROCS. With a single
// worker jobs run inline on the submitting goroutine.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{close: func() {}}
	if numWorkers == 1 {
		return pool
	}

	pool.work = make(chan Job, numWorkers)
	for range numWorkers {
		pool.wg.Go(func() {
			for job := range pool.work {
				pool.run(job)
			}
		})
	}
	pool.close = sync.OnceFunc(func() { close(pool.work) })

	return pool
}

// Go submits a job. It blocks while every worker is busy.
func (p *Pool) Go(job Job) {
	if p.work == nil {
		p.run(job)
		return
	}
	p.work <- job
}

// Wait stops accepting jobs, waits for the running ones and returns their
// errors joined.
func (p *Pool) Wait() error {
	p.close()
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}

func (p *Pool) run(job Job) {
	if err := job(); err != nil {
		p.mu.Lock()
		p.errs = append(p.errs, err)
		p.mu.Unlock()
	}
}
