package sim

import (
	"runtime"
	"sync"
)

// workChunk is a range of partitions for one worker to run a phase over.
type workChunk struct {
	phase      string
	start, end int
}

// workerPool holds the persistent goroutines that run step phases.
type workerPool struct {
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newWorkerPool(workers int) *workerPool {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &workerPool{numWorkers: workers}
}

// start launches persistent worker goroutines.
func (p *workerPool) start(e *Engine) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(e)
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker processes chunks until stopped.
func (p *workerPool) worker(e *Engine) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			e.runChunk(chunk.phase, chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// runPhase runs one phase over every partition and returns once all of them
// are done. Small layouts run on the calling goroutine.
func (e *Engine) runPhase(phase string) {
	if e.observer != nil {
		e.observer.StartPhase(phase)
	}

	n := len(e.partitions)
	if n == 0 {
		return
	}
	if n < e.opts.ParallelThreshold || e.pool.numWorkers == 1 {
		e.runChunk(phase, 0, n)
		return
	}

	if !e.pool.running {
		e.pool.start(e)
	}

	numWorkers := e.pool.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		e.pool.workChan <- workChunk{phase: phase, start: start, end: end}
		chunksDispatched++
	}

	// Barrier: wait for every chunk before the next phase
	for i := 0; i < chunksDispatched; i++ {
		<-e.pool.doneChan
	}
}
