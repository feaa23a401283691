package pipeline

import "golang.org/x/sync/errgroup"

// pool runs jobs on a fixed set of workers fed by a bounded queue. A full
// queue rejects immediately instead of blocking the submitter.
type pool struct {
	tasks chan string
	g     errgroup.Group
}

func newPool(workers, queueSize int, run func(jobID string)) *pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	p := &pool{tasks: make(chan string, queueSize)}
	for i := 0; i < workers; i++ {
		p.g.Go(func() error {
			for id := range p.tasks {
				run(id)
			}
			return nil
		})
	}
	return p
}

func (p *pool) enqueue(jobID string) error {
	select {
	case p.tasks <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

// close stops accepting work and waits for in-flight jobs to finish.
func (p *pool) close() error {
	close(p.tasks)
	return p.g.Wait()
}
