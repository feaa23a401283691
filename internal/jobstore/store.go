package jobstore

import (
	"sync"
	"time"
)

// Store is the single source of truth for job state. Get returns a deep
// copy, never the live record, so a reader can never observe a half-written
// analysis; Update serializes all writers for one entry.
type Store interface {
	Put(job *Job) error
	Get(id string) (*Job, error)
	Update(id string, fn func(*Job) error) error
	Evict(id string) error
	Len() int
	Close() error
}

// MemoryStore keeps jobs in a process-wide map. Expired entries are dropped
// lazily on access and by a background sweep.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		jobs: make(map[string]*Job),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweep(sweepInterval)
	}
	return s
}

func (s *MemoryStore) Put(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *MemoryStore) Get(id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if job.Expired(s.now()) {
		delete(s.jobs, id)
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

func (s *MemoryStore) Update(id string, fn func(*Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Expired(s.now()) {
		delete(s.jobs, id)
		return ErrNotFound
	}
	if err := fn(job); err != nil {
		return err
	}
	job.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) Evict(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for id, job := range s.jobs {
				if job.Expired(now) {
					delete(s.jobs, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
