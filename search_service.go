package vesper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/patrickward/vesper/internal/search"
	"github.com/patrickward/vesper/internal/workers"
)

// JobState is the lifecycle state of a search job
type JobState string

const (
	JobRunning   JobState = "running"
	JobFinished  JobState = "finished"
	JobCancelled JobState = "cancelled"
	JobFailed    JobState = "failed"
)

// DefaultJobRetention is how long finished jobs stay queryable before they are pruned
const DefaultJobRetention = 10 * time.Minute

// SearchJob is one search invocation. Each job owns its own cancellation flag.
type SearchJob struct {
	ID        string
	Root      string
	Keyword   string
	StartedAt time.Time

	flag *search.Flag
	done chan struct{}

	mu         sync.Mutex
	results    []search.SearchMatch
	err        error
	finishedAt time.Time
}

// JobStatus is a point in time summary of a search job
type JobStatus struct {
	ID         string     `json:"id"`
	Root       string     `json:"root"`
	Keyword    string     `json:"keyword"`
	State      JobState   `json:"state"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	MatchCount int        `json:"match_count"`
	Error      string     `json:"error,omitempty"`
}

// Cancel asks the job to stop. Matches found so far are kept.
func (j *SearchJob) Cancel() {
	j.flag.Set()
}

// Done is closed once the job has finished
func (j *SearchJob) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx is done, and returns the job's matches
// ordered by file then line.
func (j *SearchJob) Wait(ctx context.Context) ([]search.SearchMatch, error) {
	select {
	case <-j.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.results), j.err
}

// Results returns a copy of the matches collected so far
func (j *SearchJob) Results() []search.SearchMatch {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.results)
}

// Status returns the job's current state
func (j *SearchJob) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()

	status := JobStatus{
		ID:         j.ID,
		Root:       j.Root,
		Keyword:    j.Keyword,
		State:      JobRunning,
		StartedAt:  j.StartedAt,
		MatchCount: len(j.results),
	}

	if j.finishedAt.IsZero() {
		return status
	}

	finished := j.finishedAt
	status.FinishedAt = &finished
	switch {
	case j.err != nil:
		status.State = JobFailed
		status.Error = j.err.Error()
	case j.flag.IsSet():
		status.State = JobCancelled
	default:
		status.State = JobFinished
	}
	return status
}

func (j *SearchJob) add(batch []search.SearchMatch) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results = append(j.results, batch...)
}

func (j *SearchJob) finish(err error, at time.Time) {
	j.mu.Lock()
	search.SortMatches(j.results)
	j.err = err
	j.finishedAt = at
	j.mu.Unlock()

	close(j.done)
}

func (j *SearchJob) finishedBefore(cutoff time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return !j.finishedAt.IsZero() && j.finishedAt.Before(cutoff)
}

// SearchService runs searches on the background worker and tracks them by id, so a
// "stop" request can reach every search still running.
type SearchService struct {
	worker    *workers.BackgroundWorker
	options   search.Options
	retention time.Duration

	mu   sync.RWMutex
	jobs map[string]*SearchJob
}

// NewSearchService creates a new SearchService. A zero retention uses DefaultJobRetention.
func NewSearchService(worker *workers.BackgroundWorker, options search.Options, retention time.Duration) *SearchService {
	if retention <= 0 {
		retention = DefaultJobRetention
	}

	return &SearchService{
		worker:    worker,
		options:   options,
		retention: retention,
		jobs:      make(map[string]*SearchJob),
	}
}

// Start launches a search for keyword below root and returns immediately. onMatch, when
// not nil, receives each file's matches as soon as that file is scanned; calls are
// never concurrent.
func (s *SearchService) Start(root string, keyword string, onMatch func([]search.SearchMatch)) *SearchJob {
	job := &SearchJob{
		ID:        uuid.NewString(),
		Root:      root,
		Keyword:   keyword,
		StartedAt: time.Now(),
		flag:      search.NewFlag(),
		done:      make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	log.Printf("Search %s started: %q in %s", job.ID, keyword, root)

	result := s.worker.Go("search "+job.ID, func(ctx context.Context) error {
		err := search.Stream(ctx, root, keyword, job.flag, s.options, func(batch []search.SearchMatch) {
			job.add(batch)
			if onMatch != nil {
				onMatch(batch)
			}
		})
		// A search cut short by worker shutdown is cancelled, not finished.
		if ctx.Err() != nil {
			job.Cancel()
		}
		return err
	})

	go func() {
		err := <-result
		if err != nil && !errors.Is(err, search.ErrSearchFailed) {
			err = fmt.Errorf("%w: %w", search.ErrSearchFailed, err)
		}
		job.finish(err, time.Now())

		status := job.Status()
		log.Printf("Search %s %s: %d matches in %s", job.ID, status.State, status.MatchCount,
			status.FinishedAt.Sub(job.StartedAt).Round(time.Millisecond))
	}()

	return job
}

// Search runs a search and waits for it. If ctx ends first the search is cancelled and
// the matches found up to that point are returned.
func (s *SearchService) Search(ctx context.Context, root string, keyword string) ([]search.SearchMatch, error) {
	job := s.Start(root, keyword, nil)

	matches, err := job.Wait(ctx)
	if ctx.Err() != nil {
		job.Cancel()
		return job.Wait(context.Background())
	}
	return matches, err
}

// Job returns the job with the given id
func (s *SearchService) Job(id string) (*SearchJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}
	return job, nil
}

// Jobs returns the status of every tracked job, oldest first
func (s *SearchService) Jobs() []JobStatus {
	s.mu.RLock()
	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		statuses = append(statuses, job.Status())
	}
	s.mu.RUnlock()

	slices.SortFunc(statuses, func(a, b JobStatus) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return statuses
}

// Cancel stops the job with the given id
func (s *SearchService) Cancel(id string) error {
	job, err := s.Job(id)
	if err != nil {
		return err
	}

	job.Cancel()
	log.Printf("Search %s cancel requested", id)
	return nil
}

// CancelAll stops every running job and returns how many were asked to stop
func (s *SearchService) CancelAll() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, job := range s.jobs {
		select {
		case <-job.done:
		default:
			job.Cancel()
			count++
		}
	}

	if count > 0 {
		log.Printf("Cancel requested for %d running searches", count)
	}
	return count
}

// Prune forgets jobs that finished more than the retention period before now
func (s *SearchService) Prune(now time.Time) int {
	cutoff := now.Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, job := range s.jobs {
		if job.finishedBefore(cutoff) {
			delete(s.jobs, id)
			pruned++
		}
	}
	return pruned
}

// StartPruning prunes finished jobs on the background worker every interval
func (s *SearchService) StartPruning(interval time.Duration) {
	s.worker.AddPeriodicTask("prune search jobs", interval, func(ctx context.Context) error {
		if pruned := s.Prune(time.Now()); pruned > 0 {
			log.Printf("Pruned %d finished searches", pruned)
		}
		return nil
	})
}
