package async

import (
	"context"
	"sync"
)

// Task is one named unit of work executed by the pool.
type Task struct {
	Name    string
	Execute func() (interface{}, error)
}

// Result carries a task's outcome, keyed by its name.
type Result struct {
	Name string
	Data interface{}
	Err  error
}

// Pool fans a set of independent tasks out over a fixed number of workers.
// Report builders use it to issue their current- and previous-window reads
// concurrently.
type Pool struct {
	workers int
	tasks   chan Task
	results chan Result
}

func NewPool(workers int) *Pool {
	return &Pool{
		workers: workers,
		tasks:   make(chan Task),
		results: make(chan Result),
	}
}

func (p *Pool) worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			data, err := task.Execute()
			p.results <- Result{Name: task.Name, Data: data, Err: err}
		case <-ctx.Done():
			return
		}
	}
}

// Execute runs all tasks and returns their results keyed by task name.
// If the context is cancelled, the partial result map collected so far is
// returned.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	var wg sync.WaitGroup
	results := make(map[string]Result, len(tasks))

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.worker(ctx, &wg)
	}

	go func() {
		for _, task := range tasks {
			select {
			case p.tasks <- task:
			case <-ctx.Done():
				return
			}
		}
		close(p.tasks)
	}()

	for i := 0; i < len(tasks); i++ {
		select {
		case result := <-p.results:
			results[result.Name] = result
		case <-ctx.Done():
			return results
		}
	}

	wg.Wait()
	close(p.results)

	return results
}
