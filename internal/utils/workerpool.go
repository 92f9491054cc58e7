package utils

import (
	"context"
	"sync"
)

// Task represents a unit of work
type Task[T any] struct {
	Data   T
	Result any
	Err    error
}

// Worker is a function that processes a task
type Worker[T any] func(ctx context.Context, data T) (any, error)

// Pool is a worker pool for concurrent task processing. The synchronizer
// uses it to run independent spaces in parallel; within one space all work
// stays sequential.
type Pool[T any] struct {
	workers    int
	taskQueue  chan *Task[T]
	resultChan chan *Task[T]
	wg         sync.WaitGroup
	worker     Worker[T]
}

// NewPool creates a new worker pool
func NewPool[T any](workers int, worker Worker[T]) *Pool[T] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T]{
		workers:    workers,
		taskQueue:  make(chan *Task[T], workers*2),
		resultChan: make(chan *Task[T], workers*2),
		worker:     worker,
	}
}

// Start starts the worker pool
func (p *Pool[T]) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx)
	}
}

func (p *Pool[T]) runWorker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.taskQueue:
			if !ok {
				return
			}
			result, err := p.worker(ctx, task.Data)
			task.Result = result
			task.Err = err

			select {
			case p.resultChan <- task:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Process processes a slice of data items concurrently and returns the
// completed tasks. Order of results is not guaranteed.
func (p *Pool[T]) Process(ctx context.Context, items []T) []*Task[T] {
	if len(items) == 0 {
		return []*Task[T]{}
	}

	p.Start(ctx)

	go func() {
		defer close(p.taskQueue)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case p.taskQueue <- &Task[T]{Data: item}:
			}
		}
	}()

	go func() {
		p.wg.Wait()
		close(p.resultChan)
	}()

	results := make([]*Task[T], 0, len(items))
	for task := range p.resultChan {
		results = append(results, task)
	}
	return results
}
