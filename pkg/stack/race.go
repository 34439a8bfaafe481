// Package stack wires the provisioning components into a supervised
// process: an out-of-band commissioning phase followed by the
// operational phase, with fault containment between the two.
package stack

import "context"

// Task is a long-running unit of work that stops when its context is
// cancelled.
type Task func(ctx context.Context) error

// Race runs all tasks concurrently and returns the result of the
// first one to settle, whether nil or an error. The remaining tasks
// are cancelled and Race waits for every task to return before it
// does, so no task outlives the call.
func Race(ctx context.Context, tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan error, len(tasks))
	for _, task := range tasks {
		task := task
		go func() {
			results <- task(raceCtx)
		}()
	}

	first := <-results
	cancel()
	for i := 1; i < len(tasks); i++ {
		<-results
	}
	return first
}
