package ports

import (
	"context"
	"io"

	"labsolver/domain/lab"
)

// TaskLoader reads an input definition and resolves it into a task.
// A failed load returns no task at all.
type TaskLoader interface {
	Load(path string) (*lab.Task, error)
}

// RunEvaluator computes a run result from a resolved task
type RunEvaluator interface {
	EvaluateTask(ctx context.Context, task *lab.Task) (*lab.RunResult, error)
}

// ReportRenderer writes a run result as a document
type ReportRenderer interface {
	Render(w io.Writer, run *lab.RunResult) error
}
