// Package executor dispatches a batch of calls against a catalog with
// bounded concurrency, preserving input order in the returned results.
package executor

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/dreadnode/robopages-go/internal/catalog"
	"github.com/dreadnode/robopages-go/internal/flavor"
	"github.com/dreadnode/robopages-go/internal/obs"
	"github.com/dreadnode/robopages-go/internal/plan"
	"github.com/dreadnode/robopages-go/internal/remote"
)

// cancelledSentinel is the content of a CallResult produced when an
// interactive confirmation prompt is declined.
const cancelledSentinel = "<command execution cancelled by user>"

const confirmPrompt = ">> enter 'y' to proceed or any other key to cancel:"

// Executor runs batches of calls against one catalog.
type Executor struct {
	Catalog         *catalog.Catalog
	Planner         *plan.Planner
	Remote          *remote.Remote
	Interactive     bool
	MaxRunningTasks int64

	sem *semaphore.Weighted
}

// New constructs an Executor. maxRunningTasks <= 0 defaults to the host's
// available parallelism, per §5's admission-control default.
func New(cat *catalog.Catalog, planner *plan.Planner, rem *remote.Remote, interactive bool, maxRunningTasks int64) *Executor {
	if maxRunningTasks <= 0 {
		maxRunningTasks = int64(runtime.GOMAXPROCS(0))
	}
	return &Executor{
		Catalog:         cat,
		Planner:         planner,
		Remote:          rem,
		Interactive:     interactive,
		MaxRunningTasks: maxRunningTasks,
		sem:             semaphore.NewWeighted(maxRunningTasks),
	}
}

// Run dispatches every call in calls concurrently, bounded by
// MaxRunningTasks concurrently-held admission slots, and returns results in
// the same order as calls. Any single call's failure fails the whole
// batch: once every call has finished, the error of the lowest-index
// failing call is returned and no results are. Other calls are not
// cancelled when one fails.
func (e *Executor) Run(ctx context.Context, calls []flavor.Call) ([]flavor.CallResultMessage, error) {
	ctx, span := obs.StartSpan(ctx, "executor.Run")
	defer span.End()

	results := make([]flavor.CallResultMessage, len(calls))
	errs := make([]error, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			errs[i] = fmt.Errorf("acquiring admission slot: %w", err)
			continue
		}

		wg.Add(1)
		go func(i int, call flavor.Call) {
			defer wg.Done()
			defer e.sem.Release(1)

			result, err := e.runOne(ctx, call)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = result
		}(i, call)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("call %d (%s): %w", i, calls[i].Function.Name, err)
		}
	}

	return results, nil
}

func (e *Executor) runOne(ctx context.Context, call flavor.Call) (flavor.CallResultMessage, error) {
	ctx, span := obs.StartSpan(ctx, "executor.call")
	defer span.End()

	ref, err := e.Catalog.GetFunction(call.Function.Name)
	if err != nil {
		return flavor.CallResultMessage{}, err
	}

	if err := catalog.ValidateArguments(ref.Function, call.Function.Arguments); err != nil {
		return flavor.CallResultMessage{}, err
	}

	cmd, err := catalog.ResolveCommand(ref.Function, call.Function.Arguments)
	if err != nil {
		return flavor.CallResultMessage{}, err
	}

	chosenPlan, err := e.Planner.Decide(ctx, cmd, ref.Function.Container, e.Remote, e.Interactive)
	if err != nil {
		return flavor.CallResultMessage{}, err
	}

	if e.Interactive {
		proceed, err := confirm(call.Function.Name)
		if err != nil {
			return flavor.CallResultMessage{}, err
		}
		if !proceed {
			return flavor.NewCallResult(call.ID, cancelledSentinel), nil
		}
	}

	slog.InfoContext(ctx, "executing call", "function", call.Function.Name, "target", chosenPlan.Target.String())

	content, err := chosenPlan.Execute(ctx)
	if err != nil {
		return flavor.CallResultMessage{}, err
	}

	return flavor.NewCallResult(call.ID, content), nil
}

// confirm prompts on stdin/stdout for interactive execution; any response
// other than exactly "y" counts as cancellation.
func confirm(functionName string) (bool, error) {
	fmt.Printf("about to run %q\n%s ", functionName, confirmPrompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	return line == "y\n" || line == "y\r\n", nil
}
