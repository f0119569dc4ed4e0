// Package plan implements the execution planner (C6): given a resolved
// command and the collaborators that could run it elsewhere, decide
// whether to run it locally, inside a container, or on a remote host.
package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/dreadnode/robopages-go/internal/catalog"
	"github.com/dreadnode/robopages-go/internal/command"
	"github.com/dreadnode/robopages-go/internal/container"
	"github.com/dreadnode/robopages-go/internal/remote"
)

// ErrContainerRequired is returned when the decision table selects the
// container outcome but the function carries no container spec.
var ErrContainerRequired = errors.New("container required but not configured")

// Target names which execution venue was selected.
type Target int

const (
	TargetLocal Target = iota
	TargetContainer
	TargetRemote
)

func (t Target) String() string {
	switch t {
	case TargetContainer:
		return "container"
	case TargetRemote:
		return "remote"
	default:
		return "local"
	}
}

// Plan is the outcome of planning: the target venue and the final,
// ready-to-run command (wrapped for containers, untouched otherwise).
type Plan struct {
	Target  Target
	Command *command.Command
	Remote  *remote.Remote
}

// Planner holds the collaborators consulted while deciding.
type Planner struct {
	Container *container.Driver
}

// NewPlanner constructs a Planner backed by the environment-selected
// container driver.
func NewPlanner() *Planner {
	return &Planner{Container: container.NewDriver()}
}

// Decide implements §4.6's decision table, evaluated top to bottom: remote
// (if reachable and the binary is in its PATH), then forced container,
// then sudo-without-interactive, then binary-not-in-PATH, else local.
func (p *Planner) Decide(ctx context.Context, cmd *command.Command, spec *catalog.ContainerSpec, rem *remote.Remote, interactive bool) (*Plan, error) {
	if rem != nil {
		inPath, err := rem.InPath(ctx, cmd.Binary)
		if err == nil && inPath {
			return &Plan{Target: TargetRemote, Command: cmd, Remote: rem}, nil
		}
	}

	target, err := p.decideWithoutResolve(cmd, spec, interactive)
	if err != nil {
		return nil, err
	}

	if target == TargetLocal {
		return &Plan{Target: TargetLocal, Command: cmd}, nil
	}

	if err := p.Container.Resolve(ctx, spec); err != nil {
		return nil, err
	}
	wrapped, err := p.Container.Wrap(cmd, spec)
	if err != nil {
		return nil, err
	}
	return &Plan{Target: TargetContainer, Command: wrapped}, nil
}

// decideWithoutResolve implements the pure local-vs-container half of the
// decision table (remote is decided by Decide, before this is reached),
// without invoking the container driver. Split out so the decision logic
// can be tested without shelling out to a real container runtime.
func (p *Planner) decideWithoutResolve(cmd *command.Command, spec *catalog.ContainerSpec, interactive bool) (Target, error) {
	needsContainer := false
	switch {
	case spec != nil && spec.Force:
		needsContainer = true
	case cmd.Sudo && !interactive:
		needsContainer = true
	case !cmd.InPath:
		needsContainer = true
	}

	if !needsContainer {
		return TargetLocal, nil
	}
	if spec == nil {
		return TargetContainer, fmt.Errorf("%w", ErrContainerRequired)
	}
	return TargetContainer, nil
}

// Execute runs the plan's command through whichever venue was selected.
func (p *Plan) Execute(ctx context.Context) (string, error) {
	if p.Target == TargetRemote {
		return p.Remote.Execute(ctx, p.Command.Sudo, p.Command.Binary, p.Command.Args)
	}
	return p.Command.Execute(ctx)
}
