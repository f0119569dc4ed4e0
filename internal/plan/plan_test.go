package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/dreadnode/robopages-go/internal/catalog"
	"github.com/dreadnode/robopages-go/internal/command"
	"github.com/dreadnode/robopages-go/internal/container"
)

func newPlanner() *Planner {
	return &Planner{Container: container.NewDriver()}
}

func TestDecideLocalWhenInPathAndNotSudo(t *testing.T) {
	cmd, err := command.FromArgv([]string{"true"})
	if err != nil {
		t.Fatalf("FromArgv: %v", err)
	}
	if !cmd.InPath {
		t.Skip("'true' not found on PATH in this environment")
	}

	p := newPlanner()
	got, err := p.Decide(context.Background(), cmd, nil, nil, false)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if got.Target != TargetLocal {
		t.Fatalf("Target = %v, want local", got.Target)
	}
}

func TestDecideContainerWhenNotInPath(t *testing.T) {
	cmd := &command.Command{Binary: "definitely-not-a-real-binary", InPath: false}

	p := newPlanner()
	_, err := p.Decide(context.Background(), cmd, nil, nil, false)
	if !errors.Is(err, ErrContainerRequired) {
		t.Fatalf("expected ErrContainerRequired without a container spec, got %v", err)
	}
}

func TestDecideTargetForcedBySpec(t *testing.T) {
	cmd := &command.Command{Binary: "true", InPath: true}
	spec := &catalog.ContainerSpec{Image: "busybox", Force: true}

	got, err := (&Planner{}).decideWithoutResolve(cmd, spec, false)
	if err != nil {
		t.Fatalf("decideWithoutResolve: %v", err)
	}
	if got != TargetContainer {
		t.Fatalf("target = %v, want container", got)
	}
}

func TestDecideTargetContainerWhenSudoAndNotInteractive(t *testing.T) {
	cmd := &command.Command{Binary: "true", InPath: true, Sudo: true}
	spec := &catalog.ContainerSpec{Image: "busybox"}

	got, err := (&Planner{}).decideWithoutResolve(cmd, spec, false)
	if err != nil {
		t.Fatalf("decideWithoutResolve: %v", err)
	}
	if got != TargetContainer {
		t.Fatalf("target = %v, want container", got)
	}
}

func TestDecideTargetLocalWhenSudoAndInteractive(t *testing.T) {
	cmd := &command.Command{Binary: "true", InPath: true, Sudo: true}

	got, err := (&Planner{}).decideWithoutResolve(cmd, nil, true)
	if err != nil {
		t.Fatalf("decideWithoutResolve: %v", err)
	}
	if got != TargetLocal {
		t.Fatalf("target = %v, want local (interactive sudo stays local)", got)
	}
}

func TestDecideTargetContainerWithoutSpecFails(t *testing.T) {
	cmd := &command.Command{Binary: "definitely-not-a-real-binary", InPath: false}

	_, err := (&Planner{}).decideWithoutResolve(cmd, nil, false)
	if !errors.Is(err, ErrContainerRequired) {
		t.Fatalf("expected ErrContainerRequired, got %v", err)
	}
}
