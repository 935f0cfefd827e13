package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
)

// process is a running engine instance.
type process interface {
	Pid() int
	Suspend() error
	Continue() error
	Kill() error
	Wait() error
}

type launchSpec struct {
	binary string
	args   []string
	dir    string
	env    []string
}

type launchFunc func(ctx context.Context, spec launchSpec) (process, error)

type execProcess struct {
	cmd *exec.Cmd
}

func launchExec(ctx context.Context, spec launchSpec) (process, error) {
	cmd := exec.CommandContext(ctx, spec.binary, spec.args...)
	cmd.Dir = spec.dir
	if len(spec.env) > 0 {
		cmd.Env = append(cmd.Environ(), spec.env...)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("FFmpeg failed to start: %w", err)
	}
	return &execProcess{cmd: cmd}, nil
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Kill() error { return p.cmd.Process.Kill() }

func (p *execProcess) Wait() error { return p.cmd.Wait() }
