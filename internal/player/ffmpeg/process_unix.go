//go:build !windows

package ffmpeg

import "syscall"

// Suspend pauses the engine with SIGSTOP.
func (p *execProcess) Suspend() error {
	return p.cmd.Process.Signal(syscall.SIGSTOP)
}

// Continue resumes the engine with SIGCONT.
func (p *execProcess) Continue() error {
	return p.cmd.Process.Signal(syscall.SIGCONT)
}
