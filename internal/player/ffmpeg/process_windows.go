//go:build windows

package ffmpeg

import "errors"

func (p *execProcess) Suspend() error { return errors.ErrUnsupported }

func (p *execProcess) Continue() error { return errors.ErrUnsupported }
