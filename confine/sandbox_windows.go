//go:build windows
// +build windows

package confine

import (
	"errors"

	"github.com/spf13/afero"
)

var errUnsupported = errors.New("not supported on windows")

// noSandbox never changes root, so confinement is always emulated.
type noSandbox struct{}

func DefaultSandbox() Sandbox {
	return noSandbox{}
}

func (noSandbox) CanChroot() bool { return false }

func (noSandbox) Chroot(fs afero.Fs, dir string) (afero.Fs, error) { return nil, errUnsupported }

func (noSandbox) Setgroups(gids []int) error { return errUnsupported }

func (noSandbox) Setgid(gid int) error { return errUnsupported }

func (noSandbox) Setuid(uid int) error { return errUnsupported }
