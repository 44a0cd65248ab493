//go:build !windows
// +build !windows

package confine

import (
	"os"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// UnixSandbox implements Sandbox with chroot(2), setgroups(2), setgid(2) and
// setuid(2). On Linux the credential calls apply to every thread.
type UnixSandbox struct{}

func DefaultSandbox() Sandbox {
	return UnixSandbox{}
}

func (UnixSandbox) CanChroot() bool {
	return unix.Getuid() == 0
}

func (UnixSandbox) Chroot(fs afero.Fs, dir string) (afero.Fs, error) {
	if err := unix.Chroot(dir); err != nil {
		return nil, os.NewSyscallError("chroot", err)
	}
	if err := unix.Chdir("/"); err != nil {
		return nil, os.NewSyscallError("chdir", err)
	}
	return fs, nil
}

func (UnixSandbox) Setgroups(gids []int) error {
	return os.NewSyscallError("setgroups", unix.Setgroups(gids))
}

func (UnixSandbox) Setgid(gid int) error {
	return os.NewSyscallError("setgid", unix.Setgid(gid))
}

func (UnixSandbox) Setuid(uid int) error {
	return os.NewSyscallError("setuid", unix.Setuid(uid))
}
