//go:build unix

package fsops

import (
	"os"

	"golang.org/x/sys/unix"
)

func mkfifo(path string, perm os.FileMode) error {
	return unix.Mkfifo(path, uint32(perm))
}
