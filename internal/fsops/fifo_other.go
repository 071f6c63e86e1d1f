//go:build !unix

package fsops

import (
	"errors"
	"os"
)

func mkfifo(string, os.FileMode) error {
	return errors.ErrUnsupported
}
