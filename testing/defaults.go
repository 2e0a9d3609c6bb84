package testing

import (
	"os"
	"path/filepath"
)

const DefaultTestDirRoot = "stopd-test"

func DefaultTestDir() string {
	return filepath.Join(os.TempDir(), DefaultTestDirRoot)
}
