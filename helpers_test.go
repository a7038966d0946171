package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

/* general testing helpers */

func tcheck(tb testing.TB, err error) {
	if err == nil {
		return
	}

	tb.Helper()
	tb.Fatalf("fatal error:\n\n%s\n", err)
}

func tcheckf(tb testing.TB, err error, format string, args ...any) {
	if err == nil {
		return
	}

	tb.Helper()
	tb.Fatalf("fatal error:\n\n%s: %s\n", fmt.Sprintf(format, args...), err)
}

// tempOutfile creates a file in a temporary directory, as the --trace flag
// would.
func tempOutfile(tb testing.TB, name string) *outfile {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)
	fd, err := os.Create(path)
	tcheck(tb, err)
	return &outfile{w: fd, name: path, close: fd.Close}
}
