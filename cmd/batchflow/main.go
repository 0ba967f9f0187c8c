// Command batchflow runs line-oriented batch transformations on the
// pipeline engine, sequentially or on a worker pool.
package main

import (
	"fmt"
	"os"

	bferrors "github.com/vnykmshr/batchflow/pkg/common/errors"
)

// Exit codes.
const (
	exitFailure     = 1
	exitConfig      = 2
	exitTimeout     = 3
	exitInterrupted = 130
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case bferrors.IsValidationError(err):
		return exitConfig
	case bferrors.IsInterrupted(err):
		return exitInterrupted
	case bferrors.IsRetryable(err):
		return exitTimeout
	default:
		return exitFailure
	}
}
