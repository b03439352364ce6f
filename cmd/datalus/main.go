// Package main provides the datalus CLI.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// userError marks a failure caused by the command's input.
type userError struct {
	err error
}

func (e *userError) Error() string { return e.err.Error() }
func (e *userError) Unwrap() error { return e.err }

func userErrorf(format string, args ...any) error {
	return &userError{err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue *userError
	if errors.As(err, &ue) {
		return exitUserError
	}
	return exitSysError
}
