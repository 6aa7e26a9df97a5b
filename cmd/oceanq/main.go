package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/argo-ocean/oceanq/internal/cli"
	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(oceanq.ExitPanic)
		}
	}()

	if os.Getenv("OCEANQ_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(oceanq.ExitCodeForError(err))
	}
}
