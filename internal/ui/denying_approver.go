package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

// DenyingApprover refuses every request without prompting. It is used when
// no terminal is attached and --force was not given.
type DenyingApprover struct {
	output io.Writer
}

// NewDenyingApprover creates a new DenyingApprover.
func NewDenyingApprover() oceanq.Approver {
	return &DenyingApprover{output: os.Stderr}
}

func (a *DenyingApprover) RequestApproval(_ context.Context, table string, _ int64) (bool, error) {
	if a.output != nil {
		fmt.Fprintf(a.output, "Refusing to replace '%s' without a terminal; rerun with --force.\n", table)
	}
	return false, nil
}

var _ oceanq.Approver = (*DenyingApprover)(nil)
