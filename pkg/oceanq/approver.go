package oceanq

import "context"

// Approver handles user interaction for approval workflows,
// in particular replacing the rows of a populated measurement table.
//
// Implementations:
//   - ForcedApprover: Shows countdown and automatically approves
//   - InteractiveApprover: Prompts user to type the table name for confirmation
//   - DenyingApprover: Refuses without prompting (non-interactive runs)
type Approver interface {
	// RequestApproval asks for confirmation before truncating table,
	// which currently holds rows rows.
	RequestApproval(ctx context.Context, table string, rows int64) (bool, error)
}
