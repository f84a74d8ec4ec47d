package engine

import "context"

// Confirmer asks the operator to approve a transaction before it is sent.
// details describes what will happen; question is the yes/no prompt.
type Confirmer interface {
	Confirm(ctx context.Context, details, question string) (bool, error)
}

// AutoConfirm approves every transaction. It backs --yes.
type AutoConfirm struct{}

// Confirm implements Confirmer.
func (AutoConfirm) Confirm(context.Context, string, string) (bool, error) {
	return true, nil
}
