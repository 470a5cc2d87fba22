package cli

import (
	"context"
	"fmt"
	"os"
)

// dropToken removes the cached OAuth token so the next mail client build
// runs the interactive flow again.
func (e *env) dropToken() error {
	if err := os.Remove(e.cfg.TokenPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// resolveTransactionID accepts a full id or the 8-char prefix listings
// print, and returns the full id. Ambiguous prefixes are an error.
func (e *env) resolveTransactionID(ctx context.Context, id string) (string, error) {
	var ids []string
	err := e.db.SelectContext(ctx, &ids,
		`SELECT id FROM transactions WHERE id = ? OR id LIKE ? LIMIT 3`, id, id+"%")
	if err != nil {
		return "", fmt.Errorf("failed to resolve transaction id: %w", err)
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("no transaction matches id %q", id)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous, use more characters", id)
	}
}
