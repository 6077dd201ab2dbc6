// Package repository persists the points ledger.
package repository

import (
	"context"

	"github.com/okian/questboard/internal/domain/ledger"
)

// Store loads and saves the whole ledger. Each invocation loads once,
// mutates in memory and saves once.
type Store interface {
	// Load returns the stored ledger, or an empty one when nothing is stored.
	Load(ctx context.Context) (*ledger.Ledger, error)
	// Save replaces the stored ledger with l.
	Save(ctx context.Context, l *ledger.Ledger) error
}
