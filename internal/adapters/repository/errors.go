package repository

import "errors"

// Sentinel kinds for ledger persistence errors.
var (
	ErrLedgerRead      = errors.New("read ledger")
	ErrLedgerWrite     = errors.New("write ledger")
	ErrMalformedLedger = errors.New("malformed ledger")
)
