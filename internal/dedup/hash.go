// Package dedup fingerprints transactions so overlapping statement imports
// can skip rows that were already processed.
package dedup

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dvloznov/bill-reconciler/internal/domain"
)

// Hash returns a 16 hex digit fingerprint of the transaction's date,
// description and amount. Amounts are normalised to two decimals so
// "-450" and "-450.00" hash alike.
func Hash(tx domain.ParsedTransaction) string {
	key := tx.Date.String() + "|" + tx.Description + "|" + tx.Amount.StringFixed(2)
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

// HashAll returns the fingerprint of every transaction, in order.
func HashAll(txs []domain.ParsedTransaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = Hash(tx)
	}
	return out
}
