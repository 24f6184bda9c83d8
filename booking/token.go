package booking

// TokenIssuer allocates the per-month queue token.
//
// Tokens for a month form a strictly increasing sequence starting at 1,
// shared across all users booking in that month. Issuance is serialized by
// the store transaction, so concurrent allocations for the same month can
// never observe the same counter value.
type TokenIssuer struct{}

// Issue returns the next token for the month.
func (TokenIssuer) Issue(tx Tx, month MonthID) (int, error) {
	return tx.NextToken(month)
}
