package errors

var (
	// ErrDuplicateTransaction indicates the transaction id is already reserved or verified
	ErrDuplicateTransaction = New("transaction already processed")

	// ErrTransactionNotFound indicates the ledger has no entry for the id
	ErrTransactionNotFound = New("transaction not found")

	// ErrClientNotFound indicates the registry has no client for the username
	ErrClientNotFound = New("client not found")

	// ErrUpstreamUnavailable indicates the subscriber panel could not be reached or rejected the call
	ErrUpstreamUnavailable = New("subscriber panel unavailable")
)
