package provider

import (
	"context"
	"fmt"

	"github.com/jsiptv/mobipay/internal/domain/entity"
)

// SubscriberProvider abstracts the upstream subscriber-management panel.
// Implementations normalize the panel's loosely-typed envelopes into Result
// values; nothing outside an implementation inspects raw upstream fields.
type SubscriberProvider interface {
	// Lookup fetches the account's current state. A nil Subscriber with a nil
	// error means the account does not exist upstream.
	Lookup(ctx context.Context, account string) (*entity.Subscriber, error)

	// Create provisions a new line for the account with the given duration
	Create(ctx context.Context, account string, months int) (*Result, error)

	// Renew extends an existing line by the given duration. Renewal never
	// implicitly re-enables a disabled line.
	Renew(ctx context.Context, username string, months int) (*Result, error)

	// SetEnabled flips the enabled flag on an existing line
	SetEnabled(ctx context.Context, username string, enabled bool) (*Result, error)

	// ListCatalog returns the public bouquet catalog
	ListCatalog(ctx context.Context) ([]entity.Bouquet, error)

	// CreateTrial provisions a trial line and returns its credentials
	CreateTrial(ctx context.Context, req *CreateTrialRequest) (*entity.TrialCredentials, error)

	// ExtendLine renews a line authenticated by its own credentials
	ExtendLine(ctx context.Context, username, password string, months int) (*Result, error)

	// LineInfo fetches line details authenticated by the line's credentials
	LineInfo(ctx context.Context, username, password, mac string) (*Result, error)
}

// Result is the normalized outcome of an upstream call. OK folds the panel's
// inconsistent success signaling (boolean, numeric, string truthy) into one
// flag; Message is the extracted human-readable detail; Fields is the payload
// snapshot echoed back to callers.
type Result struct {
	OK      bool                   `json:"ok"`
	Message string                 `json:"message,omitempty"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// CreateTrialRequest carries the inputs for trial provisioning
type CreateTrialRequest struct {
	AccountReference string
	Email            string
	FullName         string
	DeviceType       string // "m3u" or "mag"
	PackID           int64
	TrialDays        int
}

// ProviderError represents a transport-level failure talking to the panel
type ProviderError struct {
	Op      string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("promax %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("promax %s: %s", e.Op, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
