package domain

import "time"

// ProviderState represents the lifecycle state of a provider integration.
type ProviderState string

const (
	// ProviderStateActive indicates the provider accepts new work.
	ProviderStateActive ProviderState = "active"
	// ProviderStateInactive indicates the provider is administratively paused.
	ProviderStateInactive ProviderState = "inactive"
	// ProviderStateTrash indicates the provider is soft-deleted pending removal.
	ProviderStateTrash ProviderState = "trash"
)

// Provider is the credential record for one upstream integration.
type Provider struct {
	// ID is the unique identifier for the provider.
	ID string `json:"id"`
	// Name is the administrative display name.
	Name string `json:"name"`
	// APIURL is the base API endpoint of the provider.
	APIURL string `json:"api_url"`
	// APIKey is the secret key used to authenticate against the provider.
	APIKey string `json:"api_key"`
	// HTTPMethod is the preferred verb for provider calls (GET or POST).
	HTTPMethod string `json:"http_method"`
	// State is the lifecycle state of the integration.
	State ProviderState `json:"state"`
	// Config is the raw, possibly partial field-name mapping for this provider.
	Config ProviderConfig `json:"config"`
	// CreatedAt is when the provider was registered.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the provider was last edited.
	UpdatedAt time.Time `json:"updated_at"`
}

// Usable reports whether in-flight order operations may still run against
// this provider. Soft-deleted (trash) records remain usable during the
// grace period; only inactive providers are refused outright.
func (p Provider) Usable() bool {
	return p.State == ProviderStateActive || p.State == ProviderStateTrash
}
