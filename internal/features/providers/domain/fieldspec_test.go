package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestSpecFromConfig_Empty verifies that a completely unconfigured provider
// still yields a fully populated spec.
func TestSpecFromConfig_Empty(t *testing.T) {
	spec := SpecFromConfig(ProviderConfig{})

	assert.Equal(t, "key", spec.APIKeyParam)
	assert.Equal(t, "action", spec.ActionParam)
	assert.Equal(t, "services", spec.ServicesAction)
	assert.Equal(t, "add", spec.AddOrderAction)
	assert.Equal(t, "service", spec.ServiceIDParam)
	assert.Equal(t, "link", spec.LinkParam)
	assert.Equal(t, "quantity", spec.QuantityParam)
	assert.Equal(t, "runs", spec.RunsParam)
	assert.Equal(t, "interval", spec.IntervalParam)
	assert.Equal(t, "status", spec.StatusAction)
	assert.Equal(t, "order", spec.OrderIDParam)
	assert.Equal(t, "orders", spec.OrderIDsParam)
	assert.Equal(t, "refill", spec.RefillAction)
	assert.Equal(t, "refill_status", spec.RefillStatusAction)
	assert.Equal(t, "refill", spec.RefillIDParam)
	assert.Equal(t, "refills", spec.RefillIDsParam)
	assert.Equal(t, "cancel", spec.CancelAction)
	assert.Equal(t, "balance", spec.BalanceAction)
	assert.Equal(t, EncodingForm, spec.RequestEncoding)
	assert.Equal(t, ResponseJSON, spec.ResponseEncoding)
	assert.Equal(t, 30*time.Second, spec.Timeout)
	assert.Equal(t, 0, spec.RequestsPerMinute)
}

// TestSpecFromConfig_Partial verifies that configured fields win and the
// rest still fall back to defaults.
func TestSpecFromConfig_Partial(t *testing.T) {
	spec := SpecFromConfig(ProviderConfig{
		APIKeyParam:    "api_key",
		AddOrderAction: "new_order",
		TimeoutSeconds: 10,
	})

	assert.Equal(t, "api_key", spec.APIKeyParam)
	assert.Equal(t, "new_order", spec.AddOrderAction)
	assert.Equal(t, 10*time.Second, spec.Timeout)

	// Unset fields keep their defaults.
	assert.Equal(t, "action", spec.ActionParam)
	assert.Equal(t, "status", spec.StatusAction)
	assert.Equal(t, "cancel", spec.CancelAction)
}

// TestSpecFromConfig_Encodings verifies the encoding escape hatches.
func TestSpecFromConfig_Encodings(t *testing.T) {
	spec := SpecFromConfig(ProviderConfig{
		RequestEncoding:  "JSON",
		ResponseEncoding: "xml",
	})
	assert.Equal(t, EncodingJSON, spec.RequestEncoding)
	assert.Equal(t, ResponseXML, spec.ResponseEncoding)

	// Unrecognized values fall back rather than erroring.
	spec = SpecFromConfig(ProviderConfig{
		RequestEncoding:  "yaml",
		ResponseEncoding: "protobuf",
	})
	assert.Equal(t, EncodingForm, spec.RequestEncoding)
	assert.Equal(t, ResponseJSON, spec.ResponseEncoding)
}

// TestSpecFromConfig_WhitespaceIsUnset verifies blank strings count as unset.
func TestSpecFromConfig_WhitespaceIsUnset(t *testing.T) {
	spec := SpecFromConfig(ProviderConfig{APIKeyParam: "   "})
	assert.Equal(t, "key", spec.APIKeyParam)
}

// TestFieldSpec_ActionFor verifies the action lookup for every operation.
func TestFieldSpec_ActionFor(t *testing.T) {
	spec := SpecFromConfig(ProviderConfig{})

	assert.Equal(t, "services", spec.ActionFor(OpListServices))
	assert.Equal(t, "add", spec.ActionFor(OpAddOrder))
	assert.Equal(t, "status", spec.ActionFor(OpOrderStatus))
	assert.Equal(t, "status", spec.ActionFor(OpBatchOrderStatus))
	assert.Equal(t, "refill", spec.ActionFor(OpRefill))
	assert.Equal(t, "refill_status", spec.ActionFor(OpRefillStatus))
	assert.Equal(t, "cancel", spec.ActionFor(OpCancel))
	assert.Equal(t, "balance", spec.ActionFor(OpBalance))
}
