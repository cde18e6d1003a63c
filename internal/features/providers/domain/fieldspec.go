package domain

import (
	"strings"
	"time"
)

// Operation identifies one of the canonical operations issued uniformly
// against every provider regardless of its dialect.
type Operation string

const (
	// OpListServices fetches the provider's service catalog.
	OpListServices Operation = "listServices"
	// OpAddOrder places a new order with the provider.
	OpAddOrder Operation = "addOrder"
	// OpOrderStatus queries the status of a single upstream order.
	OpOrderStatus Operation = "orderStatus"
	// OpBatchOrderStatus queries the status of multiple upstream orders at once.
	OpBatchOrderStatus Operation = "batchOrderStatus"
	// OpRefill requests a refill for a completed or partial order.
	OpRefill Operation = "refill"
	// OpRefillStatus queries the status of a previously submitted refill.
	OpRefillStatus Operation = "refillStatus"
	// OpCancel requests cancellation of an upstream order.
	OpCancel Operation = "cancel"
	// OpBalance queries the remaining account balance at the provider.
	OpBalance Operation = "balance"
)

// RequestEncoding selects how request parameters are put on the wire.
type RequestEncoding string

const (
	// EncodingForm sends parameters urlencoded (body for POST, query for GET).
	EncodingForm RequestEncoding = "form"
	// EncodingJSON sends parameters as a JSON body.
	EncodingJSON RequestEncoding = "json"
)

// ResponseEncoding selects how response bodies are decoded.
type ResponseEncoding string

const (
	// ResponseJSON decodes response bodies as JSON.
	ResponseJSON ResponseEncoding = "json"
	// ResponseXML decodes response bodies as XML.
	ResponseXML ResponseEncoding = "xml"
)

// ProviderConfig is the raw field-name mapping persisted with a provider
// record. Zero values mean "not configured"; SpecFromConfig substitutes
// the conventional default for each.
//
// Providers created before a field existed simply carry the zero value for
// it, so a partially configured provider never produces an unbuildable
// request.
type ProviderConfig struct {
	APIKeyParam string `json:"api_key_param,omitempty"`
	ActionParam string `json:"action_param,omitempty"`

	ServicesAction string `json:"services_action,omitempty"`

	AddOrderAction string `json:"add_order_action,omitempty"`
	ServiceIDParam string `json:"service_id_param,omitempty"`
	LinkParam      string `json:"link_param,omitempty"`
	QuantityParam  string `json:"quantity_param,omitempty"`
	RunsParam      string `json:"runs_param,omitempty"`
	IntervalParam  string `json:"interval_param,omitempty"`

	StatusAction  string `json:"status_action,omitempty"`
	OrderIDParam  string `json:"order_id_param,omitempty"`
	OrderIDsParam string `json:"order_ids_param,omitempty"`

	RefillAction       string `json:"refill_action,omitempty"`
	RefillStatusAction string `json:"refill_status_action,omitempty"`
	RefillIDParam      string `json:"refill_id_param,omitempty"`
	RefillIDsParam     string `json:"refill_ids_param,omitempty"`

	CancelAction string `json:"cancel_action,omitempty"`

	BalanceAction string `json:"balance_action,omitempty"`

	RequestEncoding   string `json:"request_encoding,omitempty"`
	ResponseEncoding  string `json:"response_encoding,omitempty"`
	TimeoutSeconds    int    `json:"timeout_seconds,omitempty"`
	RequestsPerMinute int    `json:"requests_per_minute,omitempty"`
}

// FieldSpec is the fully populated, immutable per-provider specification.
// Every field is guaranteed non-zero after SpecFromConfig.
type FieldSpec struct {
	APIKeyParam string
	ActionParam string

	ServicesAction string

	AddOrderAction string
	ServiceIDParam string
	LinkParam      string
	QuantityParam  string
	RunsParam      string
	IntervalParam  string

	StatusAction  string
	OrderIDParam  string
	OrderIDsParam string

	RefillAction       string
	RefillStatusAction string
	RefillIDParam      string
	RefillIDsParam     string

	CancelAction string

	BalanceAction string

	RequestEncoding  RequestEncoding
	ResponseEncoding ResponseEncoding
	Timeout          time.Duration
	// RequestsPerMinute caps outbound calls to this provider. 0 means uncapped.
	RequestsPerMinute int
}

// SpecFromConfig builds a complete FieldSpec from a raw provider config,
// substituting industry-convention defaults for every unset field. It is
// total: there is no error path. Callers rebuild the spec from the stored
// record on every orchestration run so administrative edits take effect on
// the next request.
func SpecFromConfig(cfg ProviderConfig) FieldSpec {
	spec := FieldSpec{
		APIKeyParam: orDefault(cfg.APIKeyParam, "key"),
		ActionParam: orDefault(cfg.ActionParam, "action"),

		ServicesAction: orDefault(cfg.ServicesAction, "services"),

		AddOrderAction: orDefault(cfg.AddOrderAction, "add"),
		ServiceIDParam: orDefault(cfg.ServiceIDParam, "service"),
		LinkParam:      orDefault(cfg.LinkParam, "link"),
		QuantityParam:  orDefault(cfg.QuantityParam, "quantity"),
		RunsParam:      orDefault(cfg.RunsParam, "runs"),
		IntervalParam:  orDefault(cfg.IntervalParam, "interval"),

		StatusAction:  orDefault(cfg.StatusAction, "status"),
		OrderIDParam:  orDefault(cfg.OrderIDParam, "order"),
		OrderIDsParam: orDefault(cfg.OrderIDsParam, "orders"),

		RefillAction:       orDefault(cfg.RefillAction, "refill"),
		RefillStatusAction: orDefault(cfg.RefillStatusAction, "refill_status"),
		RefillIDParam:      orDefault(cfg.RefillIDParam, "refill"),
		RefillIDsParam:     orDefault(cfg.RefillIDsParam, "refills"),

		CancelAction: orDefault(cfg.CancelAction, "cancel"),

		BalanceAction: orDefault(cfg.BalanceAction, "balance"),

		RequestEncoding:   EncodingForm,
		ResponseEncoding:  ResponseJSON,
		Timeout:           30 * time.Second,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}

	if strings.EqualFold(cfg.RequestEncoding, string(EncodingJSON)) {
		spec.RequestEncoding = EncodingJSON
	}
	if strings.EqualFold(cfg.ResponseEncoding, string(ResponseXML)) {
		spec.ResponseEncoding = ResponseXML
	}
	if cfg.TimeoutSeconds > 0 {
		spec.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if spec.RequestsPerMinute < 0 {
		spec.RequestsPerMinute = 0
	}

	return spec
}

// ActionFor returns the configured action value for the given operation.
func (s FieldSpec) ActionFor(op Operation) string {
	switch op {
	case OpListServices:
		return s.ServicesAction
	case OpAddOrder:
		return s.AddOrderAction
	case OpOrderStatus, OpBatchOrderStatus:
		return s.StatusAction
	case OpRefill:
		return s.RefillAction
	case OpRefillStatus:
		return s.RefillStatusAction
	case OpCancel:
		return s.CancelAction
	case OpBalance:
		return s.BalanceAction
	default:
		return ""
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
