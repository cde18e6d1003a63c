package adapters

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"panel-connector/internal/features/providers/domain"
)

// BuildRequest translates one canonical operation into a ready-to-send
// request descriptor for the given provider dialect. It performs no I/O
// and never panics for syntactically valid inputs; malformed args return a
// BuildError, which indicates a caller bug.
func BuildRequest(op domain.Operation, spec domain.FieldSpec, provider domain.Provider, args any) (domain.RequestDescriptor, error) {
	params, err := operationParams(op, spec, args)
	if err != nil {
		return domain.RequestDescriptor{}, err
	}

	params[spec.APIKeyParam] = provider.APIKey
	params[spec.ActionParam] = spec.ActionFor(op)

	method := normalizeMethod(provider.HTTPMethod)

	if spec.RequestEncoding == domain.EncodingJSON {
		return encodeJSON(method, provider.APIURL, params)
	}
	return encodeForm(method, provider.APIURL, params)
}

// operationParams assembles the operation-specific parameters under the
// spec's configured wire names. Optional parameters are only included when
// the caller supplied them, so an omitted value is never sent as an
// explicit zero.
func operationParams(op domain.Operation, spec domain.FieldSpec, args any) (map[string]any, error) {
	params := make(map[string]any)

	switch op {
	case domain.OpListServices, domain.OpBalance:
		// Key and action only.

	case domain.OpAddOrder:
		a, ok := args.(domain.AddOrderArgs)
		if !ok {
			return nil, badArgs(op, args)
		}
		if a.Link == "" {
			return nil, &domain.BuildError{Op: op, Reason: "link is required"}
		}
		params[spec.ServiceIDParam] = a.ServiceID
		params[spec.LinkParam] = a.Link
		params[spec.QuantityParam] = a.Quantity
		if a.Runs != nil {
			params[spec.RunsParam] = *a.Runs
		}
		if a.Interval != nil {
			params[spec.IntervalParam] = *a.Interval
		}

	case domain.OpOrderStatus:
		a, ok := args.(domain.OrderStatusArgs)
		if !ok {
			return nil, badArgs(op, args)
		}
		if a.OrderID == "" {
			return nil, &domain.BuildError{Op: op, Reason: "order id is required"}
		}
		params[spec.OrderIDParam] = a.OrderID

	case domain.OpBatchOrderStatus:
		a, ok := args.(domain.BatchOrderStatusArgs)
		if !ok {
			return nil, badArgs(op, args)
		}
		if len(a.OrderIDs) == 0 {
			return nil, &domain.BuildError{Op: op, Reason: "at least one order id is required"}
		}
		params[spec.OrderIDsParam] = strings.Join(a.OrderIDs, ",")

	case domain.OpRefill:
		a, ok := args.(domain.RefillArgs)
		if !ok {
			return nil, badArgs(op, args)
		}
		if a.OrderID == "" {
			return nil, &domain.BuildError{Op: op, Reason: "order id is required"}
		}
		params[spec.OrderIDParam] = a.OrderID

	case domain.OpRefillStatus:
		a, ok := args.(domain.RefillStatusArgs)
		if !ok {
			return nil, badArgs(op, args)
		}
		if a.RefillID == "" {
			return nil, &domain.BuildError{Op: op, Reason: "refill id is required"}
		}
		params[spec.RefillIDParam] = a.RefillID

	case domain.OpCancel:
		a, ok := args.(domain.CancelArgs)
		if !ok {
			return nil, badArgs(op, args)
		}
		if a.OrderID == "" {
			return nil, &domain.BuildError{Op: op, Reason: "order id is required"}
		}
		params[spec.OrderIDParam] = a.OrderID

	default:
		return nil, &domain.BuildError{Op: op, Reason: "unknown operation"}
	}

	return params, nil
}

func encodeForm(method, apiURL string, params map[string]any) (domain.RequestDescriptor, error) {
	values := url.Values{}
	for key, value := range params {
		values.Set(key, stringify(value))
	}

	if method == http.MethodGet {
		parsed, err := url.Parse(apiURL)
		if err != nil {
			return domain.RequestDescriptor{}, &domain.BuildError{Op: "", Reason: fmt.Sprintf("invalid provider URL: %v", err)}
		}
		query := parsed.Query()
		for key := range values {
			query.Set(key, values.Get(key))
		}
		parsed.RawQuery = query.Encode()

		return domain.RequestDescriptor{
			URL:    parsed.String(),
			Method: http.MethodGet,
			Header: http.Header{},
		}, nil
	}

	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	return domain.RequestDescriptor{
		URL:    apiURL,
		Method: method,
		Header: header,
		Body:   []byte(values.Encode()),
	}, nil
}

func encodeJSON(method, apiURL string, params map[string]any) (domain.RequestDescriptor, error) {
	body, err := json.Marshal(params)
	if err != nil {
		// Params are strings and ints only, so this is unreachable in
		// practice; surfaced as a contract violation regardless.
		return domain.RequestDescriptor{}, &domain.BuildError{Op: "", Reason: fmt.Sprintf("marshal params: %v", err)}
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	return domain.RequestDescriptor{
		URL:    apiURL,
		Method: method,
		Header: header,
		Body:   body,
	}, nil
}

// normalizeMethod maps the provider's configured verb preference onto GET
// or POST, defaulting to POST when unset or invalid.
func normalizeMethod(preference string) string {
	if strings.EqualFold(strings.TrimSpace(preference), http.MethodGet) {
		return http.MethodGet
	}
	return http.MethodPost
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func badArgs(op domain.Operation, args any) error {
	return &domain.BuildError{Op: op, Reason: fmt.Sprintf("unexpected args type %T", args)}
}
