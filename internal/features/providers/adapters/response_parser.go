package adapters

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"

	"panel-connector/internal/features/providers/domain"
)

// snippetLimit bounds how much raw body a decode failure carries along.
const snippetLimit = 200

// Candidate wire names for fields whose spelling varies across provider
// dialects. Each list is consulted in priority order; the first present key
// wins, and an absent field is "not reported".
var (
	errorKeys           = []string{"error", "errors", "error_message"}
	statusKeys          = []string{"status", "order_status", "orderStatus"}
	refillStatusKeys    = []string{"status", "refill_status", "refillStatus"}
	orderIDKeys         = []string{"order", "order_id", "orderId", "id"}
	refillIDKeys        = []string{"refill", "refill_id", "refillId", "id"}
	refillAvailableKeys = []string{"refill", "refill_available", "refillAvailable", "can_refill", "canRefill"}
	chargeKeys          = []string{"charge", "cost", "price"}
	startCountKeys      = []string{"start_count", "startCount", "start"}
	remainsKeys         = []string{"remains", "remaining"}
	balanceKeys         = []string{"balance", "funds", "amount"}
	currencyKeys        = []string{"currency"}
	serviceIDKeys       = []string{"service", "service_id", "id"}
	serviceNameKeys     = []string{"name", "title"}
	serviceCategoryKeys = []string{"category", "cat"}
	serviceRateKeys     = []string{"rate", "price", "cost"}
	serviceMinKeys      = []string{"min"}
	serviceMaxKeys      = []string{"max"}
	serviceListKeys     = []string{"services", "data", "list"}
)

// ParseResponse normalizes a raw upstream body into a canonical result for
// the given operation. Decode failures and explicit upstream errors come
// back as *domain.CallError; an unrecognized status string degrades to
// StatusUnknown instead of failing the parse.
func ParseResponse(op domain.Operation, spec domain.FieldSpec, rawBody []byte) (domain.CanonicalResult, error) {
	decoded, err := decodeBody(spec.ResponseEncoding, rawBody)
	if err != nil {
		return domain.CanonicalResult{}, &domain.CallError{
			Kind:    domain.FailDecode,
			Snippet: snippet(rawBody),
			Err:     err,
		}
	}

	result := domain.CanonicalResult{Operation: op}

	fields, isMap := decoded.(map[string]any)
	if isMap {
		// An explicit upstream error field takes priority over any status.
		if message, found := upstreamError(fields); found {
			return result, &domain.CallError{Kind: domain.FailUpstream, Message: message}
		}
	}

	switch op {
	case domain.OpListServices:
		result.Services = extractServices(decoded)

	case domain.OpAddOrder:
		if isMap {
			result.OrderID = lookupString(fields, orderIDKeys)
			result.Status = statusOrPending(fields)
		}

	case domain.OpOrderStatus:
		if isMap {
			fillOrderStatus(&result, fields)
		}

	case domain.OpBatchOrderStatus:
		if isMap {
			result.Batch = extractBatch(fields)
		}

	case domain.OpRefill:
		if isMap {
			result.RefillID = lookupString(fields, refillIDKeys)
			result.Status = statusOrPending(fields)
		}

	case domain.OpRefillStatus:
		if isMap {
			result.Status = foldLookup(fields, refillStatusKeys)
		}

	case domain.OpCancel:
		if isMap {
			result.Status = foldLookup(fields, statusKeys)
		}

	case domain.OpBalance:
		if isMap {
			result.Balance = lookupString(fields, balanceKeys)
			result.Currency = lookupString(fields, currencyKeys)
			if result.Currency == "" {
				// De-facto panel default when the field is omitted.
				result.Currency = "USD"
			}
		}
	}

	return result, nil
}

// ExtractUpstreamMessage pulls an error message out of a non-2xx body on a
// best-effort basis. It never fails; an undecodable body yields "".
func ExtractUpstreamMessage(spec domain.FieldSpec, rawBody []byte) string {
	decoded, err := decodeBody(spec.ResponseEncoding, rawBody)
	if err != nil {
		return ""
	}
	fields, ok := decoded.(map[string]any)
	if !ok {
		return ""
	}
	message, _ := upstreamError(fields)
	return message
}

// statusOrPending folds a status field when the submission response carries
// one; an accepted submission without a status field counts as pending.
func statusOrPending(fields map[string]any) domain.CanonicalStatus {
	if raw := lookupString(fields, statusKeys); raw != "" {
		return domain.FoldStatus(raw)
	}
	return domain.StatusPending
}

// fillOrderStatus extracts the status-query fields shared by single and
// batched queries.
func fillOrderStatus(result *domain.CanonicalResult, fields map[string]any) {
	result.Status = foldLookup(fields, statusKeys)
	result.Charge = lookupString(fields, chargeKeys)
	result.StartCount = lookupString(fields, startCountKeys)
	result.Remains = lookupString(fields, remainsKeys)

	if value, found := lookup(fields, refillAvailableKeys); found {
		if b, ok := asBool(value); ok {
			result.RefillAvailable = &b
		}
	}
}

// extractBatch maps each upstream order id to its own sub-result. Entries
// carrying an explicit error keep the message without failing the batch.
func extractBatch(fields map[string]any) map[string]domain.CanonicalResult {
	batch := make(map[string]domain.CanonicalResult, len(fields))

	for orderID, raw := range fields {
		sub := domain.CanonicalResult{Operation: domain.OpOrderStatus}

		entry, ok := raw.(map[string]any)
		if !ok {
			sub.Status = domain.StatusUnknown
			batch[orderID] = sub
			continue
		}

		if message, found := upstreamError(entry); found {
			sub.Status = domain.StatusUnknown
			sub.ErrorMessage = message
			batch[orderID] = sub
			continue
		}

		fillOrderStatus(&sub, entry)
		batch[orderID] = sub
	}

	return batch
}

// extractServices handles both a bare top-level array and catalogs wrapped
// under a well-known key.
func extractServices(decoded any) []domain.Service {
	items, ok := decoded.([]any)
	if !ok {
		fields, isMap := decoded.(map[string]any)
		if !isMap {
			return nil
		}
		wrapped, found := lookup(fields, serviceListKeys)
		if !found {
			return nil
		}
		items, ok = wrapped.([]any)
		if !ok {
			return nil
		}
	}

	services := make([]domain.Service, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		service := domain.Service{
			ID:       lookupString(entry, serviceIDKeys),
			Name:     lookupString(entry, serviceNameKeys),
			Category: lookupString(entry, serviceCategoryKeys),
			Rate:     lookupString(entry, serviceRateKeys),
			Min:      lookupString(entry, serviceMinKeys),
			Max:      lookupString(entry, serviceMaxKeys),
		}
		if value, found := lookup(entry, refillAvailableKeys); found {
			if b, ok := asBool(value); ok {
				service.Refill = &b
			}
		}
		services = append(services, service)
	}

	return services
}

// upstreamError reports whether the payload carries an explicit error
// field. Falsy values ({"error": false}, empty strings) do not count.
func upstreamError(fields map[string]any) (string, bool) {
	value, found := lookup(fields, errorKeys)
	if !found {
		return "", false
	}

	switch v := value.(type) {
	case bool:
		if v {
			return "provider reported an error", true
		}
		return "", false
	case string:
		if strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := asString(item); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, "; "), true
	default:
		if s := asString(value); s != "" {
			return s, true
		}
		return "", false
	}
}

// decodeBody performs the structured decode per the declared encoding.
func decodeBody(encoding domain.ResponseEncoding, rawBody []byte) (any, error) {
	if encoding == domain.ResponseXML {
		return decodeXML(rawBody)
	}

	decoder := json.NewDecoder(bytes.NewReader(rawBody))
	decoder.UseNumber()

	var decoded any
	if err := decoder.Decode(&decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// decodeXML folds an XML document into the same generic shape the JSON
// decoder produces: leaf elements become strings, nested elements become
// maps, repeated siblings become slices.
func decodeXML(rawBody []byte) (any, error) {
	decoder := xml.NewDecoder(bytes.NewReader(rawBody))

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		if start, ok := token.(xml.StartElement); ok {
			return decodeXMLElement(decoder, start)
		}
	}
}

func decodeXMLElement(decoder *xml.Decoder, start xml.StartElement) (any, error) {
	children := map[string]any{}
	var text strings.Builder

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			child, err := decodeXMLElement(decoder, t)
			if err != nil {
				return nil, err
			}
			name := t.Name.Local
			if existing, ok := children[name]; ok {
				if list, ok := existing.([]any); ok {
					children[name] = append(list, child)
				} else {
					children[name] = []any{existing, child}
				}
			} else {
				children[name] = child
			}

		case xml.CharData:
			text.Write(t)

		case xml.EndElement:
			if len(children) > 0 {
				return children, nil
			}
			return strings.TrimSpace(text.String()), nil
		}
	}
}

// lookup consults candidate keys in priority order, falling back to a
// case-insensitive scan so dialect case variants still match.
func lookup(fields map[string]any, candidates []string) (any, bool) {
	for _, key := range candidates {
		if value, ok := fields[key]; ok {
			return value, true
		}
	}
	for _, key := range candidates {
		for present, value := range fields {
			if strings.EqualFold(present, key) {
				return value, true
			}
		}
	}
	return nil, false
}

func lookupString(fields map[string]any, candidates []string) string {
	value, found := lookup(fields, candidates)
	if !found {
		return ""
	}
	return asString(value)
}

func foldLookup(fields map[string]any, candidates []string) domain.CanonicalStatus {
	raw := lookupString(fields, candidates)
	if raw == "" {
		return domain.StatusUnknown
	}
	return domain.FoldStatus(raw)
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return ""
	}
}

// asBool interprets the boolean dialects providers actually send: native
// booleans, "1"/"0", "true"/"false", "yes"/"no" and bare numbers.
func asBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true, true
		case "0", "false", "no", "off", "":
			return false, true
		}
		return false, false
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return false, false
		}
		return f != 0, true
	default:
		return false, false
	}
}

func snippet(rawBody []byte) string {
	if len(rawBody) <= snippetLimit {
		return string(rawBody)
	}
	return string(rawBody[:snippetLimit])
}
