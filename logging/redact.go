package logging

// RedactionMarker replaces the value of every sensitive metadata key.
const RedactionMarker = "[REDACTED]"

// sensitiveFields is the PHI denylist. Keys are matched exactly.
var sensitiveFields = map[string]struct{}{
	"patient_id":   {},
	"ssn":          {},
	"dob":          {},
	"mrn":          {},
	"insurance_id": {},
	"phone":        {},
	"address":      {},
}

// SensitiveFields returns the metadata keys that are always redacted.
func SensitiveFields() []string {
	fields := make([]string, 0, len(sensitiveFields))
	for k := range sensitiveFields {
		fields = append(fields, k)
	}
	return fields
}

// IsSensitive reports whether key is on the PHI denylist.
func IsSensitive(key string) bool {
	_, ok := sensitiveFields[key]
	return ok
}

// Redact returns a shallow copy of meta with every sensitive key replaced by
// RedactionMarker. Non-sensitive keys pass through unchanged and meta itself
// is never modified. A nil map yields nil.
//
// Example:
//
//	logging.Redact(logging.Meta{"patient_id": "123", "method": "GET"})
//	// => {"patient_id": "[REDACTED]", "method": "GET"}
func Redact(meta Meta) Meta {
	if meta == nil {
		return nil
	}

	redacted := make(Meta, len(meta))
	for k, v := range meta {
		if IsSensitive(k) {
			redacted[k] = RedactionMarker
			continue
		}
		redacted[k] = v
	}
	return redacted
}
