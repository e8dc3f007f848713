package assistant

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AutomationResult is the outcome of one automation call, decided once at
// the capability boundary. The underlying payload is either structured
// (decodes as a JSON object or array) or opaque text; downstream code never
// re-probes the raw payload.
type AutomationResult struct {
	raw    string
	object map[string]interface{}
	isList bool
}

// ParseResult classifies a raw automation payload exactly once.
func ParseResult(raw string) AutomationResult {
	res := AutomationResult{raw: raw}
	trimmed := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(trimmed, "{"):
		var obj map[string]interface{}
		if err := json.UnmarshalFromString(trimmed, &obj); err == nil {
			res.object = obj
		}
	case strings.HasPrefix(trimmed, "["):
		var list []interface{}
		if err := json.UnmarshalFromString(trimmed, &list); err == nil {
			res.isList = true
		}
	}
	return res
}

// errorResult wraps an automation call failure as an in-band structured
// error so every failure folds through the same path.
func errorResult(err error) AutomationResult {
	return AutomationResult{
		raw:    err.Error(),
		object: map[string]interface{}{"error": err.Error()},
	}
}

// IsStructured reports whether the payload decoded as JSON.
func (r AutomationResult) IsStructured() bool {
	return r.object != nil || r.isList
}

// IsList reports whether the payload decoded as a JSON array.
func (r AutomationResult) IsList() bool {
	return r.isList
}

// ErrorMessage returns the in-band error value, if the payload is a
// structured object carrying one.
func (r AutomationResult) ErrorMessage() (string, bool) {
	if r.object == nil {
		return "", false
	}
	v, ok := r.object["error"]
	if !ok {
		return "", false
	}
	msg, ok := v.(string)
	if !ok || msg == "" {
		return "", false
	}
	return msg, true
}

// Decode unmarshals the structured payload into v.
func (r AutomationResult) Decode(v interface{}) error {
	return json.UnmarshalFromString(strings.TrimSpace(r.raw), v)
}

// Text returns the raw payload for verbatim passthrough.
func (r AutomationResult) Text() string {
	return r.raw
}
