package promax

import (
	"strconv"
	"strings"

	"github.com/jsiptv/mobipay/internal/domain/provider"
)

// The panel's envelope is loosely typed: the payload may be a bare object or a
// one-element array, status may be a boolean, a number or the strings
// "true"/"1", and the message can live under several keys, one of them
// misspelled upstream. Everything is folded into provider.Result here so no
// other component ever touches the raw shape.

func primaryRecord(payload interface{}) map[string]interface{} {
	if arr, ok := payload.([]interface{}); ok {
		if len(arr) == 0 {
			return nil
		}
		payload = arr[0]
	}
	if obj, ok := payload.(map[string]interface{}); ok {
		return obj
	}
	return nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t == 1
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "1"
	default:
		return false
	}
}

func envelopeSuccess(payload interface{}) bool {
	record := primaryRecord(payload)
	if record == nil {
		return false
	}
	status, present := record["status"]
	if !present || status == nil {
		return false
	}
	return truthy(status)
}

// extractMessage checks the known message keys, including the upstream
// misspelling "messasge".
func extractMessage(payload interface{}) string {
	record := primaryRecord(payload)
	if record == nil {
		return ""
	}
	for _, key := range []string{"message", "messasge", "error", "description"} {
		if v, ok := record[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func toResult(payload interface{}) *provider.Result {
	return &provider.Result{
		OK:      envelopeSuccess(payload),
		Message: extractMessage(payload),
		Fields:  primaryRecord(payload),
	}
}

func stringField(record map[string]interface{}, key string) string {
	if record == nil {
		return ""
	}
	switch v := record[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
