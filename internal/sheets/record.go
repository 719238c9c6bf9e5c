package sheets

import (
	"strconv"
	"strings"
)

// Record is one raw row as the sheet backend returns it. Column header
// casing is inconsistent upstream (Requestor vs requestor, depending on who
// last edited the sheet), so field access is case-insensitive and the
// reconciliation happens here, once, instead of at every read site.
type Record map[string]interface{}

// String returns the first non-empty value among the given keys, compared
// case-insensitively, rendered as a trimmed string.
func (r Record) String(keys ...string) string {
	for _, key := range keys {
		for field, value := range r {
			if strings.EqualFold(field, key) {
				if s := stringify(value); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// Rest returns every field not named in known, stringified, preserving
// pass-through columns the gateway does not model.
func (r Record) Rest(known ...string) map[string]string {
	if len(r) == 0 {
		return nil
	}
	rest := make(map[string]string)
	for field, value := range r {
		recognised := false
		for _, key := range known {
			if strings.EqualFold(field, key) {
				recognised = true
				break
			}
		}
		if !recognised {
			rest[field] = stringify(value)
		}
	}
	if len(rest) == 0 {
		return nil
	}
	return rest
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
