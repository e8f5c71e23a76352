package vector

import "fmt"

// MetadataToAny widens string metadata for backends that accept JSON values.
func MetadataToAny(md map[string]string) map[string]any {
	if len(md) == 0 {
		return nil
	}
	out := make(map[string]any, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}

// MetadataFromAny narrows backend metadata to strings. Non-string values are
// formatted with %v.
func MetadataFromAny(md map[string]any) map[string]string {
	if len(md) == 0 {
		return nil
	}
	out := make(map[string]string, len(md))
	for k, v := range md {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			out[k] = t
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}
