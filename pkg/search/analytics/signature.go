package analytics

import (
	"encoding/json"
	"fmt"
)

// Signature returns the canonical form of a criteria mapping, used to group
// repeated searches. encoding/json sorts map keys at every nesting level, so
// two criteria maps with the same keys and values always produce the same
// signature regardless of construction order.
func Signature(criteria map[string]any) string {
	data, err := json.Marshal(criteria)
	if err != nil {
		// Criteria values come from JSON decoding and are always
		// marshalable; this path covers hand-built maps in tests.
		return fmt.Sprintf("%#v", criteria)
	}
	return string(data)
}
