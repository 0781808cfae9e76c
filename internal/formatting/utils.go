package formatting

import (
	"encoding/json"
	"fmt"
)

// PrettyJSON formats any value as indented JSON for human-readable display.
// Marshaling errors fall back to fmt.Sprintf.
//
// Example:
//
//	data := map[string]any{"name": "test", "value": 42}
//	fmt.Println(formatting.PrettyJSON(data))
//	// Output:
//	// {
//	//   "name": "test",
//	//   "value": 42
//	// }
func PrettyJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
