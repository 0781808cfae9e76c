package backlog

import (
	"fmt"
	"net/url"
	"strconv"
)

// CustomField is a custom field value for issue creation. Value is a string,
// a number, or a list of strings for multi-select fields.
type CustomField struct {
	ID         int    `json:"id"`
	Value      any    `json:"value"`
	OtherValue string `json:"otherValue,omitempty"`
}

// CustomFieldsToPayload converts custom fields into Backlog's form keys:
// customField_{id} and, when set, customField_{id}_otherValue.
func CustomFieldsToPayload(fields []CustomField) url.Values {
	values := url.Values{}
	for _, f := range fields {
		addFormValue(values, fmt.Sprintf("customField_%d", f.ID), f.Value)
		if f.OtherValue != "" {
			values.Set(fmt.Sprintf("customField_%d_otherValue", f.ID), f.OtherValue)
		}
	}
	return values
}

// addFormValue encodes v under key. Slices use Backlog's key[] convention.
func addFormValue(values url.Values, key string, v any) {
	switch val := v.(type) {
	case nil:
	case string:
		values.Set(key, val)
	case int:
		values.Set(key, strconv.Itoa(val))
	case int64:
		values.Set(key, strconv.FormatInt(val, 10))
	case float64:
		values.Set(key, strconv.FormatFloat(val, 'f', -1, 64))
	case bool:
		values.Set(key, strconv.FormatBool(val))
	case []string:
		for _, s := range val {
			values.Add(key+"[]", s)
		}
	case []int:
		for _, n := range val {
			values.Add(key+"[]", strconv.Itoa(n))
		}
	case []any:
		for _, item := range val {
			values.Add(key+"[]", fmt.Sprint(item))
		}
	default:
		values.Set(key, fmt.Sprint(val))
	}
}

func addInts(values url.Values, key string, ids []int) {
	if len(ids) > 0 {
		addFormValue(values, key, ids)
	}
}

func addPositive(values url.Values, key string, n int) {
	if n > 0 {
		values.Set(key, strconv.Itoa(n))
	}
}

func addString(values url.Values, key, s string) {
	if s != "" {
		values.Set(key, s)
	}
}
