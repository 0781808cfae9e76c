package template

// MergeContexts merges template data maps into one; later maps win.
func MergeContexts(contexts ...map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for _, ctx := range contexts {
		for key, value := range ctx {
			result[key] = value
		}
	}

	return result
}
