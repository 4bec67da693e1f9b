package schema

// Normalize defaults openQuestions.unclassified to an empty list when it is
// absent. The input is not mutated; the affected maps are copied.
func Normalize(v any) any {
	root, ok := v.(map[string]any)
	if !ok {
		return v
	}
	oq, ok := root["openQuestions"].(map[string]any)
	if !ok {
		return v
	}
	if _, present := oq["unclassified"]; present {
		return v
	}

	oqCopy := make(map[string]any, len(oq)+1)
	for k, val := range oq {
		oqCopy[k] = val
	}
	oqCopy["unclassified"] = []any{}

	rootCopy := make(map[string]any, len(root))
	for k, val := range root {
		rootCopy[k] = val
	}
	rootCopy["openQuestions"] = oqCopy
	return rootCopy
}
