package schema

import (
	"sort"

	"github.com/joseph-ayodele/backlog-forge/constants"
)

// ID patterns checked by the validator.
const (
	EpicIDPattern       = `^EPIC-\d{3}$`
	StoryIDPattern      = `^STORY-\d{3}-\d{2}$`
	RiskIDPattern       = `^RISK-\d{3}$`
	AssumptionIDPattern = `^ASSUMPTION-\d{3}$`
	QuestionIDPattern   = `^Q-\d{3}$`
)

// BuildBacklogJSONSchema returns the output contract as a JSON Schema (draft 2020-12)
// in generic map form. Unknown keys are allowed and dropped on decode.
func BuildBacklogJSONSchema() map[string]any {
	story := object(map[string]any{
		"id":                 idProp(StoryIDPattern),
		"title":              str(),
		"shortDescription":   str(),
		"fullDescription":    str(),
		"acceptanceCriteria": arrayOf(str()),
		"tags":               arrayOf(str()),
	})
	epic := object(map[string]any{
		"id":          idProp(EpicIDPattern),
		"title":       str(),
		"description": str(),
		"stories":     arrayOf(story),
	})
	risk := object(map[string]any{
		"id":          idProp(RiskIDPattern),
		"description": str(),
		"impact":      enum(constants.LevelsAsStrings()),
		"probability": enum(constants.LevelsAsStrings()),
		"mitigation":  str(),
	})
	assumption := object(map[string]any{
		"id":          idProp(AssumptionIDPattern),
		"description": str(),
		"reason":      str(),
	})
	question := object(map[string]any{
		"id":       idProp(QuestionIDPattern),
		"question": str(),
		"type":     enum(constants.QuestionTypesAsStrings()),
		"origin":   str(),
	})
	category := object(map[string]any{
		"category":  str(),
		"questions": arrayOf(question),
	})

	root := object(map[string]any{
		"projectSummary": object(map[string]any{
			"title":       str(),
			"description": str(),
			"objectives":  arrayOf(str()),
		}),
		"epics":       arrayOf(epic),
		"risks":       arrayOf(risk),
		"assumptions": arrayOf(assumption),
		"openQuestions": object(map[string]any{
			"unclassified": map[string]any{"type": "array"},
			"categories":   arrayOf(category),
		}),
	})
	root["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	return root
}

// object requires every listed property.
func object(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	sort.Strings(required)
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func str() map[string]any {
	return map[string]any{"type": "string"}
}

func idProp(pattern string) map[string]any {
	return map[string]any{"type": "string", "pattern": pattern}
}

func enum(values []string) map[string]any {
	return map[string]any{"type": "string", "enum": values}
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}
