package constants

// Level is the enum used by risk impact and probability.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

var allLevels = []Level{LevelLow, LevelMedium, LevelHigh}

// QuestionType classifies an open question.
type QuestionType string

const (
	QuestionClarification QuestionType = "clarification"
	QuestionMissingDetail QuestionType = "missing_detail"
	QuestionDependency    QuestionType = "dependency"
	QuestionFunctional    QuestionType = "functional"
	QuestionNonFunctional QuestionType = "non_functional"
	QuestionTechnical     QuestionType = "technical"
)

var allQuestionTypes = []QuestionType{
	QuestionClarification,
	QuestionMissingDetail,
	QuestionDependency,
	QuestionFunctional,
	QuestionNonFunctional,
	QuestionTechnical,
}

// LevelsAsStrings returns the level enum in declaration order.
func LevelsAsStrings() []string {
	result := make([]string, len(allLevels))
	for i, l := range allLevels {
		result[i] = string(l)
	}
	return result
}

// QuestionTypesAsStrings returns the question type enum in declaration order.
func QuestionTypesAsStrings() []string {
	result := make([]string, len(allQuestionTypes))
	for i, q := range allQuestionTypes {
		result[i] = string(q)
	}
	return result
}

// Board item types that carry content.
const (
	ItemStickyNote = "sticky_note"
	ItemFrame      = "frame"
	ItemText       = "text"
	ItemShape      = "shape"
)

// IsContentItem reports whether a board item type is kept during extraction.
func IsContentItem(t string) bool {
	switch t {
	case ItemStickyNote, ItemFrame, ItemText, ItemShape:
		return true
	}
	return false
}
