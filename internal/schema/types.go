package schema

// Backlog is the validated structured output of a run.
type Backlog struct {
	ProjectSummary ProjectSummary `json:"projectSummary"`
	Epics          []Epic         `json:"epics"`
	Risks          []Risk         `json:"risks"`
	Assumptions    []Assumption   `json:"assumptions"`
	OpenQuestions  OpenQuestions  `json:"openQuestions"`
}

type ProjectSummary struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Objectives  []string `json:"objectives"`
}

type Epic struct {
	ID          string  `json:"id"` // EPIC-###
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Stories     []Story `json:"stories"`
}

type Story struct {
	ID                 string   `json:"id"` // STORY-###-##
	Title              string   `json:"title"`
	ShortDescription   string   `json:"shortDescription"`
	FullDescription    string   `json:"fullDescription"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	Tags               []string `json:"tags"`
}

type Risk struct {
	ID          string `json:"id"` // RISK-###
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Probability string `json:"probability"`
	Mitigation  string `json:"mitigation"`
}

type Assumption struct {
	ID          string `json:"id"` // ASSUMPTION-###
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

type OpenQuestions struct {
	Unclassified []any             `json:"unclassified"`
	Categories   []QuestionCategory `json:"categories"`
}

type QuestionCategory struct {
	Category  string     `json:"category"`
	Questions []Question `json:"questions"`
}

type Question struct {
	ID       string `json:"id"` // Q-###
	Question string `json:"question"`
	Type     string `json:"type"`
	Origin   string `json:"origin"`
}

// StoryCount is the number of stories across all epics.
func (b *Backlog) StoryCount() int {
	n := 0
	for _, e := range b.Epics {
		n += len(e.Stories)
	}
	return n
}

// QuestionCount is the number of categorized questions.
func (b *Backlog) QuestionCount() int {
	n := 0
	for _, c := range b.OpenQuestions.Categories {
		n += len(c.Questions)
	}
	return n
}
