package export

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/backlog-forge/internal/schema"
)

var storyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)As an?\s+(.+?),?\s+I want\s+(.+?),?\s+so that\s+(.+)`),
	regexp.MustCompile(`(?i)As an?\s+(.+?),?\s+I want\s+(.+?)\s+for\s+(.+)`),
	regexp.MustCompile(`(?i)As an?\s+(.+?)\s+I want\s+(.+?)\s+so that\s+(.+)`),
	regexp.MustCompile(`(?i)As an?\s+(.+?),?\s+I want to\s+(.+?),?\s+so that\s+(.+)`),
}

var (
	rolePrefixRe = regexp.MustCompile(`(?i)^As an?\s+\w+,?\s*`)
	wantPrefixRe = regexp.MustCompile(`(?i)^I want\s+`)
)

type userStory struct {
	Role    string
	Action  string
	Benefit string
}

// parseUserStory splits "As a [role], I want [action], so that [benefit]".
// Text that does not follow the template keeps its words as the action.
func parseUserStory(description string) userStory {
	for _, re := range storyPatterns {
		if m := re.FindStringSubmatch(description); m != nil {
			return userStory{
				Role:    strings.TrimSpace(m[1]),
				Action:  strings.TrimSpace(m[2]),
				Benefit: strings.TrimSpace(m[3]),
			}
		}
	}
	action := rolePrefixRe.ReplaceAllString(description, "")
	action = wantPrefixRe.ReplaceAllString(action, "")
	return userStory{Role: "a user", Action: action, Benefit: "improved experience"}
}

// Markdown renders the backlog as a checklist document suitable for pasting
// into an issue tracker.
func Markdown(b *schema.Backlog) string {
	var lines []string
	add := func(l ...string) { lines = append(lines, l...) }

	add("# Feature: "+b.ProjectSummary.Title, "")

	add("## Problem Statement", "", b.ProjectSummary.Description)
	if len(b.ProjectSummary.Objectives) > 0 {
		add("")
		for _, o := range b.ProjectSummary.Objectives {
			add("- " + o)
		}
	}
	add("")

	add("## User Stories", "")
	n := 1
	for _, e := range b.Epics {
		for _, s := range e.Stories {
			add(storyLines(s, n)...)
			add("")
			n++
		}
	}

	add("## Risks & Assumptions", "")
	for _, r := range b.Risks {
		add("- **Risk:** " + r.Description)
	}
	for _, a := range b.Assumptions {
		add("- **Assumption:** " + a.Description)
	}
	add("")

	if b.QuestionCount() > 0 || len(b.OpenQuestions.Unclassified) > 0 {
		add("## Open Questions", "")
		for _, c := range b.OpenQuestions.Categories {
			if len(c.Questions) == 0 {
				continue
			}
			add("### "+c.Category, "")
			for _, q := range c.Questions {
				add("- " + q.Question)
			}
			add("")
		}
		for _, u := range b.OpenQuestions.Unclassified {
			if s, ok := u.(string); ok && strings.TrimSpace(s) != "" {
				add("- " + s)
			}
		}
		if lines[len(lines)-1] != "" {
			add("")
		}
	}

	return strings.Join(lines, "\n")
}

// SingleStory renders one story as a standalone ticket.
func SingleStory(s schema.Story, number int) string {
	return strings.Join(storyLines(s, number), "\n")
}

func storyLines(s schema.Story, number int) []string {
	us := parseUserStory(s.ShortDescription)
	out := []string{
		"### US-" + strconv.Itoa(number) + ": " + s.Title,
		"",
		"**As** " + us.Role + " **I want** " + us.Action + " **for** " + us.Benefit,
		"",
		"**Acceptance Criteria:**",
	}
	for _, ac := range s.AcceptanceCriteria {
		out = append(out, "- [ ] "+ac)
	}
	return out
}
