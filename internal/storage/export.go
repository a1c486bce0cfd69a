package storage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportMarkdown renders a session with its answer and grade history as a markdown document.
func ExportMarkdown(sess *Session, answer *Answer, grades []Grade) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# %s\n\n", sess.QuestionID))
	b.WriteString(fmt.Sprintf("- **Session:** %s\n", sess.ID))
	b.WriteString(fmt.Sprintf("- **Language:** %s\n", sess.Language))
	b.WriteString(fmt.Sprintf("- **Created:** %s\n", sess.CreatedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("- **Status:** %s\n", sess.Status))
	b.WriteString("\n---\n\n")

	b.WriteString("## Answer\n\n")
	if answer == nil || answer.Source == "" {
		b.WriteString("_No answer saved._\n\n")
	} else {
		b.WriteString(fmt.Sprintf("```%s\n%s\n```\n\n", sess.Language, strings.TrimRight(answer.Source, "\n")))
	}

	b.WriteString("## Grades\n\n")
	if len(grades) == 0 {
		b.WriteString("_Not graded yet._\n")
		return b.String()
	}
	b.WriteString("| # | Passed | Total | When |\n|---|---|---|---|\n")
	for i, g := range grades {
		b.WriteString(fmt.Sprintf("| %d | %d | %d | %s |\n", i+1, g.Passed, g.Total, g.CreatedAt.Format("2006-01-02 15:04:05")))
	}
	return b.String()
}

// ExportJSON renders a session with its answer and grades as formatted JSON.
func ExportJSON(sess *Session, answer *Answer, grades []Grade) ([]byte, error) {
	if grades == nil {
		grades = []Grade{}
	}
	export := struct {
		Session *Session `json:"session"`
		Answer  *Answer  `json:"answer"`
		Grades  []Grade  `json:"grades"`
	}{
		Session: sess,
		Answer:  answer,
		Grades:  grades,
	}
	return json.MarshalIndent(export, "", "  ")
}
