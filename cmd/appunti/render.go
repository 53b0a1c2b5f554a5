package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"appunti/internal/results"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderVariant formats a normalized analysis for terminal display.
func renderVariant(v *results.Variant) string {
	var b strings.Builder

	fmt.Fprintf(&b, "== %s ==\n\n", v.ContentType.Label())
	fmt.Fprintf(&b, "%s\n", v.Summary)

	switch {
	case v.Lesson != nil:
		renderLesson(&b, v.Lesson)
	case v.Meeting != nil:
		renderMeeting(&b, v.Meeting)
	case v.Interview != nil:
		renderInterview(&b, v.Interview)
	}

	if len(v.FollowUpQuestions) > 0 {
		renderList(&b, "Domande di approfondimento", v.FollowUpQuestions)
	}
	return b.String()
}

func renderLesson(b *strings.Builder, d *results.LessonDetails) {
	renderList(b, "Punti chiave", d.KeyPoints)
	renderList(b, "Argomenti", d.Topics)
	renderParticipants(b, d.Participants)
	if len(d.ExamQuestions) > 0 {
		fmt.Fprintf(b, "\nDomande d'esame:\n")
		for _, q := range d.ExamQuestions {
			fmt.Fprintf(b, "  - %s [%s]\n", q.Question, q.Difficulty)
			if q.Answer != "" {
				fmt.Fprintf(b, "    %s\n", q.Answer)
			}
		}
	}
	renderList(b, "Bibliografia", d.Bibliography)
}

func renderMeeting(b *strings.Builder, d *results.MeetingDetails) {
	renderList(b, "Decisioni", d.Decisions)
	if len(d.Tasks) > 0 {
		fmt.Fprintf(b, "\nAttivita:\n")
		for _, task := range d.Tasks {
			fmt.Fprintf(b, "  - %s (%s, %s)\n", task.Description, task.Assignee, task.Priority)
			if task.DueDate != "" {
				fmt.Fprintf(b, "    entro %s\n", task.DueDate)
			}
		}
	}
	renderParticipants(b, d.Participants)
	renderList(b, "Prossimi passi", d.NextSteps)
}

func renderInterview(b *strings.Builder, d *results.InterviewDetails) {
	fmt.Fprintf(b, "\nCandidato: %s (%s)\n", d.Candidate, d.Role)
	renderList(b, "Punti di forza", d.Strengths)
	renderList(b, "Punti deboli", d.Weaknesses)
	if len(d.Questions) > 0 {
		fmt.Fprintf(b, "\nDomande poste:\n")
		for _, q := range d.Questions {
			fmt.Fprintf(b, "  - %s\n", q.Question)
			if q.Answer != "" {
				fmt.Fprintf(b, "    %s\n", q.Answer)
			}
		}
	}
}

func renderParticipants(b *strings.Builder, participants []results.Participant) {
	if len(participants) == 0 {
		return
	}
	fmt.Fprintf(b, "\nPartecipanti:\n")
	for _, p := range participants {
		fmt.Fprintf(b, "  - %s (%s)\n", p.Name, p.Role)
	}
}

func renderList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}
