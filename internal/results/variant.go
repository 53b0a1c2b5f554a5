// Package results reduces the worker's weakly-typed result payloads into a
// closed set of typed variants. Normalization is total: a well-formed but
// incomplete payload always produces a fully-populated variant, with fixed
// placeholders substituted field by field.
package results

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ContentType discriminates the variant shapes.
type ContentType string

const (
	ContentLesson    ContentType = "lesson"
	ContentMeeting   ContentType = "meeting"
	ContentInterview ContentType = "interview"
)

// Fixed placeholder strings substituted for absent upstream fields. The
// backend produces Italian content, so the placeholders follow suit.
const (
	PlaceholderSummary      = "Riassunto non disponibile"
	PlaceholderUnspecified  = "Non specificato"
	PlaceholderPriority     = "Media"
	PlaceholderDifficulty   = "Media"
	PlaceholderErrorSummary = "Nessun risultato disponibile"
)

var italianTitle = cases.Title(language.Italian)

// Label returns the display form of a content type.
func (c ContentType) Label() string {
	switch c {
	case ContentLesson:
		return italianTitle.String("lezione")
	case ContentMeeting:
		return italianTitle.String("riunione")
	case ContentInterview:
		return italianTitle.String("intervista")
	default:
		return italianTitle.String(strings.TrimSpace(string(c)))
	}
}

// Variant is one normalized analysis result. Summary is always set;
// TranscriptID and FollowUpQuestions are carried on every variant. Exactly
// one of the detail sections is non-nil, matching ContentType.
type Variant struct {
	ContentType       ContentType
	Summary           string
	TranscriptID      string
	FollowUpQuestions []string

	Lesson    *LessonDetails
	Meeting   *MeetingDetails
	Interview *InterviewDetails
}

// LessonDetails is the primary shape: structured lecture notes.
type LessonDetails struct {
	KeyPoints     []string
	Topics        []string
	Participants  []Participant
	ExamQuestions []Exercise
	Bibliography  []string
}

// MeetingDetails models meeting minutes.
type MeetingDetails struct {
	Decisions    []string
	Tasks        []Task
	Participants []Participant
	NextSteps    []string
}

// InterviewDetails models interview debriefs.
type InterviewDetails struct {
	Candidate  string
	Role       string
	Strengths  []string
	Weaknesses []string
	Questions  []Exercise
}

// Participant is a person referenced by a result.
type Participant struct {
	Name string
	Role string
}

// Task is an action item extracted from a meeting.
type Task struct {
	Description string
	Assignee    string
	Priority    string
	DueDate     string
}

// Exercise is a question/answer pair (exam questions, interview questions).
type Exercise struct {
	Question   string
	Answer     string
	Difficulty string
}

// ErrorVariant is the minimal variant returned when no payload exists.
func ErrorVariant() *Variant {
	return &Variant{
		ContentType:       ContentLesson,
		Summary:           PlaceholderErrorSummary,
		FollowUpQuestions: []string{},
		Lesson:            emptyLesson(),
	}
}

func emptyLesson() *LessonDetails {
	return &LessonDetails{
		KeyPoints:     []string{},
		Topics:        []string{},
		Participants:  []Participant{},
		ExamQuestions: []Exercise{},
		Bibliography:  []string{},
	}
}
