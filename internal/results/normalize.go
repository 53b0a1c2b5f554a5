package results

import (
	"encoding/json"
	"fmt"
	"strings"
)

// builder populates one variant shape from the raw payload fields.
type builder func(fields payload, v *Variant)

// Registry maps discriminator values to variant builders. The variant set is
// data: new shapes register a builder plus the discriminator spellings that
// select it.
type Registry struct {
	fallback ContentType
	builders map[ContentType]builder
	aliases  map[string]ContentType
}

// NewRegistry creates an empty registry with the given fallback type. The
// fallback must be registered before Normalize is called.
func NewRegistry(fallback ContentType) *Registry {
	return &Registry{
		fallback: fallback,
		builders: make(map[ContentType]builder),
		aliases:  make(map[string]ContentType),
	}
}

// Register adds a shape. Aliases are matched case-insensitively against the
// payload discriminator; the content type itself is always an alias.
func (r *Registry) Register(ct ContentType, build builder, aliases ...string) {
	r.builders[ct] = build
	r.aliases[strings.ToLower(string(ct))] = ct
	for _, alias := range aliases {
		r.aliases[strings.ToLower(strings.TrimSpace(alias))] = ct
	}
}

// Resolve maps a raw discriminator value to a registered content type. An
// unknown or empty value resolves to the fallback.
func (r *Registry) Resolve(value string) ContentType {
	if ct, ok := r.aliases[strings.ToLower(strings.TrimSpace(value))]; ok {
		return ct
	}
	return r.fallback
}

// Normalize reduces a raw result payload to a typed variant. It returns an
// error only for payloads that are not valid JSON at all; null, empty, and
// arbitrarily incomplete objects all produce a fully-typed variant.
func (r *Registry) Normalize(raw json.RawMessage) (*Variant, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ErrorVariant(), nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parse result payload: %w", err)
	}

	fields, _ := decoded.(map[string]any)
	// Non-object JSON carries no fields; every value degrades to a default.
	p := payload(fields)

	ct := r.Resolve(p.str("tipo_contenuto", "content_type", "contentType"))
	build, ok := r.builders[ct]
	if !ok {
		ct = r.fallback
		build = r.builders[ct]
	}

	v := &Variant{
		ContentType:       ct,
		Summary:           p.strDefault(PlaceholderSummary, "riassunto", "summary"),
		TranscriptID:      p.str("transcript_id", "transcriptId"),
		FollowUpQuestions: p.strings("domande_followup", "follow_up_questions", "suggested_questions"),
	}
	if build != nil {
		build(p, v)
	}
	return v, nil
}

// Default is the registry holding the known variant shapes.
var Default = func() *Registry {
	r := NewRegistry(ContentLesson)
	r.Register(ContentLesson, buildLesson, "lezione", "lecture", "lesson_notes")
	r.Register(ContentMeeting, buildMeeting, "riunione", "meeting_notes")
	r.Register(ContentInterview, buildInterview, "intervista", "colloquio")
	return r
}()

// Normalize applies the default registry.
func Normalize(raw json.RawMessage) (*Variant, error) {
	return Default.Normalize(raw)
}

func buildLesson(p payload, v *Variant) {
	v.Lesson = &LessonDetails{
		KeyPoints:     p.strings("punti_chiave", "key_points"),
		Topics:        p.strings("argomenti", "topics"),
		Participants:  p.participants("partecipanti", "participants"),
		ExamQuestions: p.exercises("domande_esame", "exam_questions"),
		Bibliography:  p.strings("bibliografia", "bibliography"),
	}
}

func buildMeeting(p payload, v *Variant) {
	v.Meeting = &MeetingDetails{
		Decisions:    p.strings("decisioni", "decisions"),
		Tasks:        p.tasks("attivita", "tasks", "action_items"),
		Participants: p.participants("partecipanti", "participants"),
		NextSteps:    p.strings("prossimi_passi", "next_steps"),
	}
}

func buildInterview(p payload, v *Variant) {
	v.Interview = &InterviewDetails{
		Candidate:  p.strDefault(PlaceholderUnspecified, "candidato", "candidate"),
		Role:       p.strDefault(PlaceholderUnspecified, "ruolo", "role"),
		Strengths:  p.strings("punti_forza", "strengths"),
		Weaknesses: p.strings("punti_deboli", "weaknesses"),
		Questions:  p.exercises("domande", "questions"),
	}
}
