package results_test

import (
	"encoding/json"
	"testing"

	"appunti/internal/results"
)

func TestNormalizeLessonPayload(t *testing.T) {
	raw := json.RawMessage(`{
		"tipo_contenuto": "lezione",
		"riassunto": "Panoramica della termodinamica",
		"transcript_id": "tr-42",
		"punti_chiave": ["Primo principio", "Entropia"],
		"argomenti": ["Termodinamica"],
		"partecipanti": [{"nome": "Prof. Rossi", "ruolo": "docente"}],
		"domande_esame": [{"domanda": "Definisci entropia", "risposta": "Misura del disordine", "difficolta": "Alta"}],
		"bibliografia": ["Fermi, Thermodynamics"],
		"domande_followup": ["Cosa dice il secondo principio?"]
	}`)

	v, err := results.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if v.ContentType != results.ContentLesson {
		t.Fatalf("expected lesson, got %s", v.ContentType)
	}
	if v.Summary != "Panoramica della termodinamica" {
		t.Fatalf("unexpected summary: %q", v.Summary)
	}
	if v.TranscriptID != "tr-42" {
		t.Fatalf("unexpected transcript id: %q", v.TranscriptID)
	}
	if v.Lesson == nil {
		t.Fatal("lesson details missing")
	}
	if len(v.Lesson.KeyPoints) != 2 || v.Lesson.KeyPoints[0] != "Primo principio" {
		t.Fatalf("unexpected key points: %#v", v.Lesson.KeyPoints)
	}
	if len(v.Lesson.ExamQuestions) != 1 || v.Lesson.ExamQuestions[0].Difficulty != "Alta" {
		t.Fatalf("unexpected exam questions: %#v", v.Lesson.ExamQuestions)
	}
	if v.Meeting != nil || v.Interview != nil {
		t.Fatal("expected exactly one detail section")
	}
	if len(v.FollowUpQuestions) != 1 {
		t.Fatalf("unexpected follow ups: %#v", v.FollowUpQuestions)
	}
}

func TestNormalizeAliasesAndDiscriminatorSpellings(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want results.ContentType
	}{
		{"italian meeting", `{"tipo_contenuto": "riunione"}`, results.ContentMeeting},
		{"english key", `{"content_type": "meeting"}`, results.ContentMeeting},
		{"camel key", `{"contentType": "interview"}`, results.ContentInterview},
		{"colloquio alias", `{"tipo_contenuto": "colloquio"}`, results.ContentInterview},
		{"lecture alias", `{"tipo_contenuto": "Lecture"}`, results.ContentLesson},
		{"unknown falls back", `{"tipo_contenuto": "podcast"}`, results.ContentLesson},
		{"missing falls back", `{}`, results.ContentLesson},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := results.Normalize(json.RawMessage(tc.raw))
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if v.ContentType != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, v.ContentType)
			}
		})
	}
}

func TestNormalizeSubstitutesPlaceholders(t *testing.T) {
	v, err := results.Normalize(json.RawMessage(`{"tipo_contenuto": "lezione"}`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if v.Summary != results.PlaceholderSummary {
		t.Fatalf("expected summary placeholder, got %q", v.Summary)
	}
	if v.Lesson == nil {
		t.Fatal("lesson details missing")
	}
	if v.Lesson.KeyPoints == nil || len(v.Lesson.KeyPoints) != 0 {
		t.Fatalf("expected empty non-nil key points, got %#v", v.Lesson.KeyPoints)
	}
	if v.FollowUpQuestions == nil {
		t.Fatal("expected non-nil follow up questions")
	}
}

func TestNormalizeKeepsMalformedListElements(t *testing.T) {
	raw := json.RawMessage(`{
		"tipo_contenuto": "riunione",
		"attivita": [
			{"descrizione": "Inviare il report", "assegnatario": "Luca"},
			42,
			{"priorita": "Alta"}
		],
		"partecipanti": ["non un oggetto"]
	}`)

	v, err := results.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if v.Meeting == nil {
		t.Fatal("meeting details missing")
	}
	tasks := v.Meeting.Tasks
	if len(tasks) != 3 {
		t.Fatalf("expected malformed elements kept, got %d tasks", len(tasks))
	}
	if tasks[0].Description != "Inviare il report" || tasks[0].Priority != results.PlaceholderPriority {
		t.Fatalf("unexpected first task: %#v", tasks[0])
	}
	if tasks[1].Description != results.PlaceholderUnspecified {
		t.Fatalf("expected placeholder description for malformed task, got %q", tasks[1].Description)
	}
	if tasks[2].Priority != "Alta" {
		t.Fatalf("expected partial task kept, got %#v", tasks[2])
	}
	if len(v.Meeting.Participants) != 1 || v.Meeting.Participants[0].Name != results.PlaceholderUnspecified {
		t.Fatalf("unexpected participants: %#v", v.Meeting.Participants)
	}
}

func TestNormalizeBareStringExercises(t *testing.T) {
	raw := json.RawMessage(`{
		"tipo_contenuto": "intervista",
		"candidato": "Maria",
		"domande": ["Parlami di te", {"domanda": "Perche qui?", "risposta": "Crescita"}]
	}`)

	v, err := results.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if v.Interview == nil {
		t.Fatal("interview details missing")
	}
	if v.Interview.Candidate != "Maria" {
		t.Fatalf("unexpected candidate: %q", v.Interview.Candidate)
	}
	if v.Interview.Role != results.PlaceholderUnspecified {
		t.Fatalf("expected role placeholder, got %q", v.Interview.Role)
	}
	questions := v.Interview.Questions
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].Question != "Parlami di te" || questions[0].Answer != "" {
		t.Fatalf("unexpected bare string question: %#v", questions[0])
	}
	if questions[0].Difficulty != results.PlaceholderDifficulty {
		t.Fatalf("expected difficulty placeholder, got %q", questions[0].Difficulty)
	}
	if questions[1].Answer != "Crescita" {
		t.Fatalf("unexpected object question: %#v", questions[1])
	}
}

func TestNormalizeEmptyAndNullPayloads(t *testing.T) {
	for _, raw := range []string{"", "null", "  "} {
		v, err := results.Normalize(json.RawMessage(raw))
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", raw, err)
		}
		if v.Summary != results.PlaceholderErrorSummary {
			t.Fatalf("expected error summary for %q, got %q", raw, v.Summary)
		}
		if v.Lesson == nil {
			t.Fatalf("expected lesson fallback shape for %q", raw)
		}
	}
}

func TestNormalizeNonObjectJSON(t *testing.T) {
	v, err := results.Normalize(json.RawMessage(`"solo una stringa"`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if v.ContentType != results.ContentLesson {
		t.Fatalf("expected lesson fallback, got %s", v.ContentType)
	}
	if v.Summary != results.PlaceholderSummary {
		t.Fatalf("expected summary placeholder, got %q", v.Summary)
	}
}

func TestNormalizeInvalidJSON(t *testing.T) {
	if _, err := results.Normalize(json.RawMessage(`{not json`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestNormalizeNumericAndBoolCoercion(t *testing.T) {
	raw := json.RawMessage(`{
		"tipo_contenuto": "lezione",
		"punti_chiave": [1, true, "testo", null]
	}`)

	v, err := results.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	points := v.Lesson.KeyPoints
	if len(points) != 3 {
		t.Fatalf("expected null dropped and scalars coerced, got %#v", points)
	}
	if points[0] != "1" || points[1] != "true" || points[2] != "testo" {
		t.Fatalf("unexpected coercion: %#v", points)
	}
}
