package results

import (
	"fmt"
	"strings"
)

// payload wraps the decoded JSON object and offers total field accessors:
// every lookup that misses, or hits a value of the wrong type, yields the
// caller's default instead of an error.
type payload map[string]any

// str returns the first non-empty string among keys, or "".
func (p payload) str(keys ...string) string {
	for _, key := range keys {
		if value, ok := p[key]; ok {
			if s := asString(value); strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

// strDefault is str with a placeholder substituted for absence.
func (p payload) strDefault(fallback string, keys ...string) string {
	if s := p.str(keys...); s != "" {
		return s
	}
	return fallback
}

// strings returns the first list-valued field among keys coerced to strings.
// Missing fields produce an empty, non-nil slice.
func (p payload) strings(keys ...string) []string {
	items, ok := p.list(keys...)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := asString(item); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// participants maps a list of objects element-wise. A malformed element is
// kept with placeholders, never dropped.
func (p payload) participants(keys ...string) []Participant {
	items, ok := p.list(keys...)
	if !ok {
		return []Participant{}
	}
	out := make([]Participant, 0, len(items))
	for _, item := range items {
		element := asObject(item)
		out = append(out, Participant{
			Name: element.strDefault(PlaceholderUnspecified, "nome", "name"),
			Role: element.strDefault(PlaceholderUnspecified, "ruolo", "role"),
		})
	}
	return out
}

func (p payload) tasks(keys ...string) []Task {
	items, ok := p.list(keys...)
	if !ok {
		return []Task{}
	}
	out := make([]Task, 0, len(items))
	for _, item := range items {
		element := asObject(item)
		out = append(out, Task{
			Description: element.strDefault(PlaceholderUnspecified, "descrizione", "description"),
			Assignee:    element.strDefault(PlaceholderUnspecified, "assegnatario", "assignee"),
			Priority:    element.strDefault(PlaceholderPriority, "priorita", "priority"),
			DueDate:     element.str("scadenza", "due_date"),
		})
	}
	return out
}

func (p payload) exercises(keys ...string) []Exercise {
	items, ok := p.list(keys...)
	if !ok {
		return []Exercise{}
	}
	out := make([]Exercise, 0, len(items))
	for _, item := range items {
		// A bare string is a question without an answer.
		if s := asString(item); strings.TrimSpace(s) != "" {
			out = append(out, Exercise{Question: s, Difficulty: PlaceholderDifficulty})
			continue
		}
		element := asObject(item)
		out = append(out, Exercise{
			Question:   element.strDefault(PlaceholderUnspecified, "domanda", "question"),
			Answer:     element.str("risposta", "answer"),
			Difficulty: element.strDefault(PlaceholderDifficulty, "difficolta", "difficulty"),
		})
	}
	return out
}

func (p payload) list(keys ...string) ([]any, bool) {
	for _, key := range keys {
		if value, ok := p[key]; ok {
			if items, ok := value.([]any); ok {
				return items, true
			}
		}
	}
	return nil, false
}

func asObject(value any) payload {
	if m, ok := value.(map[string]any); ok {
		return payload(m)
	}
	return payload{}
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return ""
	}
}
