// Package parser extracts named fields from agenda text with regular expressions.
package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Field is a named pattern applied to extracted document text.
// When the pattern has capture groups the first non-empty group is the value,
// otherwise the whole match is used.
type Field struct {
	Name    string
	Pattern *regexp.Regexp
}

const (
	weekdays = `Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday`
	months   = `January|February|March|April|May|June|July|August|September|October|November|December`
)

var (
	// DatePattern matches "Tuesday 30 January 2024" and captures "30 January 2024".
	DatePattern = regexp.MustCompile(`(?:` + weekdays + `),?\s+(\d{1,2}\s+(?:` + months + `)\s+\d{4})`)
	// TimePattern matches "7pm", "7:00 pm" or "6.30 p.m.".
	TimePattern = regexp.MustCompile(`(?i)\b(\d{1,2}(?:[:.]\d{2})?\s?(?:[ap]\.m\.|[ap]m\b))`)
)

// DefaultFields are applied to every council unless it overrides a name.
func DefaultFields() []Field {
	return []Field{
		{Name: "date", Pattern: DatePattern},
		{Name: "time", Pattern: TimePattern},
	}
}

// Compile builds fields from a name -> expression map, sorted by name so the
// result is deterministic.
func Compile(patterns map[string]string) ([]Field, error) {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		expr := strings.TrimSpace(patterns[name])
		key := strings.TrimSpace(name)
		if key == "" || expr == "" {
			return nil, fmt.Errorf("field %q: name and pattern are required", name)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		fields = append(fields, Field{Name: key, Pattern: re})
	}
	return fields, nil
}

// Merge overlays override on base by field name, keeping base order first.
func Merge(base, override []Field) []Field {
	idx := make(map[string]int, len(base)+len(override))
	out := make([]Field, 0, len(base)+len(override))
	for _, f := range base {
		idx[f.Name] = len(out)
		out = append(out, f)
	}
	for _, f := range override {
		if i, ok := idx[f.Name]; ok {
			out[i] = f
			continue
		}
		idx[f.Name] = len(out)
		out = append(out, f)
	}
	return out
}

// Regex applies each field independently.
type Regex struct{}

// Parse returns a value for every field name; unmatched fields map to "".
func (Regex) Parse(text string, fields []Field) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Name] = match(f.Pattern, text)
	}
	return out
}

func match(re *regexp.Regexp, text string) string {
	if re == nil {
		return ""
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	for _, group := range m[1:] {
		if g := strings.TrimSpace(group); g != "" {
			return collapseSpace(g)
		}
	}
	return collapseSpace(strings.TrimSpace(m[0]))
}

// collapseSpace folds the line breaks PDF extraction leaves inside phrases.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
