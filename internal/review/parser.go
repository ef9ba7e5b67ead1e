package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// RepairFunc asks a collaborator (in practice, a second model call) to fix a
// broken JSON payload and return the repaired text.
type RepairFunc func(ctx context.Context, broken string) (string, error)

// ParseError reports an unparseable model response. It carries only the size
// of the failing text and the attempt count; the content itself is withheld
// so it can never leak into logs or job results.
type ParseError struct {
	Length   int
	Attempts int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse model response (%d bytes after %d attempts)", e.Length, e.Attempts)
}

// ParseOutcome is a successfully decoded model response plus bookkeeping.
type ParseOutcome struct {
	Data     map[string]any
	Attempts int
	Repaired bool
}

// ParseWithRepair turns raw model text into a JSON object. It tries a direct
// parse, then extraction heuristics (code fences, brace matching), then up to
// maxRepairs invocations of the repair callback.
func ParseWithRepair(ctx context.Context, raw string, repair RepairFunc, maxRepairs int) (ParseOutcome, error) {
	attempts := 0

	parse := func(text string) (map[string]any, bool) {
		attempts++
		var data map[string]any
		if err := json.Unmarshal([]byte(text), &data); err != nil {
			return nil, false
		}
		return data, true
	}

	if data, ok := parse(raw); ok {
		return ParseOutcome{Data: data, Attempts: attempts}, nil
	}

	if extracted := extractJSON(raw); extracted != "" && extracted != raw {
		if data, ok := parse(extracted); ok {
			return ParseOutcome{Data: data, Attempts: attempts}, nil
		}
	}

	broken := raw
	for i := 0; i < maxRepairs && repair != nil; i++ {
		repaired, err := repair(ctx, broken)
		if err != nil {
			return ParseOutcome{}, fmt.Errorf("repair attempt %d: %w", i+1, err)
		}

		if data, ok := parse(repaired); ok {
			return ParseOutcome{Data: data, Attempts: attempts, Repaired: true}, nil
		}
		if extracted := extractJSON(repaired); extracted != "" {
			if data, ok := parse(extracted); ok {
				return ParseOutcome{Data: data, Attempts: attempts, Repaired: true}, nil
			}
		}
		broken = repaired
	}

	return ParseOutcome{}, &ParseError{Length: len(raw), Attempts: attempts}
}

// extractJSON pulls the first complete top-level JSON object out of text that
// may wrap it in prose or markdown code fences.
func extractJSON(text string) string {
	text = stripCodeFences(strings.TrimSpace(text))

	var depth int
	start := -1
	inString := false
	escape := false

	for i := 0; i < len(text); i++ {
		b := text[i]

		if escape {
			escape = false
			continue
		}

		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					return text[start : i+1]
				}
			}
		}
	}

	return ""
}

// stripCodeFences removes a surrounding ``` or ```json block, if present.
// Fence markers may share a line with the payload, so this trims the raw
// text instead of assuming one marker per line.
func stripCodeFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	body := text[3:]
	if rest, ok := strings.CutPrefix(body, "json"); ok {
		body = rest
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
