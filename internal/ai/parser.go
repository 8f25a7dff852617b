package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Suggestion is the normalized classification result. Models disagree on
// field names and sometimes truncate output, so everything here is produced
// by the lenient parser below.
type Suggestion struct {
	Secondary           string   `json:"secondary"`
	Third               string   `json:"third"`
	SuggestedCategory   string   `json:"suggestedCategory,omitempty"`
	SuggestedThird      string   `json:"suggestedThird,omitempty"`
	IsNewCategory       bool     `json:"isNewCategory"`
	IsNewThird          bool     `json:"isNewThird"`
	FilenameSuggestions []string `json:"filenameSuggestions"`
	Description         string   `json:"description"`
	Keywords            []string `json:"keywords"`
	Confidence          float64  `json:"confidence"`
}

const fallbackCategory = "通用"

var (
	jsonBlockPattern  = regexp.MustCompile(`\{[\s\S]*\}`)
	quotedRunPattern  = regexp.MustCompile(`(?:"[^"]*"\s*,\s*){4,}`)
	quotedItemPattern = regexp.MustCompile(`"[^"]*"`)
)

// collapseRepeats deduplicates consecutive identical quoted elements, a
// failure mode of some models when they loop on one keyword.
func collapseRepeats(s string) string {
	return quotedRunPattern.ReplaceAllStringFunc(s, func(run string) string {
		items := quotedItemPattern.FindAllString(run, -1)
		var out []string
		for i, item := range items {
			if i == 0 || item != items[i-1] {
				out = append(out, item)
			}
		}
		return strings.Join(out, ", ") + ", "
	})
}

// ParseResponse normalizes one proxy response body into a Suggestion.
//
// The response field may be a ready JSON object, a string containing JSON, a
// string with JSON buried in prose, or a truncated fragment. Each form is
// tried in that order; only when no JSON can be recovered at all does the
// parse fail.
func ParseResponse(raw []byte) (*Suggestion, error) {
	var envelope struct {
		Result struct {
			Response    json.RawMessage `json:"response"`
			Description string          `json:"description"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("malformed proxy response: %w", err)
	}

	// Object form: use it directly.
	var obj map[string]any
	if err := json.Unmarshal(envelope.Result.Response, &obj); err == nil && obj != nil {
		return formatResult(obj), nil
	}

	// String form: unwrap, then dig the JSON out.
	var text string
	if err := json.Unmarshal(envelope.Result.Response, &text); err != nil || text == "" {
		text = envelope.Result.Description
	}

	if parsed := extractJSON(text); parsed != nil {
		return formatResult(parsed), nil
	}

	return nil, fmt.Errorf("no JSON found in model response")
}

// extractJSON pulls a JSON object out of free-form model text, repairing
// truncation when necessary. Returns nil when nothing parseable remains.
func extractJSON(text string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj
	}

	block := jsonBlockPattern.FindString(text)
	if block == "" {
		// A fragment cut off before its closing brace has no full block to
		// match; take everything from the first brace.
		i := strings.Index(text, "{")
		if i < 0 {
			return nil
		}
		block = text[i:]
	}

	if err := json.Unmarshal([]byte(block), &obj); err == nil {
		return obj
	}

	repaired := fixTruncatedJSON(block)
	if err := json.Unmarshal([]byte(repaired), &obj); err == nil {
		return obj
	}
	return nil
}

// fixTruncatedJSON closes unterminated strings, arrays and objects in a JSON
// fragment cut off mid-stream.
func fixTruncatedJSON(s string) string {
	s = collapseRepeats(s)

	braces, brackets := 0, 0
	inString, escaped := false, false

	for _, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				braces++
			}
		case '}':
			if !inString {
				braces--
			}
		case '[':
			if !inString {
				brackets++
			}
		case ']':
			if !inString {
				brackets--
			}
		}
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	for ; brackets > 0; brackets-- {
		b.WriteByte(']')
	}
	for ; braces > 0; braces-- {
		b.WriteByte('}')
	}
	return b.String()
}

// formatResult maps the model's loosely named fields onto a Suggestion,
// falling back to safe defaults for anything absent.
func formatResult(data map[string]any) *Suggestion {
	s := &Suggestion{
		Secondary:   firstString(data, fallbackCategory, "secondary", "sub_category", "subCategory", "secondaryCategory"),
		Third:       firstString(data, fallbackCategory, "third", "sub_sub_category", "subSubCategory", "thirdCategory"),
		Description: firstString(data, "无描述", "description"),
		Keywords:    stringSlice(data["keywords"]),
		Confidence:  0.9,
	}

	if v := firstString(data, "", "suggestedCategory"); v != "" && v != "null" {
		s.SuggestedCategory = v
		s.IsNewCategory = true
	}
	if v := firstString(data, "", "suggestedThird"); v != "" && v != "null" {
		s.SuggestedThird = v
		s.IsNewThird = true
	}

	if names := stringSlice(data["filenameSuggestions"]); len(names) > 0 {
		s.FilenameSuggestions = names
	} else if name := firstString(data, "", "filename"); name != "" {
		keyword := "图片"
		if len(s.Keywords) > 0 {
			keyword = s.Keywords[0]
		}
		s.FilenameSuggestions = []string{name, name + "-alt", s.Secondary + "-" + keyword}
	} else {
		s.FilenameSuggestions = []string{"壁纸", "壁纸-1", "壁纸-2"}
	}
	if len(s.FilenameSuggestions) > 3 {
		s.FilenameSuggestions = s.FilenameSuggestions[:3]
	}

	return s
}

func firstString(data map[string]any, fallback string, keys ...string) string {
	for _, k := range keys {
		if v, ok := data[k].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
