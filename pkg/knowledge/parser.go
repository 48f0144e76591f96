package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quantlattice/crypto-knowledge-server/pkg/models"
)

// excerptLimit caps how much raw model output lands in the fallback record's
// description.
const excerptLimit = 480

// Parse turns a raw model reply into a Record. Total: any malformation
// degrades to placeholder fields rather than failing the request. The model
// is not contractually bound to emit clean JSON, so this is the component
// that absorbs its unreliability.
func Parse(resp models.Response, required []string) Record {
	record := PlaceholderRecord()

	payload, ok := firstJSONObject(stripFences(resp.Text))
	if !ok {
		record.Description = excerpt(resp.Text)
		return record
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		record.Description = excerpt(resp.Text)
		return record
	}

	for _, name := range required {
		switch name {
		case "name":
			record.Name = stringField(fields, name)
		case "description":
			record.Description = stringField(fields, name)
		case "use_case_in_domain":
			record.UseCaseInDomain = stringField(fields, name)
		case "components_or_formula":
			record.ComponentsOrFormula = stringField(fields, name)
		case "implementation_steps":
			record.ImplementationSteps = listField(fields, name)
		case "code_example":
			record.CodeExample = stringField(fields, name)
		case "key_considerations":
			record.KeyConsiderations = listField(fields, name)
		}
	}
	return record
}

// stripFences removes a markdown code fence wrapper if present, along with any
// prose before or after it.
func stripFences(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return text
	}
	rest := text[start+3:]
	// Drop a language tag such as "json" on the opening fence.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		first := strings.TrimSpace(rest[:nl])
		if first != "" && !strings.ContainsAny(first, "{}") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// firstJSONObject returns the first balanced {...} region, honouring string
// literals and escapes so braces inside values do not confuse the scan.
func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// stringField reads a scalar field, substituting the placeholder for missing
// or empty values.
func stringField(fields map[string]any, name string) string {
	value, ok := fields[name]
	if !ok || value == nil {
		return Placeholder
	}
	var text string
	switch v := value.(type) {
	case string:
		text = strings.TrimSpace(v)
	default:
		text = strings.TrimSpace(fmt.Sprint(v))
	}
	if text == "" {
		return Placeholder
	}
	return text
}

// listField reads a sequence field. A bare string is treated as a one-element
// sequence rather than discarded.
func listField(fields map[string]any, name string) []string {
	value, ok := fields[name]
	if !ok || value == nil {
		return []string{Placeholder}
	}
	switch v := value.(type) {
	case []any:
		var items []string
		for _, item := range v {
			text := strings.TrimSpace(fmt.Sprint(item))
			if text != "" {
				items = append(items, text)
			}
		}
		if len(items) == 0 {
			return []string{Placeholder}
		}
		return items
	case string:
		if text := strings.TrimSpace(v); text != "" {
			return []string{text}
		}
		return []string{Placeholder}
	default:
		return []string{strings.TrimSpace(fmt.Sprint(v))}
	}
}

// excerpt truncates raw model output for the fallback description.
func excerpt(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return Placeholder
	}
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit]) + "..."
}
