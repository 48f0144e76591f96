package knowledge

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/quantlattice/crypto-knowledge-server/pkg/models"
)

const fullPayload = `{
  "name": "Moving Average Convergence Divergence",
  "description": "A trend-following momentum indicator.",
  "use_case_in_domain": "Spotting momentum shifts in BTC/USDT.",
  "components_or_formula": "MACD = EMA(12) - EMA(26); signal = EMA(9) of MACD.",
  "implementation_steps": ["Compute EMA(12)", "Compute EMA(26)", "Subtract"],
  "code_example": "macd := ema12 - ema26",
  "key_considerations": ["Lagging indicator", "Whipsaws in ranging markets"]
}`

func decodeRecord(t *testing.T, payload string) Record {
	t.Helper()
	var rec Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("test payload does not decode: %v", err)
	}
	return rec
}

func TestParseMatchesDirectDecode(t *testing.T) {
	want := decodeRecord(t, fullPayload)
	got := Parse(models.Response{Text: fullPayload}, FieldNames())
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parsed record diverges from direct decode:\n got %#v\nwant %#v", got, want)
	}
}

func TestParseStripsFencesAndProse(t *testing.T) {
	wrapped := "Sure! Here is the requested analysis.\n```json\n" + fullPayload + "\n```\nLet me know if you need more."
	bare := Parse(models.Response{Text: fullPayload}, FieldNames())
	got := Parse(models.Response{Text: wrapped}, FieldNames())
	if !reflect.DeepEqual(got, bare) {
		t.Fatalf("fenced payload parsed differently:\n got %#v\nwant %#v", got, bare)
	}
}

func TestParseSubstitutesPlaceholdersForMissingFields(t *testing.T) {
	got := Parse(models.Response{Text: `{"name": "RSI", "description": ""}`}, FieldNames())
	if got.Name != "RSI" {
		t.Fatalf("unexpected name: %q", got.Name)
	}
	if got.Description != Placeholder {
		t.Fatalf("empty description should degrade to placeholder, got %q", got.Description)
	}
	if got.CodeExample != Placeholder || got.UseCaseInDomain != Placeholder {
		t.Fatalf("missing scalar fields should be placeholders: %#v", got)
	}
	if !reflect.DeepEqual(got.ImplementationSteps, []string{Placeholder}) {
		t.Fatalf("missing sequence should be a placeholder list: %#v", got.ImplementationSteps)
	}
}

func TestParseCoercesScalarToSequence(t *testing.T) {
	payload := `{"name": "ATR", "implementation_steps": "Compute the true range first."}`
	got := Parse(models.Response{Text: payload}, FieldNames())
	want := []string{"Compute the true range first."}
	if !reflect.DeepEqual(got.ImplementationSteps, want) {
		t.Fatalf("scalar step not treated as one-element sequence: %#v", got.ImplementationSteps)
	}
}

func TestParseToleratesBracesInsideStrings(t *testing.T) {
	payload := `{"name": "Bollinger Bands", "code_example": "cfg := map[string]int{\"period\": 20}"}`
	got := Parse(models.Response{Text: "prefix " + payload + " suffix"}, FieldNames())
	if got.Name != "Bollinger Bands" {
		t.Fatalf("unexpected name: %q", got.Name)
	}
	if !strings.Contains(got.CodeExample, "period") {
		t.Fatalf("code example lost: %q", got.CodeExample)
	}
}

func TestParseDegradesWhenNoJSONPresent(t *testing.T) {
	raw := "The MACD is a momentum indicator computed from two moving averages."
	got := Parse(models.Response{Text: raw}, FieldNames())
	if got.Description != raw {
		t.Fatalf("fallback description should carry the raw excerpt, got %q", got.Description)
	}
	if got.Name != Placeholder || got.CodeExample != Placeholder {
		t.Fatalf("non-description fields should be placeholders: %#v", got)
	}
	if !reflect.DeepEqual(got.KeyConsiderations, []string{Placeholder}) {
		t.Fatalf("sequence fields should be placeholder lists: %#v", got.KeyConsiderations)
	}
}

func TestParseTruncatesLongFallbackExcerpt(t *testing.T) {
	raw := strings.Repeat("no json here ", 200)
	got := Parse(models.Response{Text: raw}, FieldNames())
	if got.Description == "" || got.Description == Placeholder {
		t.Fatalf("fallback description must hold a non-empty excerpt")
	}
	if len([]rune(got.Description)) > excerptLimit+3 {
		t.Fatalf("excerpt not truncated: %d runes", len([]rune(got.Description)))
	}
}

func TestParseDegradesOnUnbalancedJSON(t *testing.T) {
	got := Parse(models.Response{Text: `{"name": "VWAP", "description": "trunc`}, FieldNames())
	if got.Name != Placeholder {
		t.Fatalf("unbalanced object should fall back to placeholders: %#v", got)
	}
	if got.Description == Placeholder || got.Description == "" {
		t.Fatalf("fallback description should carry the raw excerpt")
	}
}

func TestParseEmptyResponseYieldsPlaceholderRecord(t *testing.T) {
	got := Parse(models.Response{}, FieldNames())
	if !reflect.DeepEqual(got, PlaceholderRecord()) {
		t.Fatalf("empty response should yield the placeholder record: %#v", got)
	}
}
