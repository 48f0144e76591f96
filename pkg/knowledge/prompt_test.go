package knowledge

import (
	"reflect"
	"strings"
	"testing"
)

func TestBuildPromptEmbedsTopicVerbatim(t *testing.T) {
	spec := BuildPrompt(ToolExplainConcept, "impermanent loss")
	if !strings.Contains(spec.Instruction, `"impermanent loss"`) {
		t.Fatalf("instruction does not embed the topic: %s", spec.Instruction)
	}
}

func TestBuildPromptTrimsWhitespace(t *testing.T) {
	spec := BuildPrompt(ToolExplainConcept, "  funding rates \n")
	if !strings.Contains(spec.Instruction, `"funding rates"`) {
		t.Fatalf("instruction should contain the trimmed topic")
	}
	if strings.Contains(spec.Instruction, `"  funding rates`) {
		t.Fatalf("instruction should not contain untrimmed topic")
	}
}

func TestBuildPromptPrefixesStrategyTopics(t *testing.T) {
	spec := BuildPrompt(ToolStrategy, "mean reversion")
	if !strings.Contains(spec.Instruction, `"cryptocurrency trading strategy: mean reversion"`) {
		t.Fatalf("strategy topic not prefixed: %s", spec.Instruction)
	}
}

func TestBuildPromptPrefixesIndicatorTopics(t *testing.T) {
	spec := BuildPrompt(ToolIndicator, "MACD")
	if !strings.Contains(spec.Instruction, `"cryptocurrency technical indicator: MACD"`) {
		t.Fatalf("indicator topic not prefixed: %s", spec.Instruction)
	}
}

func TestBuildPromptRequiredFieldsMatchEnvelopeOrder(t *testing.T) {
	spec := BuildPrompt(ToolExplainConcept, "liquidity pools")
	if !reflect.DeepEqual(spec.RequiredFields, FieldNames()) {
		t.Fatalf("required fields diverge from envelope: %v", spec.RequiredFields)
	}
}

func TestBuildPromptDemandsJSONOnlyOutput(t *testing.T) {
	spec := BuildPrompt(ToolExplainConcept, "order books")
	for _, field := range FieldNames() {
		if !strings.Contains(spec.Instruction, `"`+field+`"`) {
			t.Fatalf("instruction does not name required field %q", field)
		}
	}
	if !strings.Contains(spec.Instruction, "single, valid JSON object") {
		t.Fatalf("instruction does not demand JSON-only output")
	}
}
