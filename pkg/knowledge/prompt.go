package knowledge

import (
	"fmt"
	"strings"
)

// PromptSpec pairs the full model instruction with the ordered field list the
// reply must contain. Built fresh per request; the instruction embeds the
// caller's topic.
type PromptSpec struct {
	Instruction    string
	RequiredFields []string
}

// masterTemplate is the single instruction every tool uses. It pins the reply
// to a JSON object with the exact field set the parser expects.
const masterTemplate = `You are a world-class financial engineer and senior quantitative analyst. You have deep expertise in cryptocurrency trading, algorithmic strategies, advanced statistics, and machine learning models.

Your task is to provide a comprehensive, implementation-focused guide for an AI software developer on the following topic: "%s"

You MUST follow these steps:
1. Internal Research: Use your built-in web search tool to conduct thorough research on the topic. Find the official definition, the underlying mathematical or logical formula, common use cases in the crypto domain, and popular implementations.
2. Critical Synthesis: Analyze the search results. Discard any promotional fluff, irrelevant information, or overly simplistic explanations. Synthesize the core, actionable knowledge.
3. Structured Formatting: You MUST format your entire final answer as a single, valid JSON object. There must be NO text, explanation, or markdown outside of the JSON code block.

The JSON object must strictly follow this structure:
{
  "name": "The full, official name of the concept.",
  "description": "A clear, concise explanation of what the concept is and its primary purpose.",
  "use_case_in_domain": "Specific, practical applications of this concept for cryptocurrency analysis or trading, based on your research.",
  "components_or_formula": "The mathematical formula, key components, or logical steps explained clearly. This must be a string.",
  "implementation_steps": [
    "A numbered list of high-level steps for a developer to follow for implementation.",
    "Step 2...",
    "Step 3..."
  ],
  "code_example": "A clean, well-commented, and practical code snippet demonstrating a common implementation. The code should be self-contained where possible.",
  "key_considerations": [
    "A list of potential pitfalls, limitations, or expert best practices to be aware of during implementation.",
    "Consideration 2..."
  ]
}

Now, begin your research and provide the structured response for the specified topic.`

// BuildPrompt assembles the instruction for a tool invocation. Total for a
// non-empty argument: the topic is injected verbatim after whitespace
// trimming, since the destination is a free-text model instruction.
func BuildPrompt(tool, argument string) PromptSpec {
	topic := strings.TrimSpace(argument)
	switch tool {
	case ToolStrategy:
		topic = "cryptocurrency trading strategy: " + topic
	case ToolIndicator:
		topic = "cryptocurrency technical indicator: " + topic
	}
	return PromptSpec{
		Instruction:    fmt.Sprintf(masterTemplate, topic),
		RequiredFields: FieldNames(),
	}
}
