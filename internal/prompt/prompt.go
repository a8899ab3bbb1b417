// Package prompt builds the prompts sent to analysis backends. The analysis
// system prompt is the only place the JSON output schema is stated to a model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/joshsymonds/tyr/internal/models"
)

// InteractiveSystemPrompt frames the model for follow-up conversation.
const InteractiveSystemPrompt = "You are a security expert specializing in threat modeling using the STRIDE methodology. " +
	"Answer questions about system security, explain threats and their impact, and recommend concrete, " +
	"actionable mitigations. Keep answers focused and practical."

// Prompt is a system instruction plus the user turn that carries the artifact.
type Prompt struct {
	System string
	User   string
}

// Text joins both parts for backends that take a single prompt string.
func (p Prompt) Text() string {
	return p.System + "\n\n" + p.User
}

// BuildAnalysisPrompt builds the threat analysis prompt for content.
func BuildAnalysisPrompt(content string, inputType models.InputType, includeEducation bool) Prompt {
	return Prompt{
		System: AnalysisSystemPrompt(includeEducation),
		User:   fmt.Sprintf("Analyze the following %s for security threats:\n\n%s", inputType.Description(), content),
	}
}

// AnalysisSystemPrompt states the STRIDE taxonomy and the response schema.
func AnalysisSystemPrompt(includeEducation bool) string {
	var sb strings.Builder

	sb.WriteString("You are an expert security architect performing threat modeling with the STRIDE methodology.\n\n")

	sb.WriteString("STRIDE categories:\n")
	for _, c := range models.Categories() {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", c, c.Description()))
	}
	sb.WriteString("\n")

	sb.WriteString("For each threat you identify, provide:\n")
	sb.WriteString("1. A unique ID (T001, T002, ...)\n")
	sb.WriteString("2. A short title\n")
	sb.WriteString("3. The STRIDE category\n")
	sb.WriteString("4. A risk level (Critical, High, Medium or Low)\n")
	sb.WriteString("5. A description of the threat\n")
	sb.WriteString("6. The potential impact\n")
	sb.WriteString("7. The attack path as ordered steps\n")
	sb.WriteString("8. The affected components\n")
	sb.WriteString("9. Mitigations with effort and effectiveness\n")
	if includeEducation {
		sb.WriteString("10. An educational note explaining the underlying security concept\n")
	}
	sb.WriteString("\n")

	sb.WriteString("Respond with a single JSON object using exactly this schema:\n")
	sb.WriteString(schema(includeEducation))
	sb.WriteString("\n\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("- Respond with ONLY the JSON object. No markdown, no code fences, no commentary.\n")
	sb.WriteString("- category must be one of: ")
	names := make([]string, 0, len(models.Categories()))
	for _, c := range models.Categories() {
		names = append(names, string(c))
	}
	sb.WriteString(strings.Join(names, ", "))
	sb.WriteString("\n")
	sb.WriteString("- risk_level must be one of: Critical, High, Medium, Low\n")
	sb.WriteString("- effort must be one of: Low, Medium, High\n")
	sb.WriteString("- effectiveness must be one of: Partial, High, Complete\n")
	sb.WriteString("- overall_risk_score is a number from 0 to 100\n")
	sb.WriteString("- recommendations lists the most important overall actions\n")

	return sb.String()
}

func schema(includeEducation bool) string {
	education := ""
	if includeEducation {
		education = ",\n      \"educational_note\": \"string\""
	}
	return `{
  "threats": [
    {
      "id": "T001",
      "title": "string",
      "category": "Spoofing|Tampering|Repudiation|InformationDisclosure|DenialOfService|ElevationOfPrivilege",
      "risk_level": "Critical|High|Medium|Low",
      "description": "string",
      "impact": "string",
      "attack_path": ["step 1", "step 2"],
      "affected_components": ["component"],
      "mitigations": [
        {
          "title": "string",
          "description": "string",
          "effort": "Low|Medium|High",
          "effectiveness": "Partial|High|Complete"
        }
      ]` + education + `
    }
  ],
  "overall_risk_score": 0,
  "recommendations": ["string"]
}`
}

// BuildInteractivePrompt flattens the conversation into a single transcript
// ending with an open assistant turn. The whole history is included.
func BuildInteractivePrompt(query string, history []models.ChatMessage) string {
	var sb strings.Builder
	for _, msg := range history {
		sb.WriteString(speaker(msg.Role))
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString("User: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAssistant:")
	return sb.String()
}

func speaker(role models.Role) string {
	if role == models.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
