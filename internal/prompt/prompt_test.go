package prompt

import (
	"testing"

	"github.com/joshsymonds/tyr/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestBuildAnalysisPrompt(t *testing.T) {
	tests := []struct {
		name             string
		inputType        models.InputType
		wantUserPrefix   string
		includeEducation bool
	}{
		{
			name:           "terraform without education",
			inputType:      models.InputTerraform,
			wantUserPrefix: "Analyze the following Terraform configuration for security threats:",
		},
		{
			name:             "kubernetes with education",
			inputType:        models.InputKubernetes,
			includeEducation: true,
			wantUserPrefix:   "Analyze the following Kubernetes manifest for security threats:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildAnalysisPrompt("resource \"aws_s3_bucket\" \"b\" {}", tt.inputType, tt.includeEducation)

			assert.Contains(t, p.User, tt.wantUserPrefix)
			assert.Contains(t, p.User, "aws_s3_bucket")
			assert.Contains(t, p.System, `"threats"`)
			assert.Contains(t, p.System, `"overall_risk_score"`)
			assert.Contains(t, p.System, "InformationDisclosure")
			assert.Contains(t, p.System, "ONLY the JSON object")

			if tt.includeEducation {
				assert.Contains(t, p.System, "educational_note")
			} else {
				assert.NotContains(t, p.System, "educational_note")
			}
			assert.Equal(t, p.System+"\n\n"+p.User, p.Text())
		})
	}
}

func TestAnalysisSystemPrompt_ListsAllCategories(t *testing.T) {
	system := AnalysisSystemPrompt(false)
	for _, c := range models.Categories() {
		assert.Contains(t, system, string(c))
		assert.Contains(t, system, c.Description())
	}
}

func TestBuildInteractivePrompt(t *testing.T) {
	history := []models.ChatMessage{
		{Role: models.RoleUser, Content: "What is spoofing?"},
		{Role: models.RoleAssistant, Content: "Impersonation."},
	}

	got := BuildInteractivePrompt("How do I prevent it?", history)

	want := "User: What is spoofing?\n\nAssistant: Impersonation.\n\nUser: How do I prevent it?\n\nAssistant:"
	assert.Equal(t, want, got)
	assert.Equal(t, "User: hi\n\nAssistant:", BuildInteractivePrompt("hi", nil))
}
