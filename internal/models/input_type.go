package models

import (
	"fmt"
	"strings"
)

// InputType identifies what kind of artifact is being analyzed.
type InputType string

// Supported input types.
const (
	InputArchitecture InputType = "architecture"
	InputTerraform    InputType = "terraform"
	InputKubernetes   InputType = "kubernetes"
	InputAPISpec      InputType = "api-spec"
)

// InputTypes returns every supported input type.
func InputTypes() []InputType {
	return []InputType{InputArchitecture, InputTerraform, InputKubernetes, InputAPISpec}
}

// ParseInputType parses an input type name or one of its aliases.
func ParseInputType(value string) (InputType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "architecture", "arch":
		return InputArchitecture, nil
	case "terraform", "tf":
		return InputTerraform, nil
	case "kubernetes", "k8s", "kube":
		return InputKubernetes, nil
	case "api-spec", "api", "openapi", "apispec":
		return InputAPISpec, nil
	default:
		return "", fmt.Errorf("unknown input type %q (expected architecture, terraform, kubernetes or api-spec)", value)
	}
}

// Description names the input type the way prompts refer to it.
func (t InputType) Description() string {
	switch t {
	case InputTerraform:
		return "Terraform configuration"
	case InputKubernetes:
		return "Kubernetes manifest"
	case InputAPISpec:
		return "API specification"
	default:
		return "architecture diagram"
	}
}

// String implements fmt.Stringer.
func (t InputType) String() string {
	return string(t)
}
