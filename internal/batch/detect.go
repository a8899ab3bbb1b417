package batch

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/tyr/internal/models"
)

// DetectInputType guesses what kind of artifact a file holds from its
// extension and, for YAML and JSON, its top-level keys.
func DetectInputType(path string, content []byte) models.InputType {
	name := strings.ToLower(filepath.Base(path))

	switch filepath.Ext(name) {
	case ".tf", ".hcl":
		return models.InputTerraform
	case ".yaml", ".yml":
		return detectYAML(name, content)
	case ".json":
		if isAPISpec(jsonKeys(content)) {
			return models.InputAPISpec
		}
	}
	return models.InputArchitecture
}

func detectYAML(name string, content []byte) models.InputType {
	docs := yamlDocuments(content)
	for _, doc := range docs {
		if hasKey(doc, "apiVersion") && hasKey(doc, "kind") {
			return models.InputKubernetes
		}
	}
	if strings.Contains(name, "deployment") || strings.Contains(name, "service") {
		return models.InputKubernetes
	}
	if len(docs) > 0 && isAPISpec(docs[0]) {
		return models.InputAPISpec
	}
	return models.InputArchitecture
}

// yamlDocuments decodes every document of a multi-document stream, stopping
// at the first one that is not a mapping.
func yamlDocuments(content []byte) []map[string]any {
	var docs []map[string]any
	dec := yaml.NewDecoder(bytes.NewReader(content))
	for {
		var doc map[string]any
		err := dec.Decode(&doc)
		if err != nil {
			// io.EOF ends the stream; a syntax error ends detection.
			return docs
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
}

func jsonKeys(content []byte) map[string]any {
	var doc map[string]any
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil
	}
	return doc
}

func isAPISpec(doc map[string]any) bool {
	return hasKey(doc, "openapi") || hasKey(doc, "swagger")
}

func hasKey(doc map[string]any, key string) bool {
	_, ok := doc[key]
	return ok
}
