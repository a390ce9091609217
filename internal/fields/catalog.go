// Package fields maps Airtable field types to the question types the form
// builder can render. The default mapping is embedded; deployments can
// override it with AIRFORM_FIELD_CATALOG pointing at a YAML file.
package fields

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Mapping describes how one Airtable field type renders as a question.
type Mapping struct {
	QuestionType string `yaml:"question_type"`
	HasChoices   bool   `yaml:"has_choices"`
}

type fileConfig struct {
	FieldTypes map[string]Mapping `yaml:"field_types"`
}

var (
	stateMu     sync.RWMutex
	initialized bool
	byFieldType map[string]Mapping
	questionSet map[string]struct{}
)

// Init loads the catalog, preferring the override file when configured.
func Init() error {
	data := defaultCatalog
	if path := strings.TrimSpace(os.Getenv("AIRFORM_FIELD_CATALOG")); path != "" {
		override, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("fields: reading catalog %q: %w", path, err)
		}
		data = override
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("fields: parsing catalog: %w", err)
	}

	stateMu.Lock()
	defer stateMu.Unlock()

	byFieldType = make(map[string]Mapping, len(cfg.FieldTypes))
	questionSet = make(map[string]struct{}, len(cfg.FieldTypes))
	for fieldType, m := range cfg.FieldTypes {
		if m.QuestionType == "" {
			continue
		}
		byFieldType[fieldType] = m
		questionSet[m.QuestionType] = struct{}{}
	}
	initialized = true
	return nil
}

func ensureInitialized() {
	stateMu.RLock()
	ok := initialized
	stateMu.RUnlock()
	if ok {
		return
	}
	_ = Init()
}

// ResetForTest resets in-memory state so tests can force reload.
func ResetForTest() {
	stateMu.Lock()
	defer stateMu.Unlock()
	initialized = false
	byFieldType = nil
	questionSet = nil
}

// QuestionTypeFor returns the question mapping for an Airtable field type.
// The second return is false for field types the builder cannot render.
func QuestionTypeFor(airtableFieldType string) (Mapping, bool) {
	ensureInitialized()

	stateMu.RLock()
	defer stateMu.RUnlock()
	m, ok := byFieldType[airtableFieldType]
	return m, ok
}

// KnownQuestionType reports whether a question type exists in the catalog.
// Form creation rejects questions typed outside it.
func KnownQuestionType(questionType string) bool {
	ensureInitialized()

	stateMu.RLock()
	defer stateMu.RUnlock()
	_, ok := questionSet[questionType]
	return ok
}
