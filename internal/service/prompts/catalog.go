// Package prompts holds the system prompts and user prompt templates sent to
// the text and vision models.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/prompts.yaml
var templateFiles embed.FS

// Prompt names in the catalog.
const (
	VisionExtraction = "vision_extraction"
	PlanGeneration   = "plan_generation"
	PlanRevision     = "plan_revision"
	Chunking         = "chunking"
	ChunkingRetry    = "chunking_retry"
)

var languageNames = map[string]string{
	"en": "English",
	"pt": "Portuguese",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
}

// LanguageName converts a language code (e.g. "pt") to its English name.
// Unknown codes are returned unchanged.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

type promptDef struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type prompt struct {
	system string
	user   *template.Template
}

// Catalog is the parsed prompt set. It is immutable after Load.
type Catalog struct {
	prompts map[string]prompt
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	data, err := templateFiles.ReadFile("templates/prompts.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt catalog: %w", err)
	}
	return Parse(data)
}

// MustLoad is Load for package-level initialization.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var defs map[string]promptDef
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompt catalog: %w", err)
	}

	c := &Catalog{prompts: make(map[string]prompt, len(defs))}
	for name, def := range defs {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(def.User)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", name, err)
		}
		c.prompts[name] = prompt{system: strings.TrimSpace(def.System), user: tmpl}
	}
	return c, nil
}

// System returns the system prompt of name, empty if it has none.
func (c *Catalog) System(name string) string {
	return c.prompts[name].system
}

// Render executes the user template of name with data.
func (c *Catalog) Render(name string, data any) (string, error) {
	p, ok := c.prompts[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt: %s", name)
	}
	var b strings.Builder
	if err := p.user.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return b.String(), nil
}

// PlanGenerationData fills the plan_generation template.
type PlanGenerationData struct {
	Language     string
	CurrentPlan  string
	DocumentText string
}

// PlanRevisionData fills the plan_revision template.
type PlanRevisionData struct {
	Language    string
	CurrentPlan string
	Instruction string
}

// ChunkingData fills the chunking and chunking_retry templates.
type ChunkingData struct {
	Language     string
	StudyPlan    string
	DocumentText string
	Error        string
}
