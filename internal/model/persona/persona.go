package persona

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed anchor.yaml
var anchorYAML []byte

// Persona captures the companion's voice used in prompts and transcripts.
type Persona struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Title       string   `json:"title" yaml:"title"`
	Tone        string   `json:"tone" yaml:"tone"`
	Instruction string   `json:"instruction" yaml:"instruction"`
	Greeting    string   `json:"greeting" yaml:"greeting"`
	Traits      []string `json:"traits,omitempty" yaml:"traits"`
}

// Default 返回内置的 Anchor 角色设定。
func Default() Persona {
	p, err := Parse(anchorYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded persona is invalid: %v", err))
	}
	return p
}

// Parse decodes a persona document and checks the fields prompts depend on.
func Parse(data []byte) (Persona, error) {
	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Persona{}, fmt.Errorf("decode persona: %w", err)
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Instruction = strings.TrimSpace(p.Instruction)
	if p.Name == "" {
		return Persona{}, fmt.Errorf("persona name is required")
	}
	if p.Instruction == "" {
		return Persona{}, fmt.Errorf("persona %s has no instruction", p.Name)
	}
	return p, nil
}
