package mood

import (
	_ "embed"
	"fmt"
	"math/rand/v2"

	"gopkg.in/yaml.v3"
)

// VariantsPerMood is the number of canned replies kept for every classifier label.
const VariantsPerMood = 3

//go:embed responses.yaml
var defaultResponses []byte

// RandomSource picks an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

// DefaultRandom returns a goroutine-safe source backed by the math/rand/v2 global generator.
func DefaultRandom() RandomSource {
	return globalRandom{}
}

// FallbackTable 保存模型不可用时使用的安抚回复，每种情绪 3 条。
type FallbackTable struct {
	responses map[Mood][]string
}

// DefaultFallbackTable returns the embedded 5×3 table.
func DefaultFallbackTable() *FallbackTable {
	table, err := ParseFallbackTable(defaultResponses)
	if err != nil {
		panic(fmt.Sprintf("embedded fallback table is invalid: %v", err))
	}
	return table
}

// ParseFallbackTable decodes a YAML mapping of mood label to reply variants.
func ParseFallbackTable(data []byte) (*FallbackTable, error) {
	raw := make(map[string][]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode fallback table: %w", err)
	}

	table := &FallbackTable{responses: make(map[Mood][]string, len(raw))}
	for label, variants := range raw {
		m, ok := ParseMood(label)
		if !ok || m == Supportive {
			return nil, fmt.Errorf("unknown mood %q in fallback table", label)
		}
		if len(variants) != VariantsPerMood {
			return nil, fmt.Errorf("mood %q has %d variants, want %d", label, len(variants), VariantsPerMood)
		}
		for i, v := range variants {
			if v == "" {
				return nil, fmt.Errorf("mood %q variant %d is empty", label, i)
			}
		}
		table.responses[m] = append([]string(nil), variants...)
	}

	for _, m := range Labels() {
		if _, ok := table.responses[m]; !ok {
			return nil, fmt.Errorf("fallback table is missing mood %q", m)
		}
	}
	return table, nil
}

// Responses returns a copy of the variants for m; unknown moods map to neutral.
func (t *FallbackTable) Responses(m Mood) []string {
	variants, ok := t.responses[m]
	if !ok {
		variants = t.responses[Neutral]
	}
	return append([]string(nil), variants...)
}

// All returns every canned reply in the table.
func (t *FallbackTable) All() []string {
	all := make([]string, 0, len(t.responses)*VariantsPerMood)
	for _, m := range Labels() {
		all = append(all, t.responses[m]...)
	}
	return all
}

// Pick 按情绪均匀随机选择一条回复。
func (t *FallbackTable) Pick(m Mood, r RandomSource) string {
	variants, ok := t.responses[m]
	if !ok {
		variants = t.responses[Neutral]
	}
	if r == nil {
		r = DefaultRandom()
	}
	return variants[r.IntN(len(variants))]
}
