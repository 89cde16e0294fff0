package model

import "fmt"

// Normalized is the outcome of classifying one raw record. At most one
// of Usage and Message is set; both nil means the record is irrelevant
// to accounting.
type Normalized struct {
	Usage   *UsageEvent
	Message *UserMessageEvent
}

// Normalizer maps raw JSONL records of one schema variant into
// canonical events. Implementations must never panic on malformed
// input; a record that fails required-field extraction is reported as
// an error and counted by the caller, not surfaced as a hard failure.
type Normalizer interface {
	// Variant names the schema variant, e.g. "codex" or "claude".
	Variant() string

	// Rule tells the accountant how this variant reports cumulative
	// tokens.
	Rule() Rule

	// Normalize classifies one raw record.
	Normalize(line []byte) (Normalized, error)
}

// NormalizerFactory creates a Normalizer. Variant packages register
// factories from init to avoid circular dependencies, the same way the
// per-agent parsers register themselves.
type NormalizerFactory func() Normalizer

var (
	factories    = map[string]NormalizerFactory{}
	factoryOrder []string
)

// RegisterNormalizer registers a variant factory under its name.
// Registration order fixes the variant-detection order.
func RegisterNormalizer(name string, factory NormalizerFactory) {
	if _, ok := factories[name]; !ok {
		factoryOrder = append(factoryOrder, name)
	}
	factories[name] = factory
}

// NewNormalizer creates a normalizer for the named variant.
func NewNormalizer(name string) (Normalizer, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema variant: %s", name)
	}
	return factory(), nil
}

// Normalizers returns fresh normalizers for every registered variant in
// registration order. The engine probes these to detect the active
// variant from the first classifiable record of a session.
func Normalizers() []Normalizer {
	result := make([]Normalizer, 0, len(factoryOrder))
	for _, name := range factoryOrder {
		result = append(result, factories[name]())
	}
	return result
}

// Variants returns the registered variant names in detection order.
func Variants() []string {
	return append([]string(nil), factoryOrder...)
}
