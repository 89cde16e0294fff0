package model

import "testing"

type fakeNormalizer struct{ name string }

func (f *fakeNormalizer) Variant() string { return f.name }

func (f *fakeNormalizer) Rule() Rule { return RuleCumulative }

func (f *fakeNormalizer) Normalize([]byte) (Normalized, error) { return Normalized{}, nil }

func TestRegistryDetectionOrder(t *testing.T) {
	RegisterNormalizer("fake-a", func() Normalizer { return &fakeNormalizer{name: "fake-a"} })
	RegisterNormalizer("fake-b", func() Normalizer { return &fakeNormalizer{name: "fake-b"} })

	variants := Variants()
	posA, posB := -1, -1
	for i, name := range variants {
		switch name {
		case "fake-a":
			posA = i
		case "fake-b":
			posB = i
		}
	}
	if posA == -1 || posB == -1 {
		t.Fatalf("registered variants missing from %v", variants)
	}
	if posA > posB {
		t.Fatalf("detection order must follow registration order: %v", variants)
	}

	norm, err := NewNormalizer("fake-a")
	if err != nil {
		t.Fatalf("NewNormalizer returned error: %v", err)
	}
	if norm.Variant() != "fake-a" {
		t.Fatalf("unexpected variant: %s", norm.Variant())
	}
}

func TestNewNormalizerUnknown(t *testing.T) {
	if _, err := NewNormalizer("no-such-variant"); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}
