package branch

import (
	"fmt"

	"github.com/calliope-studio/calliope/internal/canon"
	"github.com/calliope-studio/calliope/internal/entity"
)

// Export is a portable project document: the canonical JSON serialization
// of a bundle plus its content fingerprint. Two exports with identical
// content are byte-identical regardless of which machine produced them.
type Export struct {
	Data        []byte
	Fingerprint string
}

// ExportBundle serializes a bundle to canonical JSON and fingerprints it.
func ExportBundle(b entity.Bundle) (Export, error) {
	doc := b.CanonicalMap()
	data, err := canon.Marshal(doc)
	if err != nil {
		return Export{}, fmt.Errorf("export: %w", err)
	}
	fp, err := canon.Fingerprint(canon.DomainProject, doc)
	if err != nil {
		return Export{}, fmt.Errorf("export: %w", err)
	}
	return Export{Data: data, Fingerprint: fp}, nil
}
