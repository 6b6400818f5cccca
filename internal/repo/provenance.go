package repo

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

type ProvenanceKey string

const (
	ProvenanceCaSource        ProvenanceKey = "ca_source"
	ProvenanceSiSource        ProvenanceKey = "si_source"
	ProvenancePCESource       ProvenanceKey = "pce_source"
	ProvenanceProcedureNotes  ProvenanceKey = "procedure_notes"
	ProvenanceFeedingSequence ProvenanceKey = "feeding_sequence"
)

var ErrUnknownProvenanceKey = errors.New("repo: unknown provenance key")

var provenanceKeys = map[ProvenanceKey]bool{
	ProvenanceCaSource:        true,
	ProvenanceSiSource:        true,
	ProvenancePCESource:       true,
	ProvenanceProcedureNotes:  true,
	ProvenanceFeedingSequence: true,
}

// Provenance is free-text sourcing and process metadata attached to a
// recipe, restricted to a fixed key set.
type Provenance map[ProvenanceKey]string

func (p Provenance) Validate() error {
	for k := range p {
		if !provenanceKeys[k] {
			return fmt.Errorf("%w: %q", ErrUnknownProvenanceKey, k)
		}
	}
	return nil
}

func (p Provenance) Value() (driver.Value, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[ProvenanceKey]string(p))
}

func (p *Provenance) Scan(src any) error {
	out := Provenance{}
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*p = out
	return nil
}
