package handoff

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
)

// EnvelopeVersion is the current wire schema version.
const EnvelopeVersion = 1

// Envelope wraps the params of one hop for transport across a process
// boundary.
type Envelope struct {
	Version    int        `json:"version"`
	Transition Transition `json:"transition"`
	Params     Params     `json:"params"`
}

// Seal encodes s for t and wraps it in a current-version envelope.
func (c *Codec) Seal(t Transition, s Slice) (Envelope, error) {
	p, err := c.Encode(t, s)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Version: EnvelopeVersion, Transition: t, Params: p}, nil
}

// Open checks the envelope schema and decodes its params.
func (c *Codec) Open(e Envelope) (Slice, error) {
	if err := e.Check(); err != nil {
		return Slice{}, err
	}
	return c.Decode(e.Transition, e.Params)
}

// Check rejects an unknown version or transition and any key the
// transition's contract does not carry.
func (e Envelope) Check() error {
	if e.Version != EnvelopeVersion {
		return fmt.Errorf("envelope: unsupported version %d", e.Version)
	}
	contract, ok := ContractFor(e.Transition)
	if !ok {
		return fmt.Errorf("envelope: unknown transition %q", e.Transition)
	}

	var unknown []string
	for key := range e.Params {
		if !contract.Allows(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &domain.Error{
			Kind:    domain.KindInvalidHandoffValue,
			Field:   unknown[0],
			Message: fmt.Sprintf("%s: unexpected keys %v", e.Transition, unknown),
		}
	}
	return nil
}

// MarshalEnvelope renders e as JSON.
func MarshalEnvelope(e Envelope) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("MarshalEnvelope: %w", err)
	}
	return b, nil
}

// UnmarshalEnvelope parses and schema-checks a JSON envelope.
func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("UnmarshalEnvelope: %w", err)
	}
	if err := e.Check(); err != nil {
		return Envelope{}, err
	}
	return e, nil
}
