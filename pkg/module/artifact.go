package module

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/registry"
)

// artifactWire is the on-disk/on-wire shape cmd/rtc emits and
// cmd/rtserver, cmd/rtbench, cmd/modelpull consume: an already-optimized,
// already-eligibility-checked graph plus the schema and options a
// consuming Runtime needs, gob-encoded exactly as pkg/ir.Serialize encodes
// a bare Graph.
type artifactWire struct {
	Graph   []byte
	Schema  *ir.Schema
	Options Options
}

// Serialize produces the bytes cmd/rtc writes to a compiled-artifact blob.
func (m *InferenceModule) Serialize() ([]byte, error) {
	graphBytes, err := m.graph.Serialize()
	if err != nil {
		return nil, fmt.Errorf("module: serializing graph: %w", err)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(artifactWire{Graph: graphBytes, Schema: m.schema, Options: m.options}); err != nil {
		return nil, fmt.Errorf("module: encoding artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadArtifact rebuilds an InferenceModule from bytes produced by
// Serialize. Re-runs the Graph Optimiser and Eligibility Checker against
// the decoded graph, which is idempotent on an already-optimized,
// already-frozen graph.
func LoadArtifact(data []byte, reg *registry.Registry) (*InferenceModule, error) {
	var aw artifactWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&aw); err != nil {
		return nil, fmt.Errorf("module: decoding artifact: %w", err)
	}
	g, err := ir.Deserialize(aw.Graph)
	if err != nil {
		return nil, fmt.Errorf("module: decoding artifact graph: %w", err)
	}
	return New(g, aw.Schema, reg, aw.Options)
}
