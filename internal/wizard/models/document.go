package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	dErrors "empresaflow/pkg/domain-errors"
)

// Section is the JSON object a step produced for its topic.
type Section map[string]any

// Document aggregates every step's section into one evolving company record.
//
// Sections are replaced, never mutated in place: Update returns a new Document
// and leaves the receiver untouched. Keys found at the top level of a stored
// draft that are not topics are kept in the loose section so older drafts keep
// resolving.
type Document struct {
	sections map[Topic]Section
	loose    Section
}

// NewDocument returns an empty document.
func NewDocument() Document {
	return Document{sections: map[Topic]Section{}}
}

// Section returns a shallow copy of the topic's section, or nil.
func (d Document) Section(t Topic) Section {
	s, ok := d.sections[t]
	if !ok {
		return nil
	}
	return maps.Clone(s)
}

// Has reports whether the topic has been written.
func (d Document) Has(t Topic) bool {
	_, ok := d.sections[t]
	return ok
}

// Topics lists the written topics in step order.
func (d Document) Topics() []Topic {
	var out []Topic
	for _, s := range Steps {
		if d.Has(s.Topic) {
			out = append(out, s.Topic)
		}
	}
	return out
}

// Loose returns a copy of the top-level keys that are not topics.
func (d Document) Loose() Section {
	return maps.Clone(d.loose)
}

// Update merges partial into the topic's section: keys present in partial
// overwrite, absent keys are preserved. Values are not merged below the first
// level, so a nested list or object in partial replaces the stored one.
func (d Document) Update(t Topic, partial Section) (Document, error) {
	if t.Index() < 0 {
		return d, dErrors.Newf(dErrors.CodeValidation, "unknown section %q", t)
	}
	next := Document{
		sections: make(map[Topic]Section, len(d.sections)+1),
		loose:    d.loose,
	}
	maps.Copy(next.sections, d.sections)

	merged := make(Section, len(d.sections[t])+len(partial))
	maps.Copy(merged, d.sections[t])
	maps.Copy(merged, partial)
	next.sections[t] = merged
	return next, nil
}

// MarshalJSON writes the document as one object keyed by topic, loose keys included.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.sections)+len(d.loose))
	for k, v := range d.loose {
		out[k] = v
	}
	for t, s := range d.sections {
		out[string(t)] = s
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts any object. Topic keys must hold objects; other keys
// are kept as loose fields.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	doc := NewDocument()
	for k, v := range raw {
		if Topic(k).Index() >= 0 {
			var s Section
			if err := decodeUseNumber(v, &s); err != nil {
				return fmt.Errorf("section %s: %w", k, err)
			}
			if s == nil {
				continue
			}
			doc.sections[Topic(k)] = s
			continue
		}
		var val any
		if err := decodeUseNumber(v, &val); err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
		if doc.loose == nil {
			doc.loose = Section{}
		}
		doc.loose[k] = val
	}
	*d = doc
	return nil
}

// decodeUseNumber keeps numbers as json.Number so explicit keys survive
// without float rounding.
func decodeUseNumber(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
