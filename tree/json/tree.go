package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pbanos/copse/feature"
	"github.com/pbanos/copse/tree"
)

/*
RuleEncodeDecoder is an interface for objects
that allow encoding rules into slices of
bytes and decoding them back to rules.
*/
type RuleEncodeDecoder interface {
	Encode(feature.Rule) ([]byte, error)
	Decode([]byte) (feature.Rule, error)
}

type jsonTree struct {
	ID   string           `json:"id"`
	Rule *json.RawMessage `json:"rule"`
}

/*
WriteJSONTrees takes an io.Writer, a slice of trees and a RuleEncodeDecoder
and serializes the root rules of the trees as JSON onto the io.Writer.
Trees are serialized as a JSON array of objects with the following fields:
* "id": a string with the ID of the tree
* "rule": the root rule of the tree serialized by the given RuleEncodeDecoder,
  or null for unconfigured trees.
An error is returned if a rule cannot be serialized or written onto the
io.Writer.
*/
func WriteJSONTrees(w io.Writer, trees []*tree.Tree, red RuleEncodeDecoder) error {
	jts := make([]jsonTree, 0, len(trees))
	for _, t := range trees {
		jt := jsonTree{ID: t.ID}
		if r, ok := t.Rule(); ok {
			data, err := red.Encode(r)
			if err != nil {
				return fmt.Errorf("encoding rule of tree %s: %w", t.ID, err)
			}
			raw := json.RawMessage(data)
			jt.Rule = &raw
		}
		jts = append(jts, jt)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jts)
}

/*
ReadJSONTrees takes an io.Reader and a RuleEncodeDecoder and unmarshals the
contents of the io.Reader as written by WriteJSONTrees. It returns the
rules found indexed by tree ID, skipping unconfigured trees, or an error if
the JSON cannot be read or a rule cannot be decoded.
*/
func ReadJSONTrees(r io.Reader, red RuleEncodeDecoder) (map[string]feature.Rule, error) {
	var jts []jsonTree
	err := json.NewDecoder(r).Decode(&jts)
	if err != nil {
		return nil, err
	}
	result := make(map[string]feature.Rule, len(jts))
	seen := make(map[string]bool, len(jts))
	for _, jt := range jts {
		if jt.ID == "" {
			return nil, fmt.Errorf("tree without id")
		}
		if seen[jt.ID] {
			return nil, fmt.Errorf("duplicated tree %s", jt.ID)
		}
		seen[jt.ID] = true
		if jt.Rule == nil {
			continue
		}
		rule, err := red.Decode(*jt.Rule)
		if err != nil {
			return nil, fmt.Errorf("decoding rule of tree %s: %w", jt.ID, err)
		}
		result[jt.ID] = rule
	}
	return result, nil
}
