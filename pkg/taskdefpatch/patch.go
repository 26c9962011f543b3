package taskdefpatch

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	jsonpatch "github.com/evanphx/json-patch"
)

// Edit replaces the value at Path with the expansion of Value.
type Edit struct {
	Path  string `yaml:"path" json:"path"`
	Value string `yaml:"value" json:"value"`
}

type operation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

// Apply runs edits in order against a fresh copy of document and returns the patched JSON.
// On any failure nothing is returned, including the result of edits that had already succeeded.
func Apply(document []byte, edits []Edit, expand func(string) (string, error)) ([]byte, error) {
	doc, err := New(document)
	if err != nil {
		return nil, err
	}

	for _, e := range edits {
		if err := doc.Replace(e.Path, e.Value, expand); err != nil {
			return nil, err
		}
	}

	return doc.Marshal()
}

// Get returns the value at path.
func (d *Document) Get(path string) (interface{}, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	v, err := d.value()
	if err != nil {
		return nil, err
	}

	return lookup(p, v)
}

// Replace expands tpl and writes it at path, which must already exist.
func (d *Document) Replace(path, tpl string, expand func(string) (string, error)) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}

	before, err := d.value()
	if err != nil {
		return err
	}

	current, err := lookup(p, before)
	if err != nil {
		return err
	}

	value := tpl
	if expand != nil {
		value, err = expand(tpl)
		if err != nil {
			return err
		}
	}

	raw, err := encodeLike(current, value)
	if err != nil {
		return err
	}

	ops, err := json.Marshal([]operation{{Op: "replace", Path: p.Pointer(), Value: raw}})
	if err != nil {
		return err
	}

	patch, err := jsonpatch.DecodePatch(ops)
	if err != nil {
		return err
	}

	orig, err := json.Marshal(before)
	if err != nil {
		return err
	}

	modified, err := patch.Apply(orig)
	if err != nil {
		return &PathNotFoundError{Path: path, Err: err}
	}

	after, err := decodeValue(modified)
	if err != nil {
		return err
	}

	return d.sync(before, after)
}

func lookup(p *Path, v interface{}) (interface{}, error) {
	res, err := jsonpath.Get(p.JSONPath(), v)
	if err != nil {
		return nil, &PathNotFoundError{Path: p.String(), Err: err}
	}
	return res, nil
}

// encodeLike keeps numbers and booleans typed when the replaced node has that type.
func encodeLike(current interface{}, value string) (json.RawMessage, error) {
	switch current.(type) {
	case json.Number:
		s := strings.TrimSpace(value)
		if isJSONNumber(s) {
			return json.RawMessage(s), nil
		}
	case bool:
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return json.RawMessage(strconv.FormatBool(b)), nil
		}
	}

	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
