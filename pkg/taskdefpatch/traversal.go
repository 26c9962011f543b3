package taskdefpatch

import (
	"bytes"
	"encoding/json"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

type traversalState struct {
	node *yaml.Node
	ps   cmp.PathStep
}

// traversal is a cmp.Reporter that copies changed leaves of the patched value back onto the node tree.
type traversal struct {
	stack []traversalState
	err   error
}

func (t *traversal) push(node *yaml.Node, ps cmp.PathStep) {
	t.stack = append(t.stack, traversalState{node: node, ps: ps})
}

func (t *traversal) state() traversalState {
	return t.stack[len(t.stack)-1]
}

func (t *traversal) PushStep(ps cmp.PathStep) {
	cur := t.state()
	node := cur.node

	switch p := ps.(type) {
	case cmp.SliceIndex:
		if i := p.Key(); node != nil && 0 <= i && i < len(node.Content) {
			t.push(node.Content[i], ps)
			return
		}
		t.push(nil, ps)
	case cmp.MapIndex:
		if node != nil {
			key := p.Key().String()
			for i := 0; i+1 < len(node.Content); i += 2 {
				if node.Content[i].Value == key {
					t.push(node.Content[i+1], ps)
					return
				}
			}
		}
		t.push(nil, ps)
	case cmp.TypeAssertion:
		t.push(node, cur.ps)
	default:
		if node != nil && node.Kind == yaml.DocumentNode {
			node = node.Content[0]
		}
		t.push(node, ps)
	}
}

func (t *traversal) Report(rs cmp.Result) {
	if rs.Equal() || t.err != nil {
		return
	}

	cur := t.state()
	vx, vy := cur.ps.Values()

	// Replacements never add or remove nodes.
	if cur.node == nil || !vx.IsValid() || !vy.IsValid() {
		t.err = errUnexpectedShape
		return
	}

	out, err := json.Marshal(vy.Interface())
	if err != nil {
		t.err = err
		return
	}

	var n *yaml.Node
	if err := decodeNode(out, &n); err != nil {
		t.err = err
		return
	}

	cur.node.Kind = n.Kind
	cur.node.Style = n.Style
	cur.node.Tag = n.Tag
	cur.node.Value = n.Value
	cur.node.Content = n.Content
	cur.node.Alias = nil
}

func (t *traversal) PopStep() {
	t.stack = t.stack[:len(t.stack)-1]
}

func decodeNode(b []byte, n **yaml.Node) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	node, err := nodeFromJSON(dec)
	if err != nil {
		return err
	}
	*n = node
	return nil
}

// sync updates the node tree so that it encodes to after.
func (d *Document) sync(before, after interface{}) error {
	t := &traversal{}
	t.push(d.node, nil)
	cmp.Equal(before, after, cmp.Reporter(t))
	return t.err
}
