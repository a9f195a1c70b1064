package schema

import (
	"math"
	"sort"
)

// MetaSchema is the draft written into generated schema files and used to compile every schema.
const MetaSchema = "http://json-schema.org/draft-07/schema#"

// inferredNode accumulates what has been observed at one location in one or more JSON documents.
type inferredNode struct {
	types      map[string]bool
	objects    int
	properties map[string]*inferredNode
	present    map[string]int
	items      *inferredNode
}

func newInferredNode() *inferredNode {
	return &inferredNode{types: make(map[string]bool)}
}

// InferSchema builds a draft-07 schema describing value, which must be plain JSON data as produced
// by encoding/json. Every property seen is listed; a property is required only if it is present in
// every object observed at that location. Array items are described by one schema that covers
// all of them.
func InferSchema(value interface{}) map[string]interface{} {
	root := newInferredNode()
	root.observe(value)
	out := root.render()
	out["$schema"] = MetaSchema
	return out
}

func (n *inferredNode) observe(value interface{}) {
	switch v := value.(type) {
	case nil:
		n.types["null"] = true
	case bool:
		n.types["boolean"] = true
	case string:
		n.types["string"] = true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			n.types["integer"] = true
		} else {
			n.types["number"] = true
		}
	case []interface{}:
		n.types["array"] = true
		if n.items == nil {
			n.items = newInferredNode()
		}
		for _, item := range v {
			n.items.observe(item)
		}
	case map[string]interface{}:
		n.types["object"] = true
		n.objects++
		if n.properties == nil {
			n.properties = make(map[string]*inferredNode)
			n.present = make(map[string]int)
		}
		for k, item := range v {
			p, ok := n.properties[k]
			if !ok {
				p = newInferredNode()
				n.properties[k] = p
			}
			p.observe(item)
			n.present[k]++
		}
	}
}

func (n *inferredNode) render() map[string]interface{} {
	out := make(map[string]interface{})
	if n.types["integer"] && n.types["number"] {
		delete(n.types, "integer")
	}
	types := make([]string, 0, len(n.types))
	for t := range n.types {
		types = append(types, t)
	}
	sort.Strings(types)
	switch len(types) {
	case 0:
		return out
	case 1:
		out["type"] = types[0]
	default:
		out["type"] = types
	}

	if n.types["object"] {
		props := make(map[string]interface{}, len(n.properties))
		required := []string{}
		for k, p := range n.properties {
			props[k] = p.render()
			if n.present[k] == n.objects {
				required = append(required, k)
			}
		}
		sort.Strings(required)
		out["properties"] = props
		out["required"] = required
	}
	if n.types["array"] {
		if n.items == nil || len(n.items.types) == 0 {
			out["items"] = map[string]interface{}{}
		} else {
			out["items"] = n.items.render()
		}
	}
	return out
}
