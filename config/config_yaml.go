package config

import (
	"emperror.dev/errors"
	"gopkg.in/yaml.v3"
)

// mergeWithExisting encodes cfg on top of the YAML document in raw so that
// comments and key order written by the operator survive a rewrite. If raw
// cannot be parsed the configuration is encoded from scratch.
func mergeWithExisting(raw []byte, cfg *Configuration) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil || len(root.Content) == 0 {
		return yaml.Marshal(cfg)
	}

	var updated yaml.Node
	if err := updated.Encode(cfg); err != nil {
		return nil, errors.Wrap(err, "config: failed to encode updated config")
	}

	mergeNodes(root.Content[0], &updated)

	out, err := yaml.Marshal(&root)
	if err != nil {
		return nil, errors.Wrap(err, "config: failed to marshal merged config")
	}
	return out, nil
}

// mergeNodes copies values from src into dst, keeping the comments attached
// to dst. Keys only present in src are appended.
func mergeNodes(dst, src *yaml.Node) {
	if dst == nil || src == nil {
		return
	}
	if dst.Kind != src.Kind {
		*dst = *src
		return
	}

	switch dst.Kind {
	case yaml.MappingNode:
		pending := make(map[string]*yaml.Node, len(src.Content)/2)
		order := make([]string, 0, len(src.Content)/2)
		for i := 0; i+1 < len(src.Content); i += 2 {
			key := src.Content[i].Value
			pending[key] = src.Content[i+1]
			order = append(order, key)
		}
		for i := 0; i+1 < len(dst.Content); i += 2 {
			key := dst.Content[i].Value
			if v, ok := pending[key]; ok {
				mergeNodes(dst.Content[i+1], v)
				delete(pending, key)
			}
		}
		for _, key := range order {
			v, ok := pending[key]
			if !ok {
				continue
			}
			dst.Content = append(dst.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, v)
		}
	case yaml.SequenceNode:
		dst.Content = src.Content
	default:
		dst.Value = src.Value
		dst.Tag = src.Tag
		dst.Style = src.Style
	}
}
