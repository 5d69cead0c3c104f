package loader

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/burenotti/runbox/pkg/rberrors"
)

func unmarshalJSON(raw []byte, v any) error { return json.Unmarshal(raw, v) }

// decodeOrderedObject walks a JSON object's tokens directly, since
// encoding/json's map decoding does not preserve key order and group
// order is significant (§4.9/§6: "Order of groups and stages is
// significant").
func decodeOrderedObject(raw []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected a JSON object")
	}

	var order []string
	values := map[string]json.RawMessage{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected a string key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		order = append(order, key)
		values[key] = raw
	}
	return order, values, nil
}

type jsonTopDoc struct {
	Meta     map[string]any  `json:"meta"`
	Pipeline json.RawMessage `json:"pipeline"`
}

func parseJSONDocument(data []byte) (map[string]any, []string, map[string][]stageEntry, error) {
	var top jsonTopDoc
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, nil, nil, &rberrors.ConfigError{Message: "invalid pipeline document: " + err.Error()}
	}
	if len(top.Pipeline) == 0 {
		return top.Meta, nil, nil, nil
	}

	groupOrder, groupRaw, err := decodeOrderedObject(top.Pipeline)
	if err != nil {
		return nil, nil, nil, &rberrors.ConfigError{Message: "invalid \"pipeline\" field: " + err.Error()}
	}

	stagesByGroup := map[string][]stageEntry{}
	for _, group := range groupOrder {
		var items []json.RawMessage
		if err := json.Unmarshal(groupRaw[group], &items); err != nil {
			return nil, nil, nil, &rberrors.ConfigError{Message: "invalid group \"" + group + "\": " + err.Error()}
		}
		for _, item := range items {
			keys, values, err := decodeOrderedObject(item)
			if err != nil || len(keys) != 1 {
				return nil, nil, nil, &rberrors.ConfigError{Message: "stage entry in group \"" + group + "\" must have exactly one stage kind key"}
			}
			stagesByGroup[group] = append(stagesByGroup[group], stageEntry{kind: keys[0], params: values[keys[0]]})
		}
	}
	return top.Meta, groupOrder, stagesByGroup, nil
}

type yamlTopDoc struct {
	Meta     map[string]any `yaml:"meta"`
	Pipeline yaml.Node      `yaml:"pipeline"`
}

func parseYAMLDocument(data []byte) (map[string]any, []string, map[string][]stageEntry, error) {
	var top yamlTopDoc
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, nil, nil, &rberrors.ConfigError{Message: "invalid pipeline document: " + err.Error()}
	}
	if top.Pipeline.Kind == 0 {
		return top.Meta, nil, nil, nil
	}
	if top.Pipeline.Kind != yaml.MappingNode {
		return nil, nil, nil, &rberrors.ConfigError{Message: "\"pipeline\" must be a mapping"}
	}

	var groupOrder []string
	stagesByGroup := map[string][]stageEntry{}

	for i := 0; i+1 < len(top.Pipeline.Content); i += 2 {
		groupName := top.Pipeline.Content[i].Value
		groupNode := top.Pipeline.Content[i+1]
		if groupNode.Kind != yaml.SequenceNode {
			return nil, nil, nil, &rberrors.ConfigError{Message: "group \"" + groupName + "\" must be a sequence"}
		}
		groupOrder = append(groupOrder, groupName)

		for _, stageNode := range groupNode.Content {
			if stageNode.Kind != yaml.MappingNode || len(stageNode.Content) != 2 {
				return nil, nil, nil, &rberrors.ConfigError{Message: "stage entry in group \"" + groupName + "\" must have exactly one stage kind key"}
			}
			kind := stageNode.Content[0].Value
			raw, err := yamlNodeToJSON(stageNode.Content[1])
			if err != nil {
				return nil, nil, nil, err
			}
			stagesByGroup[groupName] = append(stagesByGroup[groupName], stageEntry{kind: kind, params: raw})
		}
	}
	return top.Meta, groupOrder, stagesByGroup, nil
}

// yamlNodeToJSON re-encodes a YAML node as JSON so every StageFactory has
// a single, format-independent input shape.
func yamlNodeToJSON(node *yaml.Node) ([]byte, error) {
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, &rberrors.ConfigError{Message: err.Error()}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &rberrors.ConfigError{Message: err.Error()}
	}
	return data, nil
}
