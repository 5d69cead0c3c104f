package models

import (
	"encoding/json"
	"fmt"

	"github.com/burenotti/runbox/pkg/rberrors"
	"gopkg.in/yaml.v3"
)

const splatToken = "..."

// CmdElement is one item of a DockerProfile's cmd_template (§3/§6): a
// literal argument, a positional file placeholder {index:int}, or the
// splat marker "...".
type CmdElement struct {
	Literal string
	Index   *int
	Splat   bool
}

// Literal builds a literal cmd_template element.
func Literal(s string) CmdElement { return CmdElement{Literal: s} }

// Placeholder builds a positional file-placeholder cmd_template element.
func Placeholder(index int) CmdElement { return CmdElement{Index: &index} }

// Splat builds the splat marker cmd_template element.
func Splat() CmdElement { return CmdElement{Splat: true} }

type placeholderDoc struct {
	Index *int `json:"index" yaml:"index"`
}

func (c *CmdElement) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == splatToken {
			*c = CmdElement{Splat: true}
		} else {
			*c = CmdElement{Literal: s}
		}
		return nil
	}
	var doc placeholderDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return &rberrors.ConfigError{Message: fmt.Sprintf("invalid cmd_template element: %v", err)}
	}
	if doc.Index == nil {
		return &rberrors.ConfigError{Message: "cmd_template object element must set \"index\""}
	}
	*c = CmdElement{Index: doc.Index}
	return nil
}

func (c CmdElement) MarshalJSON() ([]byte, error) {
	switch {
	case c.Splat:
		return json.Marshal(splatToken)
	case c.Index != nil:
		return json.Marshal(placeholderDoc{Index: c.Index})
	default:
		return json.Marshal(c.Literal)
	}
}

func (c *CmdElement) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s == splatToken {
			*c = CmdElement{Splat: true}
		} else {
			*c = CmdElement{Literal: s}
		}
		return nil
	}
	var doc placeholderDoc
	if err := value.Decode(&doc); err != nil {
		return &rberrors.ConfigError{Message: fmt.Sprintf("invalid cmd_template element: %v", err)}
	}
	if doc.Index == nil {
		return &rberrors.ConfigError{Message: "cmd_template object element must set \"index\""}
	}
	*c = CmdElement{Index: doc.Index}
	return nil
}

// DockerProfile is an immutable container specification (§3).
type DockerProfile struct {
	Image       string       `json:"image" yaml:"image"`
	Workdir     string       `json:"workdir" yaml:"workdir"`
	User        string       `json:"user,omitempty" yaml:"user,omitempty"`
	CmdTemplate []CmdElement `json:"cmd_template,omitempty" yaml:"cmd_template,omitempty"`
}

// ResolveCmd implements the DockerProfile command resolution algorithm
// (§4.3) against file sequence F.
func (p DockerProfile) ResolveCmd(files []File) ([]string, error) {
	used := make([]bool, len(files))
	for i := range used {
		used[i] = true
	}

	result := make([]string, len(p.CmdTemplate))
	splatPos := -1
	for i, el := range p.CmdTemplate {
		switch {
		case el.Splat:
			if splatPos != -1 {
				return nil, &rberrors.ConfigError{Message: "cmd_template contains more than one splat marker"}
			}
			splatPos = i
		case el.Index != nil:
			idx := *el.Index
			if idx < 0 || idx >= len(files) {
				return nil, &rberrors.ConfigError{
					Message: fmt.Sprintf("cmd_template placeholder index %d out of range for %d files", idx, len(files)),
				}
			}
			result[i] = files[idx].Name
			used[idx] = false
		default:
			result[i] = el.Literal
		}
	}

	if splatPos == -1 {
		return result, nil
	}

	var expansion []string
	for i, f := range files {
		if used[i] {
			expansion = append(expansion, f.Name)
		}
	}

	final := make([]string, 0, len(result)-1+len(expansion))
	final = append(final, result[:splatPos]...)
	final = append(final, expansion...)
	final = append(final, result[splatPos+1:]...)
	return final, nil
}
