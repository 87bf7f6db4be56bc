package persist

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Keys shared by the writer side (module flavors) and the Document types.
const (
	KeyName         = "name"
	KeyCodeType     = "code_type"
	KeyFriendlyName = "friendly_name"
	KeyFlavor       = "flavor"
	KeyIsolated     = "isolated"
	KeySource       = "source"
	KeyExpression   = "expression"
	KeyModules      = "modules"
	KeyBuild        = "build"
	KeyLibrary      = "library"
	KeyProgram      = "program"
)

// ModuleDoc is the decoded form of one written module.
type ModuleDoc struct {
	Name         string      `yaml:"name"`
	CodeType     int         `yaml:"code_type"`
	FriendlyName string      `yaml:"friendly_name,omitempty"`
	Flavor       string      `yaml:"flavor,omitempty"`
	Isolated     bool        `yaml:"isolated,omitempty"`
	Source       string      `yaml:"source,omitempty"`
	Expression   string      `yaml:"expression,omitempty"`
	Modules      []ModuleDoc `yaml:"modules,omitempty"`
}

// Text returns whichever of Source or Expression the flavor wrote.
func (d ModuleDoc) Text() string {
	if d.Expression != "" {
		return d.Expression
	}
	return d.Source
}

// BuildDoc is the decoded form of a written build.
type BuildDoc struct {
	Name    string      `yaml:"build"`
	Library []ModuleDoc `yaml:"library,omitempty"`
	Program []ModuleDoc `yaml:"program,omitempty"`
}

// DecodeBuild reads a build document.
func DecodeBuild(r io.Reader) (*BuildDoc, error) {
	var doc BuildDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode build document: %w", err)
	}
	return &doc, nil
}
