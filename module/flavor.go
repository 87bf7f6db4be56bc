package module

import (
	"fmt"
	"strings"

	"github.com/robbyt/go-scripttree/engine"
	"github.com/robbyt/go-scripttree/persist"
)

// Flavor is the per-kind behavior of a ScriptModule: how its source is
// prepared for the engine and how it is persisted.
type Flavor interface {
	Name() string

	// Kind is the chunk kind the prepared source is loaded as.
	Kind() engine.ChunkKind

	// ManageCode turns the stored source into the text handed to the engine.
	ManageCode(src string) string

	Write(w *persist.Writer, m *ScriptModule, elementName string, opts persist.SaveOptions) error
}

const (
	PlainFlavorName      = "plain"
	ExpressionFlavorName = "expression"
)

// FlavorByName returns the flavor registered under name. An empty name is the
// plain flavor.
func FlavorByName(name string) (Flavor, error) {
	switch strings.ToLower(name) {
	case "", PlainFlavorName:
		return PlainFlavor{}, nil
	case ExpressionFlavorName:
		return ExpressionFlavor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlavor, name)
	}
}

// PlainFlavor hands the source to the engine unchanged as a file chunk.
type PlainFlavor struct{}

func (PlainFlavor) Name() string { return PlainFlavorName }

func (PlainFlavor) Kind() engine.ChunkKind { return engine.FileChunk }

func (PlainFlavor) ManageCode(src string) string { return src }

func (f PlainFlavor) Write(w *persist.Writer, m *ScriptModule, elementName string, opts persist.SaveOptions) error {
	return writeModule(w, m, elementName, opts, persist.KeySource)
}

// ExpressionFlavor treats the source as a single expression whose value is
// the module result.
type ExpressionFlavor struct{}

func (ExpressionFlavor) Name() string { return ExpressionFlavorName }

func (ExpressionFlavor) Kind() engine.ChunkKind { return engine.ExpressionChunk }

func (ExpressionFlavor) ManageCode(src string) string {
	return strings.TrimSpace(src)
}

func (f ExpressionFlavor) Write(w *persist.Writer, m *ScriptModule, elementName string, opts persist.SaveOptions) error {
	return writeModule(w, m, elementName, opts, persist.KeyExpression)
}

func writeModule(w *persist.Writer, m *ScriptModule, elementName string, opts persist.SaveOptions, sourceKey string) error {
	w.BeginMap(elementName)
	w.WriteString(persist.KeyName, m.Name())
	w.WriteInt(persist.KeyCodeType, m.CodeType())
	w.WriteString(persist.KeyFriendlyName, m.FriendlyName())
	w.WriteString(persist.KeyFlavor, m.Flavor().Name())
	if m.Isolated() {
		w.WriteBool(persist.KeyIsolated, true)
	}
	if src := m.Source(); !opts.OmitEmptySource || strings.TrimSpace(src) != "" {
		w.WriteString(sourceKey, src)
	}

	if children := m.Modules(); opts.IncludeChildren && len(children) > 0 {
		w.BeginList(persist.KeyModules)
		for _, child := range children {
			if err := child.Write(w, persist.KeyModules, opts); err != nil {
				return err
			}
		}
		w.End()
	}
	w.End()
	return w.Err()
}
