// Package persist serializes module trees to YAML documents and reads them
// back.
package persist

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnbalanced = errors.New("unbalanced element")
	ErrNotMapping = errors.New("value written outside of a mapping")
)

// SaveOptions controls what a module writes.
type SaveOptions struct {
	// IncludeChildren writes the child modules nested under each module.
	IncludeChildren bool

	// OmitEmptySource skips the source key when the source is blank.
	OmitEmptySource bool
}

// DefaultSaveOptions writes the whole tree, empty sources included.
func DefaultSaveOptions() SaveOptions {
	return SaveOptions{IncludeChildren: true}
}

// Writer builds a YAML document one element at a time. Elements are either
// mappings or sequences; inside a sequence the element name is ignored.
// The first error sticks and is reported by Err, Encode and Bytes.
type Writer struct {
	root  *yaml.Node
	stack []*yaml.Node
	err   error
}

// NewWriter returns a writer whose document root is a mapping.
func NewWriter() *Writer {
	root := &yaml.Node{Kind: yaml.MappingNode}
	return &Writer{root: root, stack: []*yaml.Node{root}}
}

func (w *Writer) current() *yaml.Node {
	return w.stack[len(w.stack)-1]
}

func (w *Writer) add(name string, n *yaml.Node) {
	cur := w.current()
	switch cur.Kind {
	case yaml.SequenceNode:
		cur.Content = append(cur.Content, n)
	case yaml.MappingNode:
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
		cur.Content = append(cur.Content, key, n)
	}
}

// BeginMap opens a mapping element.
func (w *Writer) BeginMap(name string) {
	if w.err != nil {
		return
	}
	n := &yaml.Node{Kind: yaml.MappingNode}
	w.add(name, n)
	w.stack = append(w.stack, n)
}

// BeginList opens a sequence element.
func (w *Writer) BeginList(name string) {
	if w.err != nil {
		return
	}
	n := &yaml.Node{Kind: yaml.SequenceNode}
	w.add(name, n)
	w.stack = append(w.stack, n)
}

// End closes the innermost open element.
func (w *Writer) End() {
	if w.err != nil {
		return
	}
	if len(w.stack) == 1 {
		w.err = fmt.Errorf("%w: End without Begin", ErrUnbalanced)
		return
	}
	w.stack = w.stack[:len(w.stack)-1]
}

func (w *Writer) scalar(key, tag, value string, style yaml.Style) {
	if w.err != nil {
		return
	}
	if w.current().Kind != yaml.MappingNode {
		w.err = fmt.Errorf("%w: %s", ErrNotMapping, key)
		return
	}
	w.add(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value, Style: style})
}

// WriteString writes a string value. Multi-line values use the literal block
// style.
func (w *Writer) WriteString(key, value string) {
	var style yaml.Style
	if strings.Contains(value, "\n") {
		style = yaml.LiteralStyle
	}
	w.scalar(key, "!!str", value, style)
}

func (w *Writer) WriteInt(key string, value int) {
	w.scalar(key, "!!int", strconv.Itoa(value), 0)
}

func (w *Writer) WriteBool(key string, value bool) {
	w.scalar(key, "!!bool", strconv.FormatBool(value), 0)
}

// Err returns the first error recorded by the writer.
func (w *Writer) Err() error {
	return w.err
}

// Encode writes the document to out. Every element must be closed.
func (w *Writer) Encode(out io.Writer) error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) != 1 {
		return fmt.Errorf("%w: %d element(s) still open", ErrUnbalanced, len(w.stack)-1)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{w.root}}); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return enc.Close()
}

// Bytes returns the encoded document.
func (w *Writer) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
