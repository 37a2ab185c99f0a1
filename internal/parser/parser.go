// Package parser wraps tree-sitter's JavaScript grammar. It is used to confirm
// that a synthesized insertion leaves the surrounding declaration parseable.
package parser

import (
	"errors"
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

var (
	languageOnce sync.Once
	language     *tree_sitter.Language
	parserPool   *sync.Pool
)

func initLanguage() {
	languageOnce.Do(func() {
		language = tree_sitter.NewLanguage(tree_sitter_javascript.Language())
		parserPool = &sync.Pool{
			New: func() any {
				p := tree_sitter.NewParser()
				if err := p.SetLanguage(language); err != nil {
					panic(fmt.Sprintf("set language: %v", err))
				}
				return p
			},
		}
	})
}

// Parse parses JavaScript source into a tree-sitter AST Tree.
// The caller must call tree.Close() when done.
// Parsers are pooled via sync.Pool since checks run from parallel file workers.
func Parse(source []byte) (*tree_sitter.Tree, error) {
	initLanguage()

	p, _ := parserPool.Get().(*tree_sitter.Parser)
	if p == nil {
		return nil, errors.New("failed to get javascript parser")
	}
	tree := p.Parse(source, nil)
	parserPool.Put(p)

	if tree == nil {
		return nil, errors.New("javascript parse failed")
	}
	return tree, nil
}

// WalkFunc is called for each node during AST traversal.
// Return false to skip children.
type WalkFunc func(node *tree_sitter.Node) bool

// Walk traverses the AST in depth-first order.
func Walk(node *tree_sitter.Node, fn WalkFunc) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil {
			Walk(child, fn)
		}
	}
}

// NodeText returns the text content of a node.
func NodeText(node *tree_sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// FirstError returns the first ERROR or MISSING node, or nil.
func FirstError(root *tree_sitter.Node) *tree_sitter.Node {
	if root == nil || !root.HasError() {
		return nil
	}
	var found *tree_sitter.Node
	Walk(root, func(n *tree_sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	})
	return found
}

// Checker validates declarator snippets such as `a=f(()=>{}),b=g()` by parsing
// them as the body of a var statement.
type Checker struct{}

// Check returns an error describing the first syntax error in the snippet.
func (Checker) Check(snippet string) error {
	src := []byte("var " + snippet + ";")
	tree, err := Parse(src)
	if err != nil {
		return err
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	if n := FirstError(root); n != nil {
		// Offsets are reported relative to the snippet, not the wrapper.
		off := int(n.StartByte()) - len("var ")
		if n.IsMissing() {
			return fmt.Errorf("missing %s at offset %d", n.Kind(), off)
		}
		return fmt.Errorf("unexpected %q at offset %d", NodeText(n, src), off)
	}
	return errors.New("syntax error")
}
