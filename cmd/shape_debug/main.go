// Command shape_debug resolves every fragment kind against one bundle and
// prints the recovered identifiers and the AST of each insertion.
//
// Usage: shape_debug <bundle.js> [kind...]
package main

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/antigravity-autopilot/internal/fragment"
	"github.com/DeusData/antigravity-autopilot/internal/parser"
	"github.com/DeusData/antigravity-autopilot/internal/shape"
)

func printAST(node *tree_sitter.Node, source []byte, indent int) {
	if node == nil {
		return
	}
	prefix := strings.Repeat("  ", indent)
	text := parser.NodeText(node, source)
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	fmt.Printf("%s%s %q\n", prefix, node.Kind(), text)
	for i := uint(0); i < node.ChildCount(); i++ {
		printAST(node.Child(i), source, indent+1)
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: shape_debug <bundle.js> [kind...]")
		os.Exit(2)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	text := string(data)

	var kinds []shape.Kind
	for _, s := range os.Args[2:] {
		k, err := shape.ParseKind(s)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		kinds = append(kinds, k)
	}

	r := &fragment.Resolver{Checker: parser.Checker{}}
	for _, d := range shape.Descriptors(kinds) {
		fmt.Printf("=== %s ===\n", d.Kind)
		if fragment.IsApplied(text, d) {
			fmt.Println("already applied")
			continue
		}
		res, err := r.Resolve(text, d)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		fmt.Printf("offset %d: %s\n", res.MatchOffset, res.MatchedText)
		for _, role := range slices.Sorted(maps.Keys(res.Identifiers)) {
			fmt.Printf("  %-8s %s\n", role, res.Identifiers[role])
		}
		fmt.Printf("insertion: %s\n", res.InsertionText)

		snippet := []byte("var " + fragment.Synthesize(res, d).Replacement + ";")
		tree, err := parser.Parse(snippet)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		printAST(tree.RootNode(), snippet, 0)
		tree.Close()
	}
}
