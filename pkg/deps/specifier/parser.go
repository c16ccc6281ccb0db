// Package specifier extracts raw module specifiers from TypeScript and
// JavaScript source files.
//
// A specifier is the string literal a file uses to name another module:
// "./util" in import { f } from "./util", or "react" in require("react").
// The parser does not interpret specifiers; resolution happens in
// [github.com/matzehuels/pcc/pkg/deps/resolve].
//
// Recognized forms:
//
//	import x from "s"          import "s"            import type { T } from "s"
//	export * from "s"          export { a } from "s"
//	import x = require("s")    require("s")          import("s")
//
// Dynamic forms are only recognized when their argument is a string literal or
// a template literal without substitutions.
package specifier

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ErrSyntax marks source that the grammar could not parse cleanly.
// Callers treat it as a warning: the file contributes no specifiers.
var ErrSyntax = errors.New("syntax error")

// SyntaxError reports the position of the first error node in a file.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: syntax error", e.Path, e.Line, e.Column)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Source yields the raw specifiers of one file. Parser and CachedParser
// implement it.
type Source interface {
	Parse(ctx context.Context, path string, content []byte) ([]string, error)
}

// Grammar names, also used as cache key discriminators.
const (
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
	LangJavaScript = "javascript"
)

var grammars = map[string]string{
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
}

// Language returns the grammar used for path, or "" when the extension has
// no grammar.
func Language(path string) string {
	return grammars[strings.ToLower(filepath.Ext(path))]
}

func language(name string) *sitter.Language {
	switch name {
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangTSX:
		return tsx.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	}
	return nil
}

// Parser extracts specifiers with tree-sitter. It is stateless and safe for
// concurrent use; every call creates its own tree-sitter parser.
type Parser struct{}

// New returns a Parser.
func New() *Parser { return &Parser{} }

// Parse returns the specifiers of content in order of first appearance.
// Duplicates are kept. Files without a grammar yield nil and no error.
// A file with syntax errors yields nil and a *SyntaxError.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lang := language(Language(path))
	if lang == nil {
		return nil, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(path, root)
	}
	return collect(root, content), nil
}

// collect walks the tree in source order with an explicit stack.
func collect(root *sitter.Node, content []byte) []string {
	var out []string
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch node.Type() {
		case "export_statement":
			if s, ok := literal(node.ChildByFieldName("source"), content); ok {
				out = append(out, s)
			}
		case "import_statement", "import_require_clause":
			if s, ok := literal(source(node), content); ok {
				out = append(out, s)
			}
		case "call_expression":
			if s, ok := callSpecifier(node, content); ok {
				out = append(out, s)
			}
		}

		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(i); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return out
}

// source returns the module string of an import statement or an
// import-require clause. Older grammars leave the clause's string unfielded.
func source(node *sitter.Node) *sitter.Node {
	if src := node.ChildByFieldName("source"); src != nil {
		return src
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil && child.Type() == "string" {
			return child
		}
	}
	return nil
}

// callSpecifier matches require("s") and import("s").
func callSpecifier(call *sitter.Node, content []byte) (string, bool) {
	fn := call.ChildByFieldName("function")
	args := call.ChildByFieldName("arguments")
	if fn == nil || args == nil {
		return "", false
	}
	switch fn.Type() {
	case "import":
	case "identifier":
		if fn.Content(content) != "require" {
			return "", false
		}
	default:
		return "", false
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "comment" {
			continue
		}
		return literal(arg, content)
	}
	return "", false
}

// literal returns the text of a string or substitution-free template node.
func literal(node *sitter.Node, content []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Type() {
	case "string":
	case "template_string":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if node.NamedChild(i).Type() == "template_substitution" {
				return "", false
			}
		}
	default:
		return "", false
	}
	start, end := node.StartByte(), node.EndByte()
	if end-start < 2 {
		return "", false
	}
	s := string(content[start+1 : end-1])
	if s == "" {
		return "", false
	}
	return s, true
}

func syntaxError(path string, root *sitter.Node) error {
	se := &SyntaxError{Path: path, Line: 1, Column: 1}
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node.Type() == "ERROR" || node.IsMissing() {
			pt := node.StartPoint()
			se.Line, se.Column = int(pt.Row)+1, int(pt.Column)+1
			return se
		}
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(i); child != nil && child.HasError() {
				stack = append(stack, child)
			}
		}
	}
	return se
}
