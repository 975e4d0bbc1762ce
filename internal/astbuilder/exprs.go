package astbuilder

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Text returns the source text of node in the file being walked.
func (b *Builder) Text(node *sitter.Node) string {
	if node == nil || b.file == nil {
		return ""
	}
	return node.Content(b.file.Source)
}

// DottedName returns "a.b.c" for an identifier or a chain of attribute
// accesses on an identifier. Any other expression reports false.
func (b *Builder) DottedName(node *sitter.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Type() {
	case "identifier":
		return b.Text(node), true
	case "attribute":
		obj, ok := b.DottedName(node.ChildByFieldName("object"))
		if !ok {
			return "", false
		}
		attr := node.ChildByFieldName("attribute")
		if attr == nil {
			return "", false
		}
		return obj + "." + b.Text(attr), true
	}
	return "", false
}

// ExprName returns the dotted name of node when it has one, otherwise its
// source text with whitespace removed.
func (b *Builder) ExprName(node *sitter.Node) string {
	if name, ok := b.DottedName(node); ok {
		return name
	}
	return strings.Join(strings.Fields(b.Text(node)), "")
}

// CalleeName returns the fully-qualified name of the function a call node
// invokes. Calls whose callee is not a dotted name report false.
func (b *Builder) CalleeName(call *sitter.Node) (string, bool) {
	if call == nil || call.Type() != "call" {
		return "", false
	}
	name, ok := b.DottedName(call.ChildByFieldName("function"))
	if !ok {
		return "", false
	}
	return b.Resolve(name), true
}

// PositionalArgs returns the arguments of a call. It reports false when the
// call uses keyword arguments, splats or a generator argument.
func (b *Builder) PositionalArgs(call *sitter.Node) ([]*sitter.Node, bool) {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.Type() != "argument_list" {
		return nil, false
	}
	out := []*sitter.Node{}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "comment":
			continue
		case "keyword_argument", "list_splat", "dictionary_splat", "parenthesized_list_splat":
			return nil, false
		}
		out = append(out, arg)
	}
	return out, true
}

// StringLiteral returns the value of a plain string literal, including
// implicit concatenation of adjacent literals. f-strings, byte strings and
// anything that is not a string literal report false.
func (b *Builder) StringLiteral(node *sitter.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Type() {
	case "concatenated_string":
		var sb strings.Builder
		for i := 0; i < int(node.NamedChildCount()); i++ {
			part := node.NamedChild(i)
			if part.Type() == "comment" {
				continue
			}
			s, ok := b.StringLiteral(part)
			if !ok {
				return "", false
			}
			sb.WriteString(s)
		}
		return sb.String(), true
	case "string":
	default:
		return "", false
	}

	raw := false
	var sb strings.Builder
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		switch c.Type() {
		case "string_start":
			prefix := strings.ToLower(strings.TrimRight(b.Text(c), `"'`))
			if strings.ContainsAny(prefix, "fb") {
				return "", false
			}
			raw = strings.Contains(prefix, "r")
		case "string_content":
			sb.WriteString(b.stringContent(c, raw))
		case "escape_sequence":
			sb.WriteString(unescape(b.Text(c), raw))
		case "interpolation":
			return "", false
		}
	}
	return sb.String(), true
}

// stringContent returns the text of a string_content node, decoding escape
// sequences that the grammar exposes as children.
func (b *Builder) stringContent(node *sitter.Node, raw bool) string {
	if node.ChildCount() == 0 {
		return b.Text(node)
	}
	src := b.file.Source
	var sb strings.Builder
	pos := node.StartByte()
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		sb.Write(src[pos:c.StartByte()])
		if c.Type() == "escape_sequence" {
			sb.WriteString(unescape(c.Content(src), raw))
		} else {
			sb.WriteString(c.Content(src))
		}
		pos = c.EndByte()
	}
	sb.Write(src[pos:node.EndByte()])
	return sb.String()
}

var simpleEscapes = map[string]string{
	`\n`: "\n", `\t`: "\t", `\r`: "\r", `\\`: `\`,
	`\'`: "'", `\"`: `"`, `\a`: "\a", `\b`: "\b", `\f`: "\f", `\v`: "\v",
	"\\\n": "",
}

// unescape decodes the common single-character escapes. Numeric and named
// escapes are kept as written.
func unescape(seq string, raw bool) string {
	if raw {
		return seq
	}
	if s, ok := simpleEscapes[seq]; ok {
		return s
	}
	return seq
}
