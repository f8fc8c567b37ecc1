package prisma

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var blockHeader = regexp.MustCompile(`^(model|enum|datasource|generator|type|view)\s+([A-Za-z_][A-Za-z0-9_]*)\s*\{\s*(\})?$`)

// maxLineSize bounds a single schema line
const maxLineSize = 4 * 1024 * 1024

// scalarTypes are the built-in Prisma scalar type names
var scalarTypes = map[string]bool{
	"String":   true,
	"Boolean":  true,
	"Int":      true,
	"BigInt":   true,
	"Float":    true,
	"Decimal":  true,
	"DateTime": true,
	"Json":     true,
	"Bytes":    true,
}

// IsScalarType reports whether name is a built-in Prisma scalar
func IsScalarType(name string) bool {
	return scalarTypes[name]
}

// ParseFile reads and parses a .prisma schema file
func ParseFile(path string) (*Datamodel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceRead, err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f)
}

// Parse reads a .prisma schema and returns its models and enums. Only the
// subset of the language needed for conversion is understood: generator,
// datasource, view and composite type blocks are skipped, and block
// attributes (@@id, @@unique, @@map, ...) are ignored.
func Parse(r io.Reader) (*Datamodel, error) {
	p := &parser{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{Line: p.line + 1, Msg: fmt.Sprintf("line longer than %d bytes", maxLineSize)}
		}
		return nil, fmt.Errorf("%w: %w", ErrSourceRead, err)
	}
	if p.block != "" {
		return nil, &ParseError{Line: p.blockLine, Msg: fmt.Sprintf("%s %s is never closed", p.block, p.blockName)}
	}

	return p.resolve(), nil
}

type parser struct {
	line      int
	block     string
	blockName string
	blockLine int

	models []Model
	enums  []Enum
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseLine(raw string) error {
	line := strings.TrimSpace(stripComment(raw))
	if line == "" {
		return nil
	}

	if p.block == "" {
		m := blockHeader.FindStringSubmatch(line)
		if m == nil {
			return p.errorf("unexpected %q outside of a block", line)
		}
		p.block, p.blockName, p.blockLine = m[1], m[2], p.line
		switch p.block {
		case "model":
			p.models = append(p.models, Model{Name: p.blockName})
		case "enum":
			p.enums = append(p.enums, Enum{Name: p.blockName})
		}
		if m[3] != "" {
			p.block, p.blockName = "", ""
		}
		return nil
	}

	if line == "}" {
		p.block, p.blockName = "", ""
		return nil
	}

	if strings.HasPrefix(line, "@@") {
		return nil
	}

	switch p.block {
	case "model":
		field, err := p.parseField(line)
		if err != nil {
			return err
		}
		model := &p.models[len(p.models)-1]
		model.Fields = append(model.Fields, field)
	case "enum":
		enum := &p.enums[len(p.enums)-1]
		enum.Values = append(enum.Values, EnumValue{Name: strings.Fields(line)[0]})
	}

	return nil
}

// parseField parses "name Type? @attr(...) @attr" into a Field. Kind and
// relation names are filled in by resolve once every block is known.
func (p *parser) parseField(line string) (Field, error) {
	sep := strings.IndexAny(line, " \t")
	if sep < 0 {
		return Field{}, p.errorf("field %q has no type", line)
	}
	name, rest := line[:sep], strings.TrimSpace(line[sep:])

	typeToken, attrs := splitTypeToken(rest)
	if typeToken == "" {
		return Field{}, p.errorf("field %q has no type", name)
	}

	field := Field{Name: name, IsRequired: true}
	switch {
	case strings.HasSuffix(typeToken, "[]"):
		field.IsList = true
		typeToken = strings.TrimSuffix(typeToken, "[]")
	case strings.HasSuffix(typeToken, "?"):
		field.IsRequired = false
		typeToken = strings.TrimSuffix(typeToken, "?")
	}
	if i := strings.IndexByte(typeToken, '('); i >= 0 {
		typeToken = typeToken[:i]
	}
	field.Type = typeToken

	attributes, err := splitAttributes(attrs)
	if err != nil {
		return Field{}, p.errorf("field %s: %v", name, err)
	}

	for _, attr := range attributes {
		switch attr.name {
		case "id":
			field.IsID = true
		case "unique":
			field.IsUnique = true
		case "updatedAt":
			field.IsUpdatedAt = true
		case "default":
			args := splitArgs(attr.args)
			if len(args) == 0 {
				return Field{}, p.errorf("field %s: @default needs a value", name)
			}
			def, err := parseDefault(args[0])
			if err != nil {
				return Field{}, p.errorf("field %s: %v", name, err)
			}
			field.Default = def
			field.HasDefaultValue = true
		case "relation":
			if err := applyRelation(&field, attr.args); err != nil {
				return Field{}, p.errorf("field %s: %v", name, err)
			}
		}
	}

	return field, nil
}

// resolve assigns kinds, default relation names and read-only flags
func (p *parser) resolve() *Datamodel {
	models := make(map[string]bool, len(p.models))
	for _, m := range p.models {
		models[m.Name] = true
	}
	enums := make(map[string]bool, len(p.enums))
	for _, e := range p.enums {
		enums[e.Name] = true
	}

	for i := range p.models {
		model := &p.models[i]
		readOnly := make(map[string]bool)

		for j := range model.Fields {
			f := &model.Fields[j]
			switch {
			case models[f.Type]:
				f.Kind = KindObject
				if f.RelationName == "" {
					f.RelationName = RelationName(model.Name, f.Type)
				}
				for _, from := range f.RelationFromFields {
					readOnly[from] = true
				}
			case enums[f.Type]:
				f.Kind = KindEnum
			case scalarTypes[f.Type]:
				f.Kind = KindScalar
			default:
				f.Kind = KindUnsupported
			}
		}

		for j := range model.Fields {
			f := &model.Fields[j]
			if f.Kind != KindObject && readOnly[f.Name] {
				f.IsReadOnly = true
			}
		}
	}

	return &Datamodel{Models: p.models, Enums: p.enums}
}

// RelationName mirrors Prisma's implicit naming: both model names in
// lexical order joined by "To".
func RelationName(a, b string) string {
	names := []string{a, b}
	sort.Strings(names)
	return names[0] + "To" + names[1]
}

func applyRelation(field *Field, args string) error {
	for i, arg := range splitArgs(args) {
		key, value, named := cutNamedArg(arg)
		if !named {
			if i != 0 {
				return fmt.Errorf("unexpected positional @relation argument %q", arg)
			}
			key, value = "name", arg
		}

		switch key {
		case "name":
			s, err := strconv.Unquote(value)
			if err != nil {
				return fmt.Errorf("relation name %s is not a string", value)
			}
			field.RelationName = s
		case "fields":
			list, err := parseIdentList(value)
			if err != nil {
				return err
			}
			field.RelationFromFields = list
		case "references":
			list, err := parseIdentList(value)
			if err != nil {
				return err
			}
			field.RelationToFields = list
		}
	}
	return nil
}

func parseIdentList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("expected a field list, got %q", s)
	}
	return splitArgs(s[1 : len(s)-1]), nil
}

// parseDefault interprets the first argument of @default
func parseDefault(expr string) (*Default, error) {
	expr = strings.TrimSpace(expr)
	if open := strings.IndexByte(expr, '('); open > 0 && strings.HasSuffix(expr, ")") && isIdent(expr[:open]) {
		var args []any
		for _, arg := range splitArgs(expr[open+1 : len(expr)-1]) {
			v, err := parseValue(arg)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		return Call(expr[:open], args...), nil
	}

	v, err := parseValue(expr)
	if err != nil {
		return nil, err
	}
	return Literal(v), nil
}

func parseValue(expr string) (any, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "true" || expr == "false":
		return expr == "true", nil
	case strings.HasPrefix(expr, `"`):
		s, err := strconv.Unquote(expr)
		if err != nil {
			return nil, fmt.Errorf("malformed string %s", expr)
		}
		return s, nil
	case strings.HasPrefix(expr, "["):
		if !strings.HasSuffix(expr, "]") {
			return nil, fmt.Errorf("malformed list %s", expr)
		}
		items := []any{}
		for _, item := range splitArgs(expr[1 : len(expr)-1]) {
			v, err := parseValue(item)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case isIdent(expr):
		// enum member
		return expr, nil
	}

	if _, err := strconv.ParseFloat(expr, 64); err != nil {
		return nil, fmt.Errorf("cannot read default value %s", expr)
	}
	return json.Number(expr), nil
}

type attribute struct {
	name string
	args string
}

// splitTypeToken separates the type token from the attributes that follow
// it. Types may carry parentheses, e.g. Unsupported("circle").
func splitTypeToken(s string) (typeToken, rest string) {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '(':
			depth++
		case c == ')':
			depth--
		case (c == ' ' || c == '\t') && depth == 0:
			return s[:i], strings.TrimSpace(s[i:])
		}
	}
	return s, ""
}

// splitAttributes splits "@id @default(autoincrement()) @db.Text" into
// individual attributes with their raw argument text.
func splitAttributes(s string) ([]attribute, error) {
	var attrs []attribute
	for {
		s = strings.TrimSpace(s)
		if s == "" {
			return attrs, nil
		}
		if s[0] != '@' {
			return nil, fmt.Errorf("unexpected %q", s)
		}

		i := 1
		for i < len(s) && (isIdentByte(s[i]) || s[i] == '.') {
			i++
		}
		attr := attribute{name: s[1:i]}
		if attr.name == "" {
			return nil, fmt.Errorf("empty attribute name")
		}

		if i < len(s) && s[i] == '(' {
			end, err := matchParen(s, i)
			if err != nil {
				return nil, fmt.Errorf("@%s: %w", attr.name, err)
			}
			attr.args = s[i+1 : end]
			i = end + 1
		}

		attrs = append(attrs, attr)
		s = s[i:]
	}
}

// matchParen returns the index of the parenthesis closing the one at open
func matchParen(s string, open int) (int, error) {
	depth := 0
	inString := false
	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
			if depth == 0 {
				if c != ')' {
					return 0, fmt.Errorf("mismatched brackets")
				}
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced parentheses")
}

// splitArgs splits on top-level commas, honoring strings and brackets
func splitArgs(s string) []string {
	var out []string
	depth := 0
	inString := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == ',' && depth == 0:
			if arg := strings.TrimSpace(s[start:i]); arg != "" {
				out = append(out, arg)
			}
			start = i + 1
		}
	}
	if arg := strings.TrimSpace(s[start:]); arg != "" {
		out = append(out, arg)
	}
	return out
}

// cutNamedArg splits "key: value". Colons inside strings do not count.
func cutNamedArg(arg string) (key, value string, ok bool) {
	i := 0
	for i < len(arg) && isIdentByte(arg[i]) {
		i++
	}
	if i == 0 {
		return "", arg, false
	}
	rest := strings.TrimSpace(arg[i:])
	if !strings.HasPrefix(rest, ":") {
		return "", arg, false
	}
	return arg[:i], strings.TrimSpace(rest[1:]), true
}

// stripComment drops a trailing // comment that is not inside a string
func stripComment(line string) string {
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}

func isIdent(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
