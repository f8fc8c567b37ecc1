// Package prisma holds the normalized Prisma data model consumed by the
// converter, together with the providers that produce it: a parser for
// .prisma files and a decoder for the DMMF JSON emitted by Prisma itself.
package prisma

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// FieldKind classifies a field the way the DMMF does
type FieldKind string

const (
	KindScalar      FieldKind = "scalar"
	KindObject      FieldKind = "object"
	KindEnum        FieldKind = "enum"
	KindUnsupported FieldKind = "unsupported"
)

// Document is the root of a DMMF JSON document
type Document struct {
	Datamodel Datamodel `json:"datamodel"`
}

// Datamodel is the set of models and enums of one source schema
type Datamodel struct {
	Models []Model `json:"models"`
	Enums  []Enum  `json:"enums,omitempty"`
}

// Model is a single Prisma model
type Model struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Enum is a Prisma enum declaration
type Enum struct {
	Name   string      `json:"name"`
	Values []EnumValue `json:"values"`
}

// EnumValue is one member of an enum
type EnumValue struct {
	Name string `json:"name"`
}

// Field describes one field of a model
type Field struct {
	Name               string    `json:"name"`
	Kind               FieldKind `json:"kind"`
	IsList             bool      `json:"isList"`
	IsRequired         bool      `json:"isRequired"`
	IsUnique           bool      `json:"isUnique"`
	IsID               bool      `json:"isId"`
	IsReadOnly         bool      `json:"isReadOnly"`
	IsGenerated        bool      `json:"isGenerated"`
	IsUpdatedAt        bool      `json:"isUpdatedAt"`
	HasDefaultValue    bool      `json:"hasDefaultValue"`
	Type               string    `json:"type"`
	RelationName       string    `json:"relationName,omitempty"`
	RelationFromFields []string  `json:"relationFromFields,omitempty"`
	RelationToFields   []string  `json:"relationToFields,omitempty"`
	Default            *Default  `json:"default,omitempty"`
}

// IsRelation reports whether the field points at another model. Some
// introspection outputs mark relation fields as scalar, so a relation name
// alone is enough.
func (f Field) IsRelation() bool {
	return f.RelationName != "" || f.Kind == KindObject
}

// Generator is a function-style default such as autoincrement() or now()
type Generator struct {
	Name string `json:"name"`
	Args []any  `json:"args"`
}

// Default is a field default: either a literal value or a generator call.
// Exactly one of Value and Generator is meaningful. Numeric literals are
// held as json.Number so that their digits survive unchanged.
type Default struct {
	Value     any
	Generator *Generator

	// Raw keeps a default whose shape is neither a literal nor a generator
	// reference. Value and Generator are empty when it is set.
	Raw json.RawMessage
}

// Literal returns a default holding a plain value
func Literal(v any) *Default {
	return &Default{Value: v}
}

// Call returns a default holding a generator reference
func Call(name string, args ...any) *Default {
	if args == nil {
		args = []any{}
	}
	return &Default{Generator: &Generator{Name: name, Args: args}}
}

// IsUnrecognized reports whether the default had a shape that could not be read
func (d *Default) IsUnrecognized() bool {
	return d != nil && d.Raw != nil
}

// IsGenerator reports whether the default is a generator call
func (d *Default) IsGenerator() bool {
	return d != nil && d.Generator != nil
}

// String renders a literal default the way a JavaScript String() call would:
// numbers without trailing zeros, lists joined by commas.
func (d *Default) String() string {
	if d == nil {
		return ""
	}
	if d.Generator != nil {
		return d.Generator.Name
	}
	if d.Raw != nil {
		return ""
	}
	return stringify(d.Value)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return numberString(val.String())
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			if item == nil {
				continue
			}
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}

// maxExponent bounds the literals expanded digit by digit
const maxExponent = 400

// numberString prints a decimal literal the way JavaScript prints a number:
// no trailing fractional zeros, no exponent. The value is never rounded.
func numberString(s string) string {
	if _, exp, ok := strings.Cut(strings.ToLower(s), "e"); ok {
		if e, err := strconv.Atoi(exp); err != nil || e > maxExponent || e < -maxExponent {
			return s
		}
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return s
	}
	if r.IsInt() {
		return r.Num().String()
	}
	return strings.TrimRight(r.FloatString(fractionDigits(s)), "0")
}

// fractionDigits counts the decimal places a literal needs: digits after
// the point minus the exponent.
func fractionDigits(s string) int {
	mantissa, exp, _ := strings.Cut(strings.ToLower(s), "e")
	n := 0
	if _, frac, ok := strings.Cut(mantissa, "."); ok {
		n = len(frac)
	}
	if e, err := strconv.Atoi(exp); err == nil {
		n -= e
	}
	return max(n, 0)
}

// UnmarshalJSON accepts either a literal or a {"name": ..., "args": [...]}
// object. An object without a generator name is kept in Raw.
func (d *Default) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	*d = Default{}
	if obj, ok := raw.(map[string]any); ok {
		name, _ := obj["name"].(string)
		if name == "" {
			d.Raw = append(json.RawMessage(nil), data...)
			return nil
		}
		args, _ := obj["args"].([]any)
		*d = *Call(name, args...)
		return nil
	}

	d.Value = raw
	return nil
}

// MarshalJSON writes the default back in DMMF shape
func (d Default) MarshalJSON() ([]byte, error) {
	if d.Generator != nil {
		return json.Marshal(d.Generator)
	}
	if d.Raw != nil {
		return d.Raw, nil
	}
	return json.Marshal(d.Value)
}
