package xata

import "fmt"

// WarningKind names a lossy conversion
type WarningKind string

const (
	// WarnTypeFallback: the source type has no Xata equivalent and became a string column
	WarnTypeFallback WarningKind = "type-fallback"
	// WarnDroppedDefault: the default generator has no Xata equivalent and was dropped
	WarnDroppedDefault WarningKind = "dropped-default"
	// WarnGeneratorArgs: a generator default kept its name but lost its arguments
	WarnGeneratorArgs WarningKind = "generator-args"
)

// Warning records information lost while translating one column
type Warning struct {
	Kind    WarningKind
	Table   string
	Column  string
	Message string
}

func (w Warning) String() string {
	if w.Table == "" {
		return fmt.Sprintf("%s: %s", w.Column, w.Message)
	}
	return fmt.Sprintf("%s.%s: %s", w.Table, w.Column, w.Message)
}
