package db

import (
	"errors"
	"fmt"
)

// FieldType enumerates the FT schema field types the catalog indexes.
type FieldType int

const (
	FieldNumeric FieldType = iota
	FieldTag
)

// IndexField is one SCHEMA entry.
type IndexField struct {
	Name     string
	Type     FieldType
	Sortable bool

	// TAG only
	Separator     string
	CaseSensitive bool
}

// IndexDefinition is an FT.CREATE ... ON HASH definition.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks names and rejects duplicate fields.
func (d *IndexDefinition) Validate() error {
	if !IsValidIdentifier(d.Name) {
		return fmt.Errorf("invalid index name %q", d.Name)
	}
	if len(d.Fields) == 0 {
		return errors.New("index needs at least one field")
	}
	seen := make(map[string]struct{}, len(d.Fields))
	for i := range d.Fields {
		name := d.Fields[i].Name
		if name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate field %q", name)
		}
		seen[name] = struct{}{}
		if sep := d.Fields[i].Separator; sep != "" && len(sep) != 1 {
			return fmt.Errorf("field %q: separator must be a single byte, got %q", name, sep)
		}
	}
	return nil
}

// IsValidIdentifier reports whether s is non-empty and matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == ':' || r == '-':
		default:
			return false
		}
	}
	return true
}

// IndexBuilder assembles an IndexDefinition fluently.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a hash index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix restricts the index to keys with the given prefixes.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Numeric adds a NUMERIC field.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: FieldNumeric})
}

// SortableNumeric adds a NUMERIC field usable in SORTBY.
func (b *IndexBuilder) SortableNumeric(name string) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: FieldNumeric, Sortable: true})
}

// Tag adds a TAG field with the default separator.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: FieldTag})
}

// CaseSensitiveTag adds a TAG field that keeps case and splits on sep.
func (b *IndexBuilder) CaseSensitiveTag(name, sep string) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: FieldTag, Separator: sep, CaseSensitive: true})
}

func (b *IndexBuilder) field(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build validates and returns the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}
