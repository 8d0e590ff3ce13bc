package model

import (
	"errors"
	"fmt"
	"strings"
)

// ValueKind governs how a display value is coerced into the remote payload
type ValueKind string

const (
	KindText      ValueKind = "text"
	KindCurrency  ValueKind = "currency"
	KindCheckbox  ValueKind = "checkbox"
	KindReference ValueKind = "reference"
)

// FieldMapping binds a display column to a remote attribute
type FieldMapping struct {
	Name string    `json:"name" yaml:"name"`
	Key  string    `json:"key" yaml:"key"`
	Kind ValueKind `json:"kind" yaml:"kind"`

	// Price fields are withheld from the primary payload and written to the
	// price sub-resource entry whose link contains PriceTier.
	Price     bool   `json:"price,omitempty" yaml:"price,omitempty"`
	PriceTier string `json:"price_tier,omitempty" yaml:"price_tier,omitempty"`
}

// FieldMap is the static mapping table consulted by the runner
type FieldMap struct {
	IDField string         `json:"id_field" yaml:"id_field"`
	Fields  []FieldMapping `json:"fields" yaml:"fields"`
}

// Validate validates the mapping table
func (m *FieldMap) Validate() error {
	if m.IDField == "" {
		m.IDField = "Internal ID"
	}
	if len(m.Fields) == 0 {
		return errors.New("field map has no fields")
	}

	seen := make(map[string]bool, len(m.Fields))
	for i, f := range m.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true

		kind := ValueKind(strings.ToLower(string(f.Kind)))
		if kind == "" {
			kind = KindText
		}
		switch kind {
		case KindText, KindCurrency, KindCheckbox, KindReference:
		default:
			return fmt.Errorf("field %q has invalid kind: %s", f.Name, f.Kind)
		}
		m.Fields[i].Kind = kind

		if f.Price {
			if f.PriceTier == "" {
				return fmt.Errorf("price field %q needs a price_tier", f.Name)
			}
			m.Fields[i].Kind = KindCurrency
		} else if f.Key == "" {
			return fmt.Errorf("field %q has no remote key", f.Name)
		}
	}

	return nil
}

// DefaultFieldMap is used when no catalog file provides one
func DefaultFieldMap() FieldMap {
	return FieldMap{
		IDField: "Internal ID",
		Fields: []FieldMapping{
			{Name: "Item Name", Key: "itemId", Kind: KindText},
			{Name: "Display Name", Key: "displayName", Kind: KindText},
			{Name: "Sales Description", Key: "salesDescription", Kind: KindText},
			{Name: "UPC Code", Key: "upcCode", Kind: KindText},
			{Name: "Purchase Price", Key: "cost", Kind: KindCurrency},
			{Name: "Inactive", Key: "isInactive", Kind: KindCheckbox},
			{Name: "Display in Web Store", Key: "isOnline", Kind: KindCheckbox},
			{Name: "Preferred Vendor", Key: "vendor", Kind: KindReference},
			{Name: "Class", Key: "class", Kind: KindReference},
			{Name: "Base Price", Price: true, PriceTier: "pricelevel=1", Kind: KindCurrency},
		},
	}
}
