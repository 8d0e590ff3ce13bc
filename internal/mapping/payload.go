package mapping

import (
	"fmt"
	"strings"

	"github.com/dandantas/pimpush/internal/model"
)

// PriceValue is a price field withheld from the primary payload
type PriceValue struct {
	Field model.FieldMapping
	Value float64
}

// Payload is the remote update derived from one row
type Payload struct {
	ItemID string
	Fields map[string]interface{}
	Prices []PriceValue
}

// ItemID returns the primary-record identifier of a row, or "" if missing
func ItemID(fm model.FieldMap, row model.Row) string {
	return strings.TrimSpace(row[fm.IDField])
}

// Build coerces the mapped, non-empty fields of a row into a remote payload.
// Price fields are collected separately.
func Build(fm model.FieldMap, row model.Row) (Payload, error) {
	payload := Payload{
		ItemID: ItemID(fm, row),
		Fields: make(map[string]interface{}),
	}

	for _, field := range fm.Fields {
		raw := strings.TrimSpace(row[field.Name])

		if field.Kind == model.KindReference {
			ref := strings.TrimSpace(row[field.Name+model.InternalIDSuffix])
			if ref == "" {
				ref = raw
			}
			if ref == "" {
				continue
			}
			payload.Fields[field.Key] = map[string]interface{}{"id": ref}
			continue
		}

		if raw == "" {
			continue
		}

		if field.Price {
			amount, err := CoerceCurrency(raw)
			if err != nil {
				return payload, fmt.Errorf("field %q: %w", field.Name, err)
			}
			payload.Prices = append(payload.Prices, PriceValue{Field: field, Value: amount})
			continue
		}

		value, err := coerce(field.Kind, raw)
		if err != nil {
			return payload, fmt.Errorf("field %q: %w", field.Name, err)
		}
		payload.Fields[field.Key] = value
	}

	return payload, nil
}

func coerce(kind model.ValueKind, raw string) (interface{}, error) {
	switch kind {
	case model.KindCurrency:
		return CoerceCurrency(raw)
	case model.KindCheckbox:
		return CoerceCheckbox(raw)
	default:
		return raw, nil
	}
}
