package mapping

import (
	"testing"

	"github.com/dandantas/pimpush/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFieldMap(t *testing.T) model.FieldMap {
	t.Helper()
	fm := model.DefaultFieldMap()
	require.NoError(t, fm.Validate())
	return fm
}

func TestBuild_OnlyNonEmptyFields(t *testing.T) {
	fm := testFieldMap(t)

	payload, err := Build(fm, model.Row{
		"Internal ID":  "123",
		"Display Name": "Blue Mug",
		"Item Name":    "  ",
		"Base Price":   "19.99",
	})

	require.NoError(t, err)
	assert.Equal(t, "123", payload.ItemID)
	assert.Equal(t, map[string]interface{}{"displayName": "Blue Mug"}, payload.Fields)
	require.Len(t, payload.Prices, 1)
	assert.Equal(t, "Base Price", payload.Prices[0].Field.Name)
	assert.Equal(t, 19.99, payload.Prices[0].Value)
}

func TestBuild_PriceWithheldFromPrimary(t *testing.T) {
	fm := testFieldMap(t)

	payload, err := Build(fm, model.Row{"Internal ID": "123", "Base Price": "$1,299.50"})

	require.NoError(t, err)
	assert.Empty(t, payload.Fields)
	require.Len(t, payload.Prices, 1)
	assert.Equal(t, 1299.50, payload.Prices[0].Value)
}

func TestBuild_Coercion(t *testing.T) {
	fm := testFieldMap(t)

	payload, err := Build(fm, model.Row{
		"Internal ID":                 "9",
		"Purchase Price":              "$4.25",
		"Inactive":                    "Yes",
		"Display in Web Store":        "false",
		"Preferred Vendor":            "Acme Supply",
		"Preferred Vendor_InternalId": "77",
		"Class":                       "12",
	})

	require.NoError(t, err)
	assert.Equal(t, 4.25, payload.Fields["cost"])
	assert.Equal(t, true, payload.Fields["isInactive"])
	assert.Equal(t, false, payload.Fields["isOnline"])
	assert.Equal(t, map[string]interface{}{"id": "77"}, payload.Fields["vendor"])
	assert.Equal(t, map[string]interface{}{"id": "12"}, payload.Fields["class"])
}

func TestBuild_InvalidValues(t *testing.T) {
	fm := testFieldMap(t)

	tests := []struct {
		name string
		row  model.Row
		want string
	}{
		{name: "bad currency", row: model.Row{"Purchase Price": "cheap"}, want: `field "Purchase Price"`},
		{name: "bad checkbox", row: model.Row{"Inactive": "maybe"}, want: `field "Inactive"`},
		{name: "bad price", row: model.Row{"Base Price": "n/a"}, want: `field "Base Price"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(fm, tt.row)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestItemID_Missing(t *testing.T) {
	fm := testFieldMap(t)
	assert.Equal(t, "", ItemID(fm, model.Row{"Display Name": "x"}))
	assert.Equal(t, "42", ItemID(fm, model.Row{"Internal ID": " 42 "}))
}

func TestSameAmount(t *testing.T) {
	assert.True(t, SameAmount(19.99, 19.99))
	assert.True(t, SameAmount("19.990", 19.99))
	assert.False(t, SameAmount(19.98, 19.99))
	assert.False(t, SameAmount(nil, 19.99))
}
