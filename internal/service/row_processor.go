package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dandantas/pimpush/internal/mapping"
	"github.com/dandantas/pimpush/internal/model"
	"github.com/dandantas/pimpush/internal/recordapi"
)

// RecordClient is the subset of the record API used to push a row
type RecordClient interface {
	PatchRecord(ctx context.Context, env model.EnvConfig, id string, fields map[string]interface{}) (*recordapi.Response, error)
	FindPriceLink(ctx context.Context, env model.EnvConfig, id, tier string) (string, error)
	CurrentPrice(ctx context.Context, env model.EnvConfig, href string) (interface{}, error)
	PatchPrice(ctx context.Context, env model.EnvConfig, href string, amount float64) (*recordapi.Response, error)
}

// RowProcessor pushes a single row: primary update, then price tiers
type RowProcessor struct {
	client RecordClient
	fields model.FieldMap
}

// NewRowProcessor creates a new row processor
func NewRowProcessor(client RecordClient, fields model.FieldMap) *RowProcessor {
	return &RowProcessor{
		client: client,
		fields: fields,
	}
}

// Process pushes row index of a job and returns its result. Failures are
// recorded on the result and never returned.
func (p *RowProcessor) Process(ctx context.Context, env model.EnvConfig, index int, row model.Row) model.RowResult {
	result := model.RowResult{
		Row:      index,
		ItemID:   mapping.ItemID(p.fields, row),
		Status:   model.RowPending,
		Response: model.RowResponse{Prices: []model.PriceUpdate{}},
	}

	if result.ItemID == "" {
		result.Status = model.RowSkipped
		result.Reason = fmt.Sprintf("missing %s", p.fields.IDField)
		slog.Debug("Row skipped", "row", index, "reason", result.Reason)
		return result
	}

	payload, err := mapping.Build(p.fields, row)
	if err != nil {
		return p.fail(result, err)
	}

	resp, err := p.client.PatchRecord(ctx, env, result.ItemID, payload.Fields)
	if resp != nil {
		result.Response.Primary = resp.Value()
	}
	if err != nil {
		return p.fail(result, fmt.Errorf("primary update failed: %w", err))
	}

	var priceErrs []string
	patchedPrice := false
	for _, price := range payload.Prices {
		update := p.pushPrice(ctx, env, result.ItemID, price)
		if update.Error != "" {
			priceErrs = append(priceErrs, fmt.Sprintf("%s: %s", update.Field, update.Error))
		}
		if update.Response != nil || update.Unchanged {
			patchedPrice = true
		}
		result.Response.Prices = append(result.Response.Prices, update)
	}

	switch {
	case len(priceErrs) > 0:
		result.Response.Error = strings.Join(priceErrs, "; ")
		result.Status = model.RowError
	case result.Response.Primary != nil || patchedPrice:
		result.Status = model.RowSuccess
	default:
		result.Status = model.RowSkipped
	}

	slog.Debug("Row pushed",
		"row", index,
		"item_id", result.ItemID,
		"status", result.Status,
		"prices", len(result.Response.Prices),
	)

	return result
}

// pushPrice writes one price tier unless it already holds the desired amount
func (p *RowProcessor) pushPrice(ctx context.Context, env model.EnvConfig, id string, price mapping.PriceValue) model.PriceUpdate {
	update := model.PriceUpdate{
		Field:   price.Field.Name,
		Tier:    price.Field.PriceTier,
		Desired: price.Value,
	}

	href, err := p.client.FindPriceLink(ctx, env, id, price.Field.PriceTier)
	if err != nil {
		update.Error = err.Error()
		return update
	}

	current, err := p.client.CurrentPrice(ctx, env, href)
	if err != nil {
		update.Error = err.Error()
		return update
	}
	update.Current = current

	if mapping.SameAmount(current, price.Value) {
		update.Unchanged = true
		return update
	}

	resp, err := p.client.PatchPrice(ctx, env, href, price.Value)
	if resp != nil {
		update.Response = resp.Value()
	}
	if err != nil {
		update.Error = err.Error()
	}
	return update
}

func (p *RowProcessor) fail(result model.RowResult, err error) model.RowResult {
	result.Status = model.RowError
	result.Response.Error = err.Error()
	slog.Warn("Row failed", "row", result.Row, "item_id", result.ItemID, "error", err)
	return result
}
