package ingest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"catalog-sync/internal/domain"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/shopspring/decimal"
)

//go:embed schema/item.schema.json
var itemSchemaJSON []byte

const itemSchemaURL = "item.schema.json"

// consumed sys keys are mapped onto record columns and left out of the
// residual metadata.
var consumedSysKeys = []string{"id", "createdAt", "updatedAt"}

type rawItem struct {
	Sys      map[string]any `json:"sys"`
	Fields   rawFields      `json:"fields"`
	Metadata any            `json:"metadata"`
}

type rawFields struct {
	SKU      *string      `json:"sku"`
	Name     *string      `json:"name"`
	Brand    string       `json:"brand"`
	Model    string       `json:"model"`
	Category string       `json:"category"`
	Color    *string      `json:"color"`
	Price    *json.Number `json:"price"`
	Currency string       `json:"currency"`
	Stock    int          `json:"stock"`
}

// Normalizer maps raw source items onto catalog records
type Normalizer struct {
	schema *jsonschema.Schema
}

func NewNormalizer() (*Normalizer, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(itemSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse item schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(itemSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to register item schema: %w", err)
	}

	schema, err := compiler.Compile(itemSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile item schema: %w", err)
	}

	return &Normalizer{schema: schema}, nil
}

// Normalize validates one raw item and builds a record draft from it.
// Any failure is a *MalformedItemError.
func (n *Normalizer) Normalize(raw json.RawMessage) (*domain.CatalogRecord, error) {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, &MalformedItemError{Reason: "invalid json: " + err.Error()}
	}
	if err := n.schema.Validate(instance); err != nil {
		return nil, &MalformedItemError{Reason: err.Error()}
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var item rawItem
	if err := decoder.Decode(&item); err != nil {
		return nil, &MalformedItemError{Reason: err.Error()}
	}

	id, _ := item.Sys["id"].(string)

	var missing []string
	if id == "" {
		missing = append(missing, "sys.id")
	}
	if item.Fields.SKU == nil || *item.Fields.SKU == "" {
		missing = append(missing, "sku")
	}
	if item.Fields.Name == nil || *item.Fields.Name == "" {
		missing = append(missing, "name")
	}
	if item.Fields.Price == nil {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		return nil, &MalformedItemError{Missing: missing}
	}

	price, err := decimal.NewFromString(item.Fields.Price.String())
	if err != nil {
		return nil, &MalformedItemError{Reason: "invalid price: " + err.Error()}
	}

	createdAt, err := sysTime(item.Sys, "createdAt")
	if err != nil {
		return nil, err
	}
	updatedAt, err := sysTime(item.Sys, "updatedAt")
	if err != nil {
		return nil, err
	}

	return &domain.CatalogRecord{
		SKU:              *item.Fields.SKU,
		IdentityKey:      id,
		Name:             *item.Fields.Name,
		Brand:            item.Fields.Brand,
		Model:            item.Fields.Model,
		Category:         item.Fields.Category,
		Color:            item.Fields.Color,
		Price:            price,
		Currency:         item.Fields.Currency,
		StockQuantity:    item.Fields.Stock,
		SourceCreatedAt:  createdAt,
		SourceUpdatedAt:  updatedAt,
		ResidualMetadata: residualMetadata(item),
	}, nil
}

func sysTime(sys map[string]any, key string) (time.Time, error) {
	value, _ := sys[key].(string)
	if value == "" {
		return time.Time{}, &MalformedItemError{Missing: []string{"sys." + key}}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, &MalformedItemError{Reason: fmt.Sprintf("invalid sys.%s: %v", key, err)}
	}
	return parsed.UTC(), nil
}

func residualMetadata(item rawItem) map[string]any {
	remaining := make(map[string]any, len(item.Sys))
	for key, value := range item.Sys {
		remaining[key] = value
	}
	for _, key := range consumedSysKeys {
		delete(remaining, key)
	}

	return map[string]any{
		"metadata":      item.Metadata,
		"sys_remaining": remaining,
	}
}
