package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/pricing"
)

type Kind string

const (
	KindProducts   Kind = "products"
	KindPromotions Kind = "promotions"
)

type ProductStore interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetBySKU(ctx context.Context, tenantID, sku string) (*domain.Product, error)
}

type PromotionWriter interface {
	Create(ctx context.Context, p domain.Promotion) (*domain.Promotion, error)
}

// CSVImporter loads catalog exports and promotion sheets into one tenant.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductStore
	promotions PromotionWriter
	tenantID   string
	log        *zap.Logger
}

func NewCSVImporter(r io.Reader, products ProductStore, promotions PromotionWriter, tenantID string, log *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	if log == nil {
		log = zap.NewNop()
	}
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		promotions: promotions,
		tenantID:   tenantID,
		log:        log.Named("importer"),
	}
}

// DetectKind peeks at the header row and reports which import the file holds.
func DetectKind(r io.Reader) (Kind, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read headers: %w", err)
	}
	headers, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return "", fmt.Errorf("parse headers: %w", err)
	}
	return kindOf(headerIndex(headers))
}

func kindOf(index map[string]int) (Kind, error) {
	if _, ok := index["variants.sku"]; ok {
		return KindProducts, nil
	}
	if _, ok := index["type"]; ok {
		return KindPromotions, nil
	}
	return "", errors.New("unrecognised CSV header: expected a product export or a promotion sheet")
}

// Run parses the file and returns the number of products or promotions written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	kind, err := kindOf(index)
	if err != nil {
		return 0, err
	}
	i.log.Info("import started", zap.String("kind", string(kind)), zap.String("tenant_id", i.tenantID))

	switch kind {
	case KindProducts:
		return i.runProducts(ctx, index)
	default:
		return i.runPromotions(ctx, index)
	}
}

type productRow struct {
	ID        string
	Key       string
	Name      string
	Desc      string
	SKU       string
	Price     decimal.Decimal
	Currency  string
	ImageURLs []string
}

// runProducts upserts products grouped by product key. Rows without a key
// continue the previous product and contribute images only.
func (i *CSVImporter) runProducts(ctx context.Context, index map[string]int) (int, error) {
	if i.products == nil {
		return 0, errors.New("product store not configured")
	}
	var (
		current  *productRow
		imported int
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row, err := parseProductRow(record, index)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		if row.Key != "" {
			if current != nil {
				if err := i.saveProduct(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.saveProduct(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) saveProduct(ctx context.Context, row *productRow) error {
	if row.Key == "" || row.Name == "" || row.SKU == "" || !row.Price.IsPositive() || row.Currency == "" {
		return fmt.Errorf("invalid product row (missing required fields) for key %q", row.Key)
	}
	if row.ID != "" && len(row.ID) != 36 {
		return fmt.Errorf("invalid id for key %q: %s", row.Key, row.ID)
	}

	attrs := map[string]interface{}{}
	if len(row.ImageURLs) > 0 {
		attrs["images"] = row.ImageURLs
	}

	_, err := i.products.Upsert(ctx, domain.Product{
		ID:          row.ID,
		TenantID:    i.tenantID,
		Key:         row.Key,
		SKU:         row.SKU,
		Name:        row.Name,
		Description: row.Desc,
		Price:       row.Price,
		Currency:    strings.ToUpper(row.Currency),
		Attributes:  attrs,
	})
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Key, err)
	}
	return nil
}

func parseProductRow(record []string, index map[string]int) (*productRow, error) {
	key := pick(record, index, "key")
	imageURL := pick(record, index, "variants.images.url")
	if key == "" && imageURL == "" {
		return nil, nil
	}

	row := &productRow{
		ID:       pick(record, index, "id"),
		Key:      key,
		Name:     pick(record, index, "name.en"),
		Desc:     pick(record, index, "description.en"),
		SKU:      pick(record, index, "variants.sku"),
		Currency: pick(record, index, "variants.prices.value.currencyCode"),
	}
	if centStr := pick(record, index, "variants.prices.value.centAmount"); centStr != "" {
		cents, err := strconv.ParseInt(centStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid centAmount %q for key %q", centStr, key)
		}
		row.Price = decimal.New(cents, -2)
	}
	if imageURL != "" {
		row.ImageURLs = []string{imageURL}
	}
	return row, nil
}

// runPromotions creates one promotion per row. Product columns hold
// semicolon-separated SKUs resolved against the tenant catalog.
func (i *CSVImporter) runPromotions(ctx context.Context, index map[string]int) (int, error) {
	if i.promotions == nil || i.products == nil {
		return 0, errors.New("promotion import needs product and promotion stores")
	}
	skuIDs := map[string]string{}
	imported := 0
	line := 1

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++
		if pick(record, index, "name") == "" && pick(record, index, "type") == "" {
			continue
		}

		p, err := i.parsePromotionRow(ctx, record, index, skuIDs)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		created, err := i.promotions.Create(ctx, p)
		if err != nil {
			return imported, fmt.Errorf("line %d: create promotion %q: %w", line, p.Name, err)
		}
		i.log.Debug("promotion imported", zap.String("id", created.ID), zap.String("name", created.Name))
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) parsePromotionRow(ctx context.Context, record []string, index map[string]int, skuIDs map[string]string) (domain.Promotion, error) {
	p := domain.Promotion{
		TenantID: i.tenantID,
		Name:     pick(record, index, "name"),
		Type:     domain.PromotionType(strings.ToLower(pick(record, index, "type"))),
	}
	if p.Name == "" {
		return p, errors.New("name required")
	}
	switch p.Type {
	case domain.PromotionPercentage, domain.PromotionFixedAmount, domain.PromotionBundlePrice,
		domain.PromotionFixedPrice, domain.PromotionBuyXGetYFree, domain.PromotionEventBadge:
	default:
		return p, fmt.Errorf("unknown promotion type %q", p.Type)
	}

	var err error
	if v := pick(record, index, "value"); v != "" {
		if p.Value, err = decimal.NewFromString(v); err != nil {
			return p, fmt.Errorf("invalid value %q", v)
		}
	}
	if p.Quantity, err = optionalInt(record, index, "quantity"); err != nil {
		return p, err
	}
	if p.FreeQuantityMax, err = optionalInt(record, index, "freeQuantityMax"); err != nil {
		return p, err
	}
	if p.TriggerQuantity, err = intOr(record, index, "triggerQuantity", 1); err != nil {
		return p, err
	}
	if p.FreeQuantityPerTrigger, err = intOr(record, index, "freeQuantityPerTrigger", 1); err != nil {
		return p, err
	}
	if p.Priority, err = intOr(record, index, "priority", 0); err != nil {
		return p, err
	}
	p.ApplyAutomatically = true
	if v := pick(record, index, "applyAutomatically"); v != "" {
		if p.ApplyAutomatically, err = strconv.ParseBool(v); err != nil {
			return p, fmt.Errorf("invalid applyAutomatically %q", v)
		}
	}
	if p.ValidFrom, err = optionalTime(record, index, "validFrom"); err != nil {
		return p, err
	}
	if p.ValidUntil, err = optionalTime(record, index, "validUntil"); err != nil {
		return p, err
	}
	if p.ValidFrom != nil && p.ValidUntil != nil && p.ValidUntil.Before(*p.ValidFrom) {
		return p, errors.New("validUntil is before validFrom")
	}

	if p.ProductIDs, err = i.resolveSKUs(ctx, pick(record, index, "products"), skuIDs); err != nil {
		return p, err
	}
	if p.BundleProductIDs, err = i.resolveSKUs(ctx, pick(record, index, "bundleProducts"), skuIDs); err != nil {
		return p, err
	}
	if p.TriggerProductIDs, err = i.resolveSKUs(ctx, pick(record, index, "triggerProducts"), skuIDs); err != nil {
		return p, err
	}

	if p.Type != domain.PromotionEventBadge && !pricing.Priceable(p) {
		return p, fmt.Errorf("promotion %q is incomplete for type %s", p.Name, p.Type)
	}
	return p, nil
}

func (i *CSVImporter) resolveSKUs(ctx context.Context, raw string, cache map[string]string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []string
	for _, sku := range strings.Split(raw, ";") {
		sku = strings.TrimSpace(sku)
		if sku == "" {
			continue
		}
		if id, ok := cache[sku]; ok {
			ids = append(ids, id)
			continue
		}
		product, err := i.products.GetBySKU(ctx, i.tenantID, sku)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("unknown product sku %q", sku)
			}
			return nil, err
		}
		cache[sku] = product.ID
		ids = append(ids, product.ID)
	}
	return ids, nil
}

func optionalInt(record []string, index map[string]int, key string) (*int, error) {
	v := pick(record, index, key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, v)
	}
	return &n, nil
}

func intOr(record []string, index map[string]int, key string, def int) (int, error) {
	n, err := optionalInt(record, index, key)
	if err != nil || n == nil {
		return def, err
	}
	return *n, nil
}

func optionalTime(record []string, index map[string]int, key string) (*time.Time, error) {
	v := pick(record, index, key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: want RFC3339", key, v)
	}
	return &t, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
