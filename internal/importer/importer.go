package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"pranzo-storefront/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog spreadsheets exported by the shop back office and
// upserts one product per id.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	logger      *zap.Logger
	now         func() time.Time
}

func NewCSVImporter(r io.Reader, repo ProductWriter, logger *zap.Logger) *CSVImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		logger:      logger,
		now:         time.Now,
	}
}

// Run parses CSV rows and upserts products. Rows without an id or name that
// carry only an image extend the previous product's gallery.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var (
		current  *domain.Product
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		id := pick(record, index, "id")
		image := pick(record, index, "image")
		if id == "" && pick(record, index, "name") == "" {
			// Continuation rows (images) belong to the current product.
			if current != nil && image != "" {
				current.Images = append(current.Images, image)
			}
			continue
		}

		row, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if current != nil {
			if err := i.save(ctx, current); err != nil {
				return imported, err
			}
			imported++
		}
		current = row
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, p *domain.Product) error {
	if p.CreatedAt == nil {
		now := i.now().UTC()
		p.CreatedAt = &now
	}
	if err := domain.ValidateProduct(*p); err != nil {
		return fmt.Errorf("product %q: %w", p.ID, err)
	}
	if _, err := i.productRepo.Upsert(ctx, *p); err != nil {
		return fmt.Errorf("upsert product %q: %w", p.ID, err)
	}
	i.logger.Debug("imported product", zap.String("product_id", p.ID))
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*domain.Product, error) {
	p := &domain.Product{
		ID:          pick(record, index, "id"),
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		Category:    pick(record, index, "category"),
		Subcategory: pick(record, index, "subcategory"),
		Brand:       pick(record, index, "brand"),
		Color:       pick(record, index, "color"),
		Size:        pick(record, index, "size"),
	}
	if p.ID == "" {
		return nil, fmt.Errorf("missing id for %q", p.Name)
	}

	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil {
		return nil, fmt.Errorf("price for %q: %w", p.ID, err)
	}
	p.Price = price

	if image := pick(record, index, "image"); image != "" {
		p.Images = []string{image}
	}
	if supplier := pick(record, index, "supplier"); supplier != "" {
		p.WholesaleInfo = &domain.WholesaleInfo{SupplierName: supplier}
	}
	if raw := pick(record, index, "archived"); raw != "" {
		if p.IsArchived, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("archived for %q: %w", p.ID, err)
		}
	}
	if raw := pick(record, index, "expirationDate"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return nil, fmt.Errorf("expirationDate for %q: %w", p.ID, err)
		}
		p.ExpirationDate = &t
	}
	if raw := pick(record, index, "discount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("discount for %q: %w", p.ID, err)
		}
		p.SpecialOffer = true
		p.DiscountPercentage = &d
	}
	if raw := pick(record, index, "offerEndsAt"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return nil, fmt.Errorf("offerEndsAt for %q: %w", p.ID, err)
		}
		p.OfferEndsAt = &t
	}

	pairs, err := parsePairs(pick(record, index, "sizes"))
	if err != nil {
		return nil, fmt.Errorf("sizes for %q: %w", p.ID, err)
	}
	for _, kv := range pairs {
		p.SizesWithPrices = append(p.SizesWithPrices, domain.SizePrice{Size: kv.name, Price: kv.price})
	}
	pairs, err = parsePairs(pick(record, index, "extras"))
	if err != nil {
		return nil, fmt.Errorf("extras for %q: %w", p.ID, err)
	}
	for _, kv := range pairs {
		p.Extras = append(p.Extras, domain.Extra{Name: kv.name, Price: kv.price})
	}
	return p, nil
}

type namedPrice struct {
	name  string
	price decimal.Decimal
}

// parsePairs reads "Small:0;Large:1.50".
func parsePairs(raw string) ([]namedPrice, error) {
	if raw == "" {
		return nil, nil
	}
	var out []namedPrice
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, priceStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("expected name:price, got %q", part)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(priceStr))
		if err != nil {
			return nil, fmt.Errorf("price in %q: %w", part, err)
		}
		out = append(out, namedPrice{name: strings.TrimSpace(name), price: price})
	}
	return out, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
