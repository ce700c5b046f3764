package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/storage"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	ledgerSheet     = "Variants"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	colID      = "ID"
	colPrice   = "Price"
	colMonthly = "Monthly price"
	colStock   = "Stock"
)

// ImportResult 导入结果
type ImportResult struct {
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// ExportXLSX renders the product's ledger as a workbook: ID, one column per
// attribute in set order, then price, monthly price and stock.
func (s *VariantPriceService) ExportXLSX(ctx context.Context, productID string) (*excelize.File, string, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, "", fmt.Errorf("find product: %w", err)
	}
	prices, err := s.prices.ListByProduct(ctx, productID)
	if err != nil {
		return nil, "", fmt.Errorf("list variant prices: %w", err)
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", ledgerSheet)

	names := product.VariationAttributes.Names()
	headers := append(append([]string{colID}, names...), colPrice, colMonthly, colStock)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(ledgerSheet, col+"1", h)
		f.SetCellStyle(ledgerSheet, col+"1", col+"1", boldStyle)
		f.SetColWidth(ledgerSheet, col, col, 16)
	}
	f.SetColVisible(ledgerSheet, "A", false)

	for r, p := range prices {
		row := r + 2
		values := make([]interface{}, 0, len(headers))
		values = append(values, p.ID)
		for _, n := range names {
			values = append(values, p.Attributes[n])
		}
		values = append(values, p.Price.InexactFloat64())
		if p.MonthlyPrice.Valid {
			values = append(values, p.MonthlyPrice.Decimal.InexactFloat64())
		} else {
			values = append(values, "")
		}
		if p.Stock != nil {
			values = append(values, *p.Stock)
		} else {
			values = append(values, "")
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(ledgerSheet, cell, &values); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("write row %d: %w", row, err)
		}
	}

	filename := fmt.Sprintf("%s_variants_%s.xlsx", sanitizeFilename(product.Name), time.Now().Format("20060102"))
	return f, filename, nil
}

// ExportToStorage uploads the workbook and returns a presigned link.
func (s *VariantPriceService) ExportToStorage(ctx context.Context, productID string) (*storage.Object, error) {
	if s.files == nil {
		return nil, fmt.Errorf("export storage is not configured")
	}
	f, filename, err := s.ExportXLSX(ctx, productID)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	obj, err := s.files.Put(ctx, "exports/variant-prices/"+productID, filename, xlsxContentType, buf.Bytes())
	if err != nil {
		return nil, apperr.Remote("store export", err)
	}
	return obj, nil
}

// ImportXLSX updates price, monthly price and stock from a workbook laid out
// like ExportXLSX. Rows are matched by ID, else by attribute values ignoring
// case. Blank cells leave the field unchanged. Unknown rows are skipped.
// Zero prices are accepted so a freshly generated ledger round-trips.
func (s *VariantPriceService) ImportXLSX(ctx context.Context, productID string, r io.Reader) (*ImportResult, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	prices, err := s.prices.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list variant prices: %w", err)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Invalid(apperr.ErrInvalidAttributeSet, "unreadable workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Invalid(apperr.ErrInvalidAttributeSet, "workbook has no sheet")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 1 {
		return &ImportResult{}, nil
	}

	cols := mapColumns(rows[0], product.VariationAttributes)
	if cols.price < 0 && cols.monthly < 0 && cols.stock < 0 {
		return nil, apperr.Invalid(apperr.ErrInvalidAttributeSet, "no %s, %s or %s column", colPrice, colMonthly, colStock)
	}

	byID := make(map[string]int, len(prices))
	for i, p := range prices {
		byID[p.ID] = i
	}

	result := &ImportResult{}
	for i, row := range rows[1:] {
		line := i + 2
		idx := -1
		if id := cell(row, cols.id); id != "" {
			if j, ok := byID[id]; ok {
				idx = j
			}
		}
		if idx < 0 {
			assignment := make(entity.AttributeAssignment, len(cols.attrs))
			for name, c := range cols.attrs {
				assignment[name] = cell(row, c)
			}
			for j, p := range prices {
				if len(assignment) > 0 && assignment.Matches(p.Attributes) && p.Attributes.Matches(assignment) {
					idx = j
					break
				}
			}
		}
		if idx < 0 {
			result.Skipped++
			continue
		}

		v := prices[idx]
		changed, err := applyRow(&v, row, cols)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		if !changed {
			result.Skipped++
			continue
		}
		if err := s.prices.Update(ctx, &v); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			s.logger.Warn("Import row failed", zap.String("product_id", productID), zap.Int("row", line), zap.Error(err))
			continue
		}
		prices[idx] = v
		result.Updated++
	}

	if result.Updated > 0 {
		s.notifier.PublishVariantPricesUpdate(productID, "imported")
	}
	return result, nil
}

type columns struct {
	id, price, monthly, stock int
	attrs                     map[string]int
}

func mapColumns(header []string, set entity.VariationAttributeSet) columns {
	cols := columns{id: -1, price: -1, monthly: -1, stock: -1, attrs: map[string]int{}}
	for i, h := range header {
		key := entity.FoldValue(h)
		switch key {
		case entity.FoldValue(colID):
			cols.id = i
			continue
		case entity.FoldValue(colPrice):
			cols.price = i
			continue
		case entity.FoldValue(colMonthly):
			cols.monthly = i
			continue
		case entity.FoldValue(colStock):
			cols.stock = i
			continue
		}
		for _, name := range set.Names() {
			if entity.FoldValue(name) == key {
				cols.attrs[name] = i
			}
		}
	}
	return cols
}

func applyRow(v *entity.VariantCombinationPrice, row []string, cols columns) (bool, error) {
	changed := false
	if raw := cell(row, cols.price); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return false, apperr.Invalid(apperr.ErrInvalidPrice, "price %q", raw)
		}
		if !d.Equal(v.Price) {
			v.Price = d
			changed = true
		}
	}
	if raw := cell(row, cols.monthly); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return false, apperr.Invalid(apperr.ErrInvalidPrice, "monthly price %q", raw)
		}
		if !v.MonthlyPrice.Valid || !d.Equal(v.MonthlyPrice.Decimal) {
			v.MonthlyPrice = decimal.NewNullDecimal(d)
			changed = true
		}
	}
	if raw := cell(row, cols.stock); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return false, apperr.Invalid(apperr.ErrInvalidPrice, "stock %q", raw)
		}
		if v.Stock == nil || *v.Stock != n {
			v.Stock = &n
			changed = true
		}
	}
	return changed, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "product"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}
