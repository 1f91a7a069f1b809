package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tealeg/xlsx"

	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

// Format is a spreadsheet encoding accepted by import and export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat defaults to CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", servererrors.Validation("unsupported format", map[string]string{"format": "must be one of: csv xlsx"})
}

// Columns of the bulk file, in order. The names match the spreadsheets the
// shop already keeps.
var Columns = []string{
	"id", "nome", "tipo", "codigo_barras", "preco_compra", "preco_venda", "qtd_minima_estoque", "estoque_atual",
}

const csvSeparator = ';'

var ErrBadHeader = servererrors.New(servererrors.KindValidation,
	"first row must be the header "+strings.Join(Columns, ";"))

func (s *service) Import(ctx context.Context, r io.Reader, format Format) ([]ImportResult, error) {
	records, err := readRecords(r, format)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || !isHeader(records[0]) {
		return nil, ErrBadHeader
	}

	results := make([]ImportResult, 0, len(records)-1)
	counts := map[ImportAction]int{}
	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		res := s.importRecord(ctx, record)
		res.Row = i + 2
		counts[res.Action]++
		results = append(results, res)
	}

	log.WithFields(log.Fields{
		"created": counts[ImportCreated],
		"updated": counts[ImportUpdated],
		"failed":  counts[ImportFailed],
	}).Info("product import finished")
	return results, nil
}

func (s *service) importRecord(ctx context.Context, record []string) ImportResult {
	fail := func(id *uuid.UUID, err error) ImportResult {
		return ImportResult{ID: id, Action: ImportFailed, Error: err.Error()}
	}

	row, err := parseRow(record)
	if err != nil {
		return fail(nil, err)
	}

	if row.id == nil {
		p, err := s.createProduct(ctx, uuid.New(), row.request(nil))
		if err != nil {
			return fail(nil, err)
		}
		return ImportResult{ID: &p.ID, Action: ImportCreated}
	}

	existing, err := s.repo.GetProduct(ctx, *row.id)
	if isNotFound(err) {
		p, err := s.createProduct(ctx, *row.id, row.request(nil))
		if err != nil {
			return fail(row.id, err)
		}
		return ImportResult{ID: &p.ID, Action: ImportCreated}
	}
	if err != nil {
		return fail(row.id, err)
	}

	updated, err := s.UpdateProduct(ctx, existing.ID, row.request(existing))
	if err != nil {
		return fail(row.id, err)
	}
	if row.stock != nil {
		if err := s.countStockTo(ctx, updated, *row.stock); err != nil {
			return fail(row.id, err)
		}
	}
	return ImportResult{ID: &updated.ID, Action: ImportUpdated}
}

type importRow struct {
	id            *uuid.UUID
	name          string
	category      string
	barcode       string
	purchasePrice decimal.Decimal
	salePrice     decimal.Decimal
	minStock      int
	stock         *int
}

// request builds the product request for the row. Fields the file does not
// carry are kept from existing.
func (r importRow) request(existing *Product) ProductRequest {
	barcode := r.barcode
	req := ProductRequest{
		Name:              r.name,
		Category:          r.category,
		Barcode:           &barcode,
		PurchasePrice:     r.purchasePrice,
		SalePrice:         r.salePrice,
		MinStockThreshold: r.minStock,
	}
	if existing != nil {
		req.PhotoURL = existing.PhotoURL
		req.ExpiryDate = existing.ExpiryDate
	} else if r.stock != nil {
		req.InitialStock = *r.stock
	}
	return req
}

func parseRow(record []string) (importRow, error) {
	get := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	var (
		row importRow
		err error
	)
	if raw := get(0); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return row, fmt.Errorf("id: %q is not a valid UUID", raw)
		}
		row.id = &id
	}
	row.name, row.category, row.barcode = get(1), get(2), get(3)

	if row.purchasePrice, err = parseDecimal(get(4)); err != nil {
		return row, fmt.Errorf("preco_compra: %w", err)
	}
	if row.salePrice, err = parseDecimal(get(5)); err != nil {
		return row, fmt.Errorf("preco_venda: %w", err)
	}
	if row.minStock, err = parseQuantity(get(6)); err != nil {
		return row, fmt.Errorf("qtd_minima_estoque: %w", err)
	}
	if raw := get(7); raw != "" {
		stock, err := parseQuantity(raw)
		if err != nil {
			return row, fmt.Errorf("estoque_atual: %w", err)
		}
		row.stock = &stock
	}
	return row, nil
}

// parseDecimal accepts both "10.50" and "10,50".
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", s)
	}
	return d, nil
}

// parseQuantity accepts whole numbers, including spreadsheet renderings like "100.0".
func parseQuantity(s string) (int, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() || d.IsNegative() {
		return 0, fmt.Errorf("%q is not a non-negative whole number", s)
	}
	return int(d.IntPart()), nil
}

func readRecords(r io.Reader, format Format) ([][]string, error) {
	switch format {
	case FormatXLSX:
		return readXLSX(r)
	default:
		return readCSV(r)
	}
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = csvSeparator
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, servererrors.Wrap(servererrors.KindValidation, err,
			"could not read the CSV file, check that the separator is ';': "+err.Error())
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, servererrors.Wrap(servererrors.KindValidation, err, "could not read upload")
	}
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, servererrors.Wrap(servererrors.KindValidation, err, "could not parse the Excel file: "+err.Error())
	}
	if len(file.Sheets) == 0 {
		return nil, ErrBadHeader
	}

	var records [][]string
	for _, row := range file.Sheets[0].Rows {
		if row == nil {
			records = append(records, nil)
			continue
		}
		record := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			record = append(record, cell.String())
		}
		records = append(records, record)
	}
	return records, nil
}

func isHeader(record []string) bool {
	if len(record) < len(Columns) {
		return false
	}
	for i, col := range Columns {
		if strings.ToLower(strings.TrimSpace(record[i])) != col {
			return false
		}
	}
	return true
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func (s *service) Export(ctx context.Context, w io.Writer, format Format) error {
	products, err := s.repo.ListProducts(ctx, ProductFilter{})
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, productRecord(p))
	}
	if format == FormatXLSX {
		return writeXLSX(w, rows)
	}
	return writeCSV(w, rows)
}

// WriteTemplate writes an example bulk file: one row updating an existing
// product and one creating a new one.
func WriteTemplate(w io.Writer) error {
	return writeCSV(w, [][]string{
		{"8f14e45f-ceea-467f-a0e6-9a1c3b2d4e51", "Produto Exemplo A (para atualizar)", "Categoria Exemplo", "111222333", "10.50", "15.75", "10", "100"},
		{"", "Produto Exemplo B (novo)", "Nova Categoria", "444555666", "25.00", "40.00", "5", "50"},
	})
}

func productRecord(p *Product) []string {
	barcode := ""
	if p.Barcode != nil {
		barcode = *p.Barcode
	}
	return []string{
		p.ID.String(),
		p.Name,
		p.Category,
		barcode,
		p.PurchasePrice.StringFixed(2),
		p.SalePrice.StringFixed(2),
		strconv.Itoa(p.MinStockThreshold),
		strconv.Itoa(p.CurrentStock),
	}
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = csvSeparator
	if err := cw.Write(Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func writeXLSX(w io.Writer, rows [][]string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("produtos")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}
	for _, record := range rows {
		row := sheet.AddRow()
		for _, value := range record {
			row.AddCell().SetString(value)
		}
	}

	// buffered so a failed write leaves w untouched
	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}
