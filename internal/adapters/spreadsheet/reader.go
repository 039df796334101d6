// Package spreadsheet reads marketplace keyword exports (.xlsx or .csv) into
// keyword rows. The header row is located by column name, so exports with a
// title banner or notes above the table still load.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/corey/titlelab/internal/domain/keyword"
	"github.com/corey/titlelab/internal/ports"
)

var (
	// ErrNoHeader means no row carried a recognizable keyword column.
	ErrNoHeader = errors.New("no keyword header row found")
	// ErrUnsupportedFormat is returned for file types other than xlsx and csv.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
)

// headerScanRows bounds how far down a sheet the header may sit.
const headerScanRows = 10

type field int

const (
	fieldText field = iota
	fieldPopularity
	fieldClick
	fieldConversion
	fieldRank
	fieldCount
)

// headerNames lists the accepted header cells per field, compared after
// lowercasing and collapsing whitespace.
var headerNames = [fieldCount][]string{
	fieldText:       {"搜索词", "关键词", "keyword", "keywords", "search term"},
	fieldPopularity: {"搜索人气", "人气", "popularity", "search popularity"},
	fieldClick:      {"点击率", "click rate", "ctr"},
	fieldConversion: {"支付转化率", "转化率", "conversion", "conversion rate"},
	fieldRank:       {"排名", "序号", "rank"},
}

var aliases = func() map[string]field {
	m := make(map[string]field)
	for f, names := range headerNames {
		for _, n := range names {
			m[n] = field(f)
		}
	}
	return m
}()

// Supported reports whether name has a readable extension.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// Read parses an export. The format is chosen by name's extension.
func Read(name string, r io.Reader) ([]ports.Keyword, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return readXLSX(r)
	case ".csv":
		return readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// readXLSX uses the first sheet that has a header row.
func readXLSX(r io.Reader) ([]ports.Keyword, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open excel: %w", err)
	}
	defer func() { _ = f.Close() }()

	for _, sh := range f.GetSheetList() {
		rows, err := f.GetRows(sh)
		if err != nil {
			continue
		}
		kws, err := parseRows(rows)
		if errors.Is(err, ErrNoHeader) {
			continue
		}
		return kws, err
	}
	return nil, ErrNoHeader
}

func readCSV(r io.Reader) ([]ports.Keyword, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return parseRows(rows)
}

// parseRows finds the header and converts the rows below it. Rows with an
// empty keyword cell are skipped. Without a rank column, ranks follow row
// order.
func parseRows(rows [][]string) ([]ports.Keyword, error) {
	hdr, cols := findHeader(rows)
	if hdr < 0 {
		return nil, ErrNoHeader
	}

	cell := func(row []string, f field) string {
		i := cols[f]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []ports.Keyword
	for _, row := range rows[hdr+1:] {
		text := cell(row, fieldText)
		if text == "" {
			continue
		}
		n := len(out) + 1
		rank := n
		if v, err := strconv.Atoi(cell(row, fieldRank)); err == nil && v > 0 {
			rank = v
		}
		out = append(out, keyword.New(n, rank, text,
			cell(row, fieldPopularity), cell(row, fieldClick), cell(row, fieldConversion)))
	}
	return out, nil
}

// findHeader returns the header row index and the column of each field
// (-1 when absent), or -1 when no row names a keyword column.
func findHeader(rows [][]string) (int, [fieldCount]int) {
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		var cols [fieldCount]int
		for f := range cols {
			cols[f] = -1
		}
		for j, c := range rows[i] {
			f, ok := aliases[normalize(c)]
			if ok && cols[f] < 0 {
				cols[f] = j
			}
		}
		if cols[fieldText] >= 0 {
			return i, cols
		}
	}
	return -1, [fieldCount]int{}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
