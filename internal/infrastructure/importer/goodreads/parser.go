package goodreads

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

// Parser reads Goodreads-style library exports. CSV is the native export
// format; XLSX covers users who opened and re-saved it in a spreadsheet.
type Parser struct{}

func New() *Parser { return &Parser{} }

const shelfTagConfidence = 0.6

// Exclusive shelves are reading state, not subject matter.
var exclusiveShelves = map[string]struct{}{
	"read":              {},
	"to-read":           {},
	"currently-reading": {},
}

func (p *Parser) Parse(r io.Reader, format string) ([]domain.Book, error) {
	var records [][]string
	var err error

	switch strings.ToLower(format) {
	case "csv":
		records, err = readCSV(r)
	case "xlsx":
		records, err = readXLSX(r)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse export", fmt.Errorf("unsupported format %q", format))
	}
	if err != nil {
		return nil, err
	}

	return buildBooks(records)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// Goodreads wraps ISBNs as ="...", which is a bare quote in an unquoted
	// field under strict CSV rules.
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, domain.WrapError(domain.ErrParseFailure, "read csv", err)
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.WrapError(domain.ErrParseFailure, "open xlsx", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.WrapError(domain.ErrParseFailure, "open xlsx", fmt.Errorf("workbook has no sheets"))
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, domain.WrapError(domain.ErrParseFailure, "read xlsx rows", err)
	}
	return rows, nil
}

type columns struct {
	title          int
	author         int
	myRating       int
	isbn13         int
	origYear       int
	pubYear        int
	bookshelves    int
	exclusiveShelf int
}

func mapColumns(header []string) columns {
	cols := columns{title: -1, author: -1, myRating: -1, isbn13: -1, origYear: -1, pubYear: -1, bookshelves: -1, exclusiveShelf: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "title":
			cols.title = i
		case "author":
			cols.author = i
		case "my rating":
			cols.myRating = i
		case "isbn13":
			cols.isbn13 = i
		case "original publication year":
			cols.origYear = i
		case "year published":
			cols.pubYear = i
		case "bookshelves":
			cols.bookshelves = i
		case "exclusive shelf":
			cols.exclusiveShelf = i
		}
	}
	return cols
}

func buildBooks(records [][]string) ([]domain.Book, error) {
	if len(records) == 0 {
		return nil, nil
	}
	cols := mapColumns(records[0])
	if cols.title < 0 || cols.author < 0 {
		return nil, domain.WrapError(domain.ErrParseFailure, "parse export", fmt.Errorf("missing Title or Author column"))
	}

	out := make([]domain.Book, 0, len(records)-1)
	for _, row := range records[1:] {
		title := cell(row, cols.title)
		author := cell(row, cols.author)
		if title == "" || author == "" {
			continue
		}
		// Only finished books carry a meaningful rating.
		if shelf := cell(row, cols.exclusiveShelf); cols.exclusiveShelf >= 0 && shelf != "" && shelf != "read" {
			continue
		}

		book := domain.Book{
			Title:  title,
			Author: author,
			Rating: ratingOf(cell(row, cols.myRating)),
			ISBN:   cleanISBN(cell(row, cols.isbn13)),
			Year:   firstYear(cell(row, cols.origYear), cell(row, cols.pubYear)),
			Tags:   shelfTags(cell(row, cols.bookshelves)),
		}
		out = append(out, book)
	}
	return out, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func ratingOf(raw string) float64 {
	rating, err := strconv.ParseFloat(raw, 64)
	if err != nil || !domain.ValidRating(rating) {
		return 0
	}
	return rating
}

// cleanISBN strips the ="..." wrapper Goodreads uses to keep spreadsheets
// from eating leading zeros.
func cleanISBN(raw string) string {
	cleaned := strings.Trim(raw, `="`)
	if cleaned == "" || !isDigits(cleaned) {
		return ""
	}
	return cleaned
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func firstYear(values ...string) int {
	for _, raw := range values {
		if year, err := strconv.Atoi(raw); err == nil && year > 0 {
			return year
		}
	}
	return 0
}

func shelfTags(raw string) []domain.Tag {
	if raw == "" {
		return nil
	}
	var tags []domain.Tag
	for _, shelf := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(shelf))
		if name == "" {
			continue
		}
		if _, exclusive := exclusiveShelves[name]; exclusive {
			continue
		}
		tags = append(tags, domain.Tag{Name: name, Category: "shelf", Confidence: shelfTagConfidence})
	}
	return tags
}
