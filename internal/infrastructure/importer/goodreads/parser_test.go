package goodreads

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

const exportCSV = `Title,Author,My Rating,ISBN13,Original Publication Year,Year Published,Bookshelves,Exclusive Shelf
The Hobbit,J.R.R. Tolkien,5,="9780547928227",1937,2012,"fantasy, classics",read
Dune,Frank Herbert,4,="9780441013593",1965,2005,sci-fi,read
Future Read,Someone New,0,,2023,2023,,to-read
,,0,,,,,read
`

func TestParseCSVMapsGoodreadsColumns(t *testing.T) {
	parser := New()
	books, err := parser.Parse(strings.NewReader(exportCSV), "csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 read books, got %d", len(books))
	}

	hobbit := books[0]
	if hobbit.Title != "The Hobbit" || hobbit.Author != "J.R.R. Tolkien" {
		t.Fatalf("unexpected first book: %+v", hobbit)
	}
	if hobbit.Rating != 5 {
		t.Fatalf("expected rating 5, got %.1f", hobbit.Rating)
	}
	if hobbit.ISBN != "9780547928227" {
		t.Fatalf("isbn wrapper not stripped: %q", hobbit.ISBN)
	}
	if hobbit.Year != 1937 {
		t.Fatalf("expected original publication year, got %d", hobbit.Year)
	}
	if len(hobbit.Tags) != 2 || hobbit.Tags[0].Name != "fantasy" || hobbit.Tags[0].Category != "shelf" {
		t.Fatalf("shelves not mapped to tags: %+v", hobbit.Tags)
	}
}

func TestParseCSVSkipsUnreadShelves(t *testing.T) {
	parser := New()
	books, err := parser.Parse(strings.NewReader(exportCSV), "csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	for _, book := range books {
		if book.Title == "Future Read" {
			t.Fatalf("to-read entry must be skipped")
		}
	}
}

func TestParseMissingColumnsIsParseFailure(t *testing.T) {
	parser := New()
	_, err := parser.Parse(strings.NewReader("Name,Writer\nA,B\n"), "csv")
	if !domain.IsKind(err, domain.ErrParseFailure) {
		t.Fatalf("expected parse failure, got %v", err)
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	parser := New()
	_, err := parser.Parse(strings.NewReader("x"), "pdf")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestParseXLSXSharesRowMapping(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	rows := [][]any{
		{"Title", "Author", "My Rating", "Exclusive Shelf"},
		{"Piranesi", "Susanna Clarke", 4, "read"},
		{"Skipped", "Someone", 0, "to-read"},
	}
	for i, row := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := book.SetSheetRow(sheet, cellRef, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	parser := New()
	books, err := parser.Parse(&buf, "xlsx")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(books) != 1 || books[0].Title != "Piranesi" || books[0].Rating != 4 {
		t.Fatalf("unexpected result: %+v", books)
	}
}
