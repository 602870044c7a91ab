package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

const maxLibraryContext = 20

func buildRecommendPrompt(query string, library []domain.Book, count int) string {
	var context strings.Builder
	shown := library
	if len(shown) > maxLibraryContext {
		shown = shown[:maxLibraryContext]
	}
	for _, book := range shown {
		context.WriteString(fmt.Sprintf("- %q by %s (rated %.1f/5, %s)\n",
			book.Title, book.Author, book.Rating, book.PrimaryGenre()))
	}
	if context.Len() == 0 {
		context.WriteString("(no books yet)\n")
	}

	return fmt.Sprintf(`You are a book recommendation engine.
Return a strict JSON array of exactly %d objects, each with keys:
title (string), author (string), genres (array of strings),
rating (number from 0 to 5, the general reader rating),
year (integer), description (string, one or two sentences).
No markdown, no extra keys, no surrounding text.
Never recommend a book from the reader's shelf below.

Reader request:
%s

Reader's shelf:
%s`, count, query, context.String())
}
