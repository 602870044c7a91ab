package domain

import "time"

// Tag is an enrichment label on a library book, produced by import mapping
// or manual curation. Confidence is in [0,1].
type Tag struct {
	Name       string  `json:"name"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Book is a title in the user's library. Rating uses half-star steps in [0,5].
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Genres    []string  `json:"genres"`
	Rating    float64   `json:"rating"`
	Year      int       `json:"year,omitempty"`
	ISBN      string    `json:"isbn,omitempty"`
	Tags      []Tag     `json:"tags,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	CoverURL  string    `json:"cover_url,omitempty"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrimaryGenre returns the first genre, or an empty string for an untagged book.
func (b Book) PrimaryGenre() string {
	if len(b.Genres) == 0 {
		return ""
	}
	return b.Genres[0]
}

// ValidRating reports whether r is a half-star value in [0,5].
func ValidRating(r float64) bool {
	if r < 0 || r > 5 {
		return false
	}
	doubled := r * 2
	return doubled == float64(int(doubled))
}
