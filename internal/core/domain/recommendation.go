package domain

// RecommendationBatchSize is the size of every primary recommendation surface.
// Intermediate pipelines may hold more before truncation; callers must not
// rely on larger batches.
const RecommendationBatchSize = 5

// RawCandidate is one provider-specific record before normalization. Each
// provider fills only the fields it knows about; the normalizer supplies
// identity and defaults for the rest. A zero Rating means the source supplied
// no rating at all.
type RawCandidate struct {
	SourceProviderID string
	ExternalID       string
	Title            string
	Author           string
	Genres           []string
	Rating           float64
	Year             int
	ISBN             string
	Description      string // may contain markup, stripped during normalization
	CoverURL         string
	Tags             []Tag
}

// Candidate is a normalized book under consideration in a single
// recommendation call. Score is relative to the preference profile of that
// call and is not comparable across calls.
type Candidate struct {
	Book
	Score            int      `json:"score"`
	Reasons          []string `json:"reasons"`
	SimilarToTitle   string   `json:"similar_to_title,omitempty"`
	SourceProviderID string   `json:"source_provider_id"`
}

// SearchQuery is the uniform query shape accepted by the search provider.
// All fields are optional but at least one should be set.
type SearchQuery struct {
	Title    string
	Author   string
	Subject  string
	FreeText string
	Limit    int
}

// PreferenceProfile is a weighting model derived from the library snapshot of
// one recommendation call. An empty library yields a zero profile, which
// callers treat as the cold-start signal.
type PreferenceProfile struct {
	GenreWeight    map[string]float64
	AuthorWeight   map[string]float64
	TagWeight      map[string]float64
	AverageRating  float64
	RatingBandLow  float64
	RatingBandHigh float64
	TotalBooks     int
}

// Empty reports whether the profile was built from an empty library.
func (p PreferenceProfile) Empty() bool {
	return p.TotalBooks == 0
}

// ExclusionSet collects everything a recommendation call must not surface:
// rejected IDs, IDs already shown this session, and identity keys of books
// the user already owns.
type ExclusionSet struct {
	RejectedIDs map[string]struct{}
	ShownIDs    map[string]struct{}
	LibraryKeys map[string]struct{}
}

// ExcludesID reports whether id was rejected or already shown.
func (s ExclusionSet) ExcludesID(id string) bool {
	if _, ok := s.RejectedIDs[id]; ok {
		return true
	}
	_, ok := s.ShownIDs[id]
	return ok
}

// ExcludesKey reports whether a normalized title+author key belongs to the library.
func (s ExclusionSet) ExcludesKey(key string) bool {
	_, ok := s.LibraryKeys[key]
	return ok
}
