package usecase

import (
	"strings"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

// IdentityKey builds the normalized (title, author) key used for duplicate
// detection across providers. Titles are compared with all non-alphanumeric
// characters stripped so punctuation variants ("Mr. Fox" vs "Mr Fox")
// collapse to the same key.
func IdentityKey(title, author string) string {
	return stripNonAlnum(title) + "|" + NormalizeAuthor(author)
}

// NormalizeAuthor lowercases, trims and strips punctuation from an author
// name so author identity survives formatting differences between providers.
func NormalizeAuthor(author string) string {
	return stripNonAlnum(author)
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 0x80:
			// Keep non-ASCII letters; only ASCII punctuation varies between sources.
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BuildExclusionSet assembles the per-call exclusion snapshot from the
// library and the persisted rejection/shown history.
func BuildExclusionSet(library []domain.Book, rejectedIDs, shownIDs []string) domain.ExclusionSet {
	set := domain.ExclusionSet{
		RejectedIDs: make(map[string]struct{}, len(rejectedIDs)),
		ShownIDs:    make(map[string]struct{}, len(shownIDs)),
		LibraryKeys: make(map[string]struct{}, len(library)),
	}
	for _, id := range rejectedIDs {
		set.RejectedIDs[id] = struct{}{}
	}
	for _, id := range shownIDs {
		set.ShownIDs[id] = struct{}{}
	}
	for _, book := range library {
		set.LibraryKeys[IdentityKey(book.Title, book.Author)] = struct{}{}
	}
	return set
}

// Excluded applies the hard exclusion rules that do not depend on batch
// state: rejected/shown IDs and library membership.
func Excluded(c domain.Candidate, exclusions domain.ExclusionSet) bool {
	if exclusions.ExcludesID(c.ID) {
		return true
	}
	return exclusions.ExcludesKey(IdentityKey(c.Title, c.Author))
}

// AssembleBatch walks candidates in their given (ranked) order and accepts
// each unless it violates an exclusion, duplicates an accepted identity key,
// or exceeds the per-author cap. The cap is one book per author; when the
// pool cannot otherwise fill the batch it is relaxed to two in a second pass,
// so a full batch is never silently under-delivered while candidates exist.
func AssembleBatch(ranked []domain.Candidate, exclusions domain.ExclusionSet, size int) []domain.Candidate {
	if size <= 0 {
		return nil
	}

	batch := make([]domain.Candidate, 0, size)
	seenKeys := make(map[string]struct{})
	authorCount := make(map[string]int)

	accept := func(maxPerAuthor int) {
		for _, candidate := range ranked {
			if len(batch) == size {
				return
			}
			if candidate.Score <= 0 {
				continue
			}
			if Excluded(candidate, exclusions) {
				continue
			}
			key := IdentityKey(candidate.Title, candidate.Author)
			if _, dup := seenKeys[key]; dup {
				continue
			}
			author := NormalizeAuthor(candidate.Author)
			if authorCount[author] >= maxPerAuthor {
				continue
			}
			seenKeys[key] = struct{}{}
			authorCount[author]++
			batch = append(batch, candidate)
		}
	}

	accept(1)
	if len(batch) < size {
		accept(2)
	}
	return batch
}
