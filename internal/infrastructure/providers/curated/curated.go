package curated

import (
	"strings"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

const providerID = "curated"

// Provider serves static hand-picked lists compiled into the binary. It is
// the last-resort source and never fails.
type Provider struct {
	byGenre map[string][]domain.RawCandidate
	mixed   []domain.RawCandidate
}

func New() *Provider {
	p := &Provider{byGenre: make(map[string][]domain.RawCandidate)}
	for genre, entries := range lists {
		candidates := make([]domain.RawCandidate, 0, len(entries))
		for _, e := range entries {
			candidates = append(candidates, domain.RawCandidate{
				SourceProviderID: providerID,
				Title:            e.title,
				Author:           e.author,
				Genres:           []string{genre},
				Rating:           e.rating,
				Year:             e.year,
				Description:      e.blurb,
			})
		}
		p.byGenre[strings.ToLower(genre)] = candidates
		p.mixed = append(p.mixed, candidates...)
	}
	return p
}

// List returns the list for a genre, or the mixed list when the genre is
// empty or unknown. Callers receive a copy and may reorder it freely.
func (p *Provider) List(genre string) []domain.RawCandidate {
	source := p.mixed
	if key := strings.ToLower(strings.TrimSpace(genre)); key != "" {
		if hits, ok := p.byGenre[key]; ok {
			source = hits
		}
	}
	out := make([]domain.RawCandidate, len(source))
	copy(out, source)
	return out
}

type entry struct {
	title  string
	author string
	rating float64
	year   int
	blurb  string
}

var lists = map[string][]entry{
	"Fantasy": {
		{"The Name of the Wind", "Patrick Rothfuss", 4.5, 2007, "An orphaned prodigy recounts his rise from street urchin to legend."},
		{"Jonathan Strange & Mr Norrell", "Susanna Clarke", 4.1, 2004, "Two magicians revive English magic during the Napoleonic Wars."},
		{"The Fifth Season", "N.K. Jemisin", 4.3, 2015, "A world wracked by apocalyptic seasons and the woman who survives them."},
		{"Piranesi", "Susanna Clarke", 4.2, 2020, "A man lives in an infinite house of halls and statues, and begins to question why."},
	},
	"Science Fiction": {
		{"Project Hail Mary", "Andy Weir", 4.5, 2021, "A lone astronaut wakes with no memory and a mission to save Earth."},
		{"A Memory Called Empire", "Arkady Martine", 4.2, 2019, "An ambassador untangles her predecessor's death inside a devouring empire."},
		{"Children of Time", "Adrian Tchaikovsky", 4.3, 2015, "Humanity's heirs contend with a civilization of uplifted spiders."},
	},
	"Mystery": {
		{"The Thursday Murder Club", "Richard Osman", 4.1, 2020, "Four retirees meet weekly to solve cold cases, until a fresh one lands."},
		{"Magpie Murders", "Anthony Horowitz", 4.1, 2016, "An editor reads a whodunit manuscript that hides a real murder."},
		{"In the Woods", "Tana French", 3.9, 2007, "A detective investigates a killing in the woods where his friends vanished."},
	},
	"Literary Fiction": {
		{"A Gentleman in Moscow", "Amor Towles", 4.4, 2016, "A count under house arrest builds a full life inside a grand hotel."},
		{"Tomorrow, and Tomorrow, and Tomorrow", "Gabrielle Zevin", 4.2, 2022, "Two friends build video games and a thirty-year creative partnership."},
		{"The Remains of the Day", "Kazuo Ishiguro", 4.2, 1989, "An English butler looks back on duty, dignity and a life unlived."},
	},
	"Nonfiction": {
		{"The Splendid and the Vile", "Erik Larson", 4.4, 2020, "Churchill's first year as prime minister through the Blitz."},
		{"Entangled Life", "Merlin Sheldrake", 4.3, 2020, "How fungi shape the world and blur the edges of biology."},
		{"Empire of Pain", "Patrick Radden Keefe", 4.5, 2021, "Three generations of the family behind the opioid crisis."},
	},
}
