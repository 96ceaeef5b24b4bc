// Procedural names for civilizations and sites.
package civ

import (
	"fmt"

	"github.com/agnivade/levenshtein"

	"github.com/talgya/civworld/internal/entropy"
)

// minNameDistance is the smallest edit distance allowed between two names.
const minNameDistance = 3

var (
	namePrefixes = []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
		"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "River",
	}
	settlementSuffixes = []string{
		"haven", "ford", "hollow", "wick", "bridge", "stead", "field",
		"dale", "vale", "port", "town", "bury", "well", "brook", "reach",
	}
	castleSuffixes = []string{"keep", "gate", "watch", "helm", "crest", "guard", "hold"}
	dungeonSuffixes = []string{"barrow", "crypt", "pit", "hollow", "den", "warren", "vault"}
	civSuffixes     = []string{"ish Realm", "en League", "ic Dominion", " Compact", " Kingdom", " Clans"}
)

// namer hands out names that stay clearly distinct from every name issued so far.
type namer struct {
	rng  *entropy.Rng
	used []string
}

func (n *namer) pick(prefixes, suffixes []string) string {
	var name string
	for attempt := 0; attempt < 64; attempt++ {
		name = prefixes[n.rng.IntN(len(prefixes))] + suffixes[n.rng.IntN(len(suffixes))]
		if n.distinct(name) {
			n.used = append(n.used, name)
			return name
		}
	}
	// The syllable space is exhausted; disambiguate with a numeral.
	for k := 2; ; k++ {
		cand := fmt.Sprintf("%s %d", name, k)
		if n.distinct(cand) {
			n.used = append(n.used, cand)
			return cand
		}
	}
}

func (n *namer) distinct(name string) bool {
	for _, u := range n.used {
		if levenshtein.ComputeDistance(name, u) < minNameDistance {
			return false
		}
	}
	return true
}

// nameAll names every site, then every civilization.
func (c *Civs) nameAll(rng *entropy.Rng) {
	n := &namer{rng: rng}
	for i := range c.Sites {
		s := &c.Sites[i]
		switch s.Kind {
		case KindCastle:
			s.Name = n.pick(namePrefixes, castleSuffixes)
		case KindDungeon:
			s.Name = n.pick(namePrefixes, dungeonSuffixes)
		default:
			s.Name = n.pick(namePrefixes, settlementSuffixes)
		}
	}
	for i := range c.Civs {
		c.Civs[i].Name = n.pick(namePrefixes, civSuffixes)
	}
}
