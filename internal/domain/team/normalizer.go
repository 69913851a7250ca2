package team

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalizer maps provider team names onto one canonical identifier space.
// It is immutable after construction and safe for concurrent use.
type Normalizer struct {
	exact  map[string]string
	folded map[string]string
}

// NewNormalizer resolves alias chains up front so that Normalize is idempotent.
// A cycle collapses onto its lexicographically smallest member.
func NewNormalizer(aliases Aliases) *Normalizer {
	raw := make(map[string]string, len(aliases))
	keys := make([]string, 0, len(aliases))
	for alias, canonical := range aliases {
		if alias == "" || canonical == "" {
			continue
		}
		raw[alias] = canonical
		keys = append(keys, alias)
	}
	sort.Strings(keys)

	foldIndex := make(map[string]string, len(keys))
	for _, alias := range keys {
		key := foldKey(alias)
		if _, taken := foldIndex[key]; !taken {
			foldIndex[key] = alias
		}
	}

	lookup := func(name string) (string, bool) {
		if canonical, ok := raw[name]; ok {
			return canonical, true
		}
		if alias, ok := foldIndex[foldKey(name)]; ok {
			return raw[alias], true
		}
		return "", false
	}

	n := &Normalizer{
		exact:  make(map[string]string, len(keys)),
		folded: make(map[string]string, len(foldIndex)),
	}
	for _, alias := range keys {
		n.exact[alias] = resolve(alias, lookup)
	}
	for key, alias := range foldIndex {
		n.folded[key] = n.exact[alias]
	}
	return n
}

// Normalize returns the canonical name, or raw unchanged when it is not a known alias.
func (n *Normalizer) Normalize(raw string) string {
	if n == nil {
		return raw
	}
	if canonical, ok := n.exact[raw]; ok {
		return canonical
	}
	if canonical, ok := n.folded[foldKey(raw)]; ok {
		return canonical
	}
	return raw
}

func resolve(start string, lookup func(string) (string, bool)) string {
	seen := map[string]int{start: 0}
	path := []string{start}
	current := start
	for {
		next, ok := lookup(current)
		if !ok || next == current {
			return current
		}
		if idx, looped := seen[next]; looped {
			cycle := append([]string(nil), path[idx:]...)
			sort.Strings(cycle)
			return cycle[0]
		}
		seen[next] = len(path)
		path = append(path, next)
		current = next
	}
}

func foldKey(name string) string {
	collapsed := strings.Join(strings.Fields(norm.NFC.String(name)), " ")
	return cases.Fold().String(collapsed)
}
