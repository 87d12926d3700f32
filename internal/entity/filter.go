package entity

import "strings"

// DefaultTypes is the default allow-list of entity types.
var DefaultTypes = []string{"person", "org", "organization", "loc", "location", "place", "gpe"}

// DefaultExcludedTypes are never tallied.
var DefaultExcludedTypes = []string{"date", "number", "time", "percent"}

var pronouns = map[string]struct{}{
	"he": {}, "she": {}, "it": {}, "they": {}, "we": {}, "you": {}, "i": {},
	"me": {}, "him": {}, "her": {}, "them": {}, "us": {}, "this": {}, "that": {},
}

// Filter keeps mentions whose type is allowed and whose name is not a
// pronoun.
type Filter struct {
	allow map[string]struct{}
	deny  map[string]struct{}
}

// NewFilter builds a Filter. An empty allow list admits every type not
// denied. Types compare case-insensitively.
func NewFilter(allow, deny []string) Filter {
	return Filter{allow: typeSet(allow), deny: typeSet(deny)}
}

func typeSet(types []string) map[string]struct{} {
	if len(types) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(types))
	for _, t := range types {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out[t] = struct{}{}
		}
	}
	return out
}

// Allowed reports whether a mention of typ is kept.
func (f Filter) Allowed(typ string) bool {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if _, denied := f.deny[typ]; denied {
		return false
	}
	if len(f.allow) == 0 {
		return true
	}
	_, ok := f.allow[typ]
	return ok
}

// Apply returns the distinct kept names, trimmed, in first-seen order.
func (f Filter) Apply(mentions []Mention) []string {
	var out []string
	seen := make(map[string]struct{}, len(mentions))
	for _, m := range mentions {
		name := strings.TrimSpace(m.Name)
		if name == "" || !f.Allowed(m.Type) {
			continue
		}
		if _, ok := pronouns[strings.ToLower(name)]; ok {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
