// Package wikitemplate parses the structured ety-template / descendants
// citation shape shared by the etymology and descendants builders (spec
// §4.7, §4.8): a template name plus positional and named arguments
// naming one or more (language, term) citations.
package wikitemplate

import (
	"sort"
	"strconv"
	"strings"
)

// LangTerm is one (language code, term) citation extracted from a template.
type LangTerm struct {
	Lang string
	Term string
}

// Template is the normalized form of one ety/descendants citation.
type Template struct {
	Name       string
	Positional []string          // 1-indexed args in order, Positional[0] is arg "1"
	Named      map[string]string // non-numeric-keyed args
	Expansion  string
}

// FromRaw builds a Template from the raw JSON args map (numeric string keys
// for positional args, everything else named), as emitted by the upstream
// scraper (spec §4.3: "etymology_templates[*] (name, positional args,
// named args, expansion)").
func FromRaw(name string, args map[string]string, expansion string) Template {
	var numbered []int
	for k := range args {
		if n, err := strconv.Atoi(k); err == nil && n >= 1 {
			numbered = append(numbered, n)
		}
	}
	sort.Ints(numbered)

	t := Template{Name: name, Expansion: expansion, Named: make(map[string]string)}
	if len(numbered) > 0 {
		maxN := numbered[len(numbered)-1]
		t.Positional = make([]string, maxN)
		for _, n := range numbered {
			t.Positional[n-1] = args[strconv.Itoa(n)]
		}
	}
	for k, v := range args {
		if _, err := strconv.Atoi(k); err != nil {
			t.Named[k] = v
		}
	}
	return t
}

// Arg returns the n-th (1-indexed) positional argument.
func (t Template) Arg(n int) (string, bool) {
	if n < 1 || n > len(t.Positional) {
		return "", false
	}
	v := t.Positional[n-1]
	return v, v != ""
}

// NamedArg returns a named argument's value.
func (t Template) NamedArg(key string) (string, bool) {
	v, ok := t.Named[key]
	return v, ok && v != ""
}

// Lang1 returns the template's primary language argument (conventionally
// position 1: the language the current entry is written in).
func (t Template) Lang1() string {
	v, _ := t.Arg(1)
	return v
}

// Chain extracts an ancestry citation chain: successive (lang, term) pairs
// starting at position 2, i.e. {{inherited|en|enm|glowen}} yields a single
// pair (enm, glowen); a template describing a longer chain in one citation
// yields one pair per (lang, term) step, oldest-adjacent-parent first
// (spec §4.7: "template supplies a chain (lang, term)*").
func (t Template) Chain() []LangTerm {
	var out []LangTerm
	for i := 2; i+1 <= len(t.Positional); i += 2 {
		lang, _ := t.Arg(i)
		term, _ := t.Arg(i + 1)
		if lang == "" && term == "" {
			continue
		}
		out = append(out, LangTerm{Lang: lang, Term: term})
	}
	return out
}

// Components extracts a compositional citation list: one term per
// remaining positional argument after the language slot, each defaulting
// to the template's primary language unless overridden by a "langN" named
// argument (the convention real affix/compound templates use for
// mixed-language components), in left-to-right order (spec §4.7 step 2,
// §9 "compositional order").
func (t Template) Components() []LangTerm {
	lang1 := t.Lang1()
	var out []LangTerm
	for i := 2; i <= len(t.Positional); i++ {
		term, ok := t.Arg(i)
		if !ok {
			continue
		}
		lang := lang1
		if override, ok := t.NamedArg("lang" + strconv.Itoa(i)); ok {
			lang = override
		}
		out = append(out, LangTerm{Lang: lang, Term: term})
	}
	return out
}

// IsPrefixForm reports whether a stored term carries the affix's trailing
// hyphen convention, e.g. "re-" (spec §4.7, §9 "hyphen form preserved").
func IsPrefixForm(term string) bool {
	return strings.HasSuffix(term, "-") && !strings.HasPrefix(term, "-")
}

// IsSuffixForm reports the leading-hyphen convention, e.g. "-ed".
func IsSuffixForm(term string) bool {
	return strings.HasPrefix(term, "-") && !strings.HasSuffix(term, "-")
}
