package resolver

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/phrase"
)

var operandTriggers = []string{"books by ", "anything by ", "written by ", "author "}

var trailingTriggers = []string{"looking for ", "do you have "}

var stopWords = toSet(
	"find", "search", "show", "me", "books", "by", "the", "a", "an", "for",
	"library", "statistics", "stats", "analytics", "how", "many", "total",
	"do", "you", "have", "any", "got", "looking", "i'm", "im", "i", "am",
	"can", "could", "would", "please", "want", "need", "like", "love",
	"book", "novel", "story", "read", "reading", "written", "what", "what's",
	"whats", "is", "of", "some", "about", "list", "look", "tell", "there",
	"all", "every", "everything",
)

var titleFillers = toSet("the", "a", "an", "and", "of", "to", "in", "on", "at", "by")

var doYouHaveFillers = toSet("any", "a", "an", "the", "book", "books", "by")

var articles = toSet("the", "a", "an")

var whoWroteTriggers = []string{"who is the author of", "who's the author of", "who is the author", "who's the author", "who wrote"}

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// ExtractSearchTerm isolates the operand of a search request. Trigger
// phrases such as "books by " win; otherwise a catalog title or author
// named in the text is used; then "looking for " and "do you have "; and
// finally whatever is left after dropping stop words, short words and
// numbers. The result is lower-case and may be empty.
func ExtractSearchTerm(utterance string, entries []catalog.Entry) string {
	text := phrase.Normalize(utterance)

	for _, trig := range operandTriggers {
		if rest, ok := phrase.After(text, trig); ok {
			if term := phrase.TrimPunct(rest); term != "" {
				return term
			}
		}
	}

	if e, ok := FindTitle(text, entries); ok {
		return strings.ToLower(e.Title)
	}
	if e, ok := FindAuthor(text, entries); ok {
		return strings.ToLower(e.Author)
	}

	for _, trig := range trailingTriggers {
		if rest, ok := phrase.After(text, trig); ok {
			if term := dropWords(rest, articles); term != "" {
				return term
			}
		}
	}

	var kept []string
	for _, w := range phrase.Tokens(text) {
		if stopWords[w] || utf8.RuneCountInString(w) <= 2 || isNumber(w) {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// ExtractDoYouHaveTerm returns what follows "do you have" with filler
// words and punctuation removed.
func ExtractDoYouHaveTerm(utterance string) string {
	rest, ok := phrase.After(phrase.Normalize(utterance), "do you have")
	if !ok {
		return ""
	}
	return dropWords(rest, doYouHaveFillers)
}

// ExtractTitleFragment returns the title asked about in a "who wrote"
// question, without articles or punctuation.
func ExtractTitleFragment(utterance string) string {
	text := phrase.Normalize(utterance)
	for _, trig := range whoWroteTriggers {
		if rest, ok := phrase.After(text, trig); ok {
			return dropWords(rest, articles)
		}
	}
	return ""
}

func dropWords(s string, drop map[string]bool) string {
	var kept []string
	for _, w := range phrase.Tokens(s) {
		if !drop[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return w != ""
}

// FindTitle returns the entry whose title is named in text. A full title
// match wins, longest first; failing that, a title of three or more words
// matches when its first two significant words both appear.
func FindTitle(text string, entries []catalog.Entry) (catalog.Entry, bool) {
	text = phrase.Normalize(text)
	best, bestLen := -1, 0
	for i, e := range entries {
		title := strings.ToLower(e.Title)
		if title != "" && len(title) > bestLen && phrase.Contains(text, title) {
			best, bestLen = i, len(title)
		}
	}
	if best >= 0 {
		return entries[best], true
	}

	for _, e := range entries {
		words := phrase.Tokens(strings.ToLower(e.Title))
		if len(words) <= 2 {
			continue
		}
		var sig []string
		for _, w := range words {
			if !titleFillers[w] {
				sig = append(sig, w)
			}
		}
		if len(sig) >= 2 && phrase.Contains(text, sig[0]) && phrase.Contains(text, sig[1]) {
			return e, true
		}
	}
	return catalog.Entry{}, false
}

// FindAuthor returns an entry whose author is named in text, by full name
// first, then by last name (longer than three characters) or initials.
func FindAuthor(text string, entries []catalog.Entry) (catalog.Entry, bool) {
	text = phrase.Normalize(text)
	for _, e := range entries {
		if a := strings.ToLower(e.Author); a != "" && phrase.Contains(text, a) {
			return e, true
		}
	}
	for _, e := range entries {
		for _, alias := range authorAliases(e.Author) {
			if phrase.Contains(text, alias) {
				return e, true
			}
		}
	}
	return catalog.Entry{}, false
}

// authorAliases returns the short forms a reader might use for author:
// the last name when longer than three characters, and compact initials
// such as "jrr" or "jk" when the name starts with dotted initials.
func authorAliases(author string) []string {
	fields := strings.Fields(strings.ToLower(author))
	if len(fields) == 0 {
		return nil
	}
	var aliases []string
	last := strings.Trim(fields[len(fields)-1], ".,")
	if utf8.RuneCountInString(last) > 3 {
		aliases = append(aliases, last)
	}
	if len(fields) > 1 && strings.Contains(fields[0], ".") {
		compact := strings.ReplaceAll(fields[0], ".", "")
		dotted := strings.TrimSuffix(fields[0], ".")
		if utf8.RuneCountInString(compact) >= 2 {
			aliases = append(aliases, compact, dotted)
		}
	}
	return aliases
}

// FindAuthorOrTitle names the author or, failing that, the title found in
// text, in catalog casing.
func FindAuthorOrTitle(text string, entries []catalog.Entry) string {
	if e, ok := FindAuthor(text, entries); ok {
		return e.Author
	}
	if e, ok := FindTitle(text, entries); ok {
		return e.Title
	}
	return ""
}

var knownGenres = []string{
	"fiction", "non-fiction", "nonfiction", "mystery", "romance", "science fiction",
	"sci-fi", "fantasy", "biography", "history", "self-help", "business",
	"thriller", "horror", "poetry", "classic", "dystopian",
}

// DetectGenre returns the genre named in text, checking the catalog's own
// genres together with a fixed list. Longer names are tried first so that
// "non-fiction" is not read as "fiction".
func DetectGenre(text string, entries []catalog.Entry) string {
	text = phrase.Normalize(text)
	seen := make(map[string]bool)
	var candidates []string
	add := func(g string) {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" && !seen[g] {
			seen[g] = true
			candidates = append(candidates, g)
		}
	}
	for _, e := range entries {
		add(e.Genre)
	}
	for _, g := range knownGenres {
		add(g)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return len(candidates[i]) > len(candidates[j]) })

	for _, g := range candidates {
		if phrase.Contains(text, g) {
			return g
		}
	}
	return ""
}

var genreAliases = map[string]string{
	"sci-fi":     "science fiction",
	"scifi":      "science fiction",
	"nonfiction": "non-fiction",
}

// GenreMatches reports whether an entry's genre falls under g. "fiction"
// does not cover "non-fiction".
func GenreMatches(entryGenre, g string) bool {
	eg := strings.ToLower(strings.TrimSpace(entryGenre))
	g = strings.ToLower(strings.TrimSpace(g))
	if eg == "" || g == "" {
		return false
	}
	if a, ok := genreAliases[g]; ok {
		g = a
	}
	if a, ok := genreAliases[eg]; ok {
		eg = a
	}
	if eg == g {
		return true
	}
	return phrase.Contains(eg, g) && !phrase.Contains(eg, "non-"+g)
}
