package resolver

import (
	"strings"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/intent"
	"github.com/quinta-thw/librarymanager-ist4070/internal/phrase"
)

// Reference is the catalog operand of an utterance: the phrase pulled out
// of it and the entries that phrase resolved to.
type Reference struct {
	Term    string
	Matches []catalog.Entry
}

// Lookup resolves the catalog reference for intents that need one. Other
// intents yield an empty Reference.
func Lookup(in intent.Intent, utterance string, entries []catalog.Entry) Reference {
	switch in.Kind {
	case intent.DirectQuestion:
		switch in.Question {
		case intent.DoYouHave:
			return lookupDoYouHave(utterance, entries)
		case intent.WhoWrote:
			return lookupTitle(utterance, entries)
		case intent.WhatIs:
			if !IsRatingQuestion(utterance) {
				return Reference{}
			}
			return lookupSearch(utterance, entries)
		case intent.YesNo:
			return lookupSearch(utterance, entries)
		}
	case intent.Search:
		return lookupSearch(utterance, entries)
	}
	return Reference{}
}

// IsRatingQuestion reports whether a "what is" question asks about ratings.
func IsRatingQuestion(utterance string) bool {
	return phrase.Any(phrase.Normalize(utterance), "rating", "rated")
}

func lookupSearch(utterance string, entries []catalog.Entry) Reference {
	term := ExtractSearchTerm(utterance, entries)
	if term == "" {
		return Reference{}
	}
	return Reference{Term: term, Matches: Resolve(term, utterance, entries)}
}

func lookupDoYouHave(utterance string, entries []catalog.Entry) Reference {
	term := ExtractDoYouHaveTerm(utterance)
	if term == "" {
		return Reference{}
	}
	if e, ok := exactTitle(term, entries); ok {
		return Reference{Term: term, Matches: []catalog.Entry{e}}
	}
	matches := Resolve(term, utterance, entries)
	if len(matches) == 0 && LooksLikeAuthorName(OriginalCase(term, utterance)) {
		matches = authorsWithAllWords(term, entries)
	}
	return Reference{Term: term, Matches: matches}
}

// exactTitle finds the entry whose title, with the same filler words
// dropped, is term. A named title beats every partial match.
func exactTitle(term string, entries []catalog.Entry) (catalog.Entry, bool) {
	for _, e := range entries {
		if dropWords(phrase.Normalize(e.Title), doYouHaveFillers) == term {
			return e, true
		}
	}
	return catalog.Entry{}, false
}

// authorsWithAllWords matches authors containing every word of term in any
// order, so "herbert frank" still finds Frank Herbert.
func authorsWithAllWords(term string, entries []catalog.Entry) []catalog.Entry {
	words := strings.Fields(term)
	var out []catalog.Entry
	for _, e := range entries {
		author := strings.ToLower(e.Author)
		all := len(words) > 0
		for _, w := range words {
			if !strings.Contains(author, w) {
				all = false
				break
			}
		}
		if all {
			out = append(out, e)
		}
	}
	return out
}

func lookupTitle(utterance string, entries []catalog.Entry) Reference {
	frag := ExtractTitleFragment(utterance)
	if frag == "" {
		return Reference{}
	}
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Title), frag) {
			return Reference{Term: frag, Matches: []catalog.Entry{e}}
		}
	}
	return Reference{Term: frag}
}
