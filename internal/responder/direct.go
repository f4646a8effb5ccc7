package responder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/intent"
	"github.com/quinta-thw/librarymanager-ist4070/internal/phrase"
	"github.com/quinta-thw/librarymanager-ist4070/internal/resolver"
)

var starPattern = regexp.MustCompile(`\b([1-5])[- ]?stars?\b|\brated ([1-5])\b`)

func (r *Responder) direct(req Request) string {
	switch req.Intent.Question {
	case intent.DoYouHave:
		return doYouHave(req)
	case intent.HowMany:
		return howMany(req)
	case intent.WhatIs:
		if resolver.IsRatingQuestion(req.Utterance) {
			return ratingAnswer(req)
		}
		return "I can help with book information. What specific details do you need?"
	case intent.WhoWrote:
		return whoWrote(req)
	case intent.YesNo:
		return yesNo(req)
	}
	return "I'll help you with that. " + r.asTopic(req)
}

// ratingText always reports the rating out of 5; unrated books read 0/5.
func ratingText(e catalog.Entry) string {
	return fmt.Sprintf("rated %d/5", e.Rating)
}

func sameAuthor(entries []catalog.Entry) bool {
	for _, e := range entries[1:] {
		if !strings.EqualFold(e.Author, entries[0].Author) {
			return false
		}
	}
	return true
}

func doYouHave(req Request) string {
	n := len(req.Catalog)
	if req.Ref.Term == "" {
		return fmt.Sprintf("Yes, we have %d %s in our library.", n, plural(n, "book", "books"))
	}

	term := resolver.OriginalCase(req.Ref.Term, req.Utterance)
	m := req.Ref.Matches
	switch {
	case len(m) == 0:
		return fmt.Sprintf("No, we don't have any books matching '%s' in our library.", term)
	case len(m) == 1:
		e := m[0]
		return fmt.Sprintf("Yes! We have \"%s\" by %s (%s, %s).", e.Title, e.Author, e.Status, ratingText(e))
	case sameAuthor(m):
		return fmt.Sprintf("Yes! We have %d books by %s: %s.", len(m), m[0].Author, strings.Join(titlesOf(m), ", "))
	}

	shown := m
	if len(shown) > 3 {
		shown = shown[:3]
	}
	reply := fmt.Sprintf("Yes! We have %d books matching '%s': %s", len(m), term, strings.Join(titlesOf(shown), ", "))
	if rest := len(m) - len(shown); rest > 0 {
		return reply + fmt.Sprintf(", plus %d more.", rest)
	}
	return reply + "."
}

func howMany(req Request) string {
	text := phrase.Normalize(req.Utterance)
	scope := req.Catalog
	label := ""
	if g := resolver.DetectGenre(text, req.Catalog); g != "" {
		scope = filter(scope, func(e catalog.Entry) bool { return resolver.GenreMatches(e.Genre, g) })
		label = g + " "
	}

	count := func(st catalog.Status) int { return countStatus(scope, st) }
	books := func(n int) string { return plural(n, "book", "books") }

	switch {
	case phrase.Any(text, "want to read", "want-to-read", "wishlist", "wish list"):
		n := count(catalog.StatusWantToRead)
		return fmt.Sprintf("We have %d %s%s on the want-to-read list.", n, label, books(n))
	case phrase.Any(text, "currently reading", "reading now", "being read", "in progress"):
		n := count(catalog.StatusCurrentlyReading)
		return fmt.Sprintf("We have %d %s%s currently being read.", n, label, books(n))
	case phrase.Any(text, "available"):
		n := count(catalog.StatusAvailable)
		return fmt.Sprintf("We have %d %s%s available to read.", n, label, books(n))
	case phrase.Any(text, "checked out", "borrowed"):
		n := count(catalog.StatusCheckedOut)
		return fmt.Sprintf("We have %d %s%s checked out.", n, label, books(n))
	case phrase.Any(text, "reserved", "on hold"):
		n := count(catalog.StatusReserved)
		return fmt.Sprintf("We have %d %s%s reserved.", n, label, books(n))
	case phrase.Any(text, "read", "finished", "completed"):
		n := count(catalog.StatusRead)
		return fmt.Sprintf("We have %d %s%s marked as 'Read'.", n, label, books(n))
	}

	if sm := starPattern.FindStringSubmatch(text); sm != nil {
		stars := sm[1]
		if stars == "" {
			stars = sm[2]
		}
		want, _ := strconv.Atoi(stars)
		n := len(filter(scope, func(e catalog.Entry) bool { return e.Rating == want }))
		return fmt.Sprintf("We have %d %s%s rated %d %s.", n, label, books(n), want, plural(want, "star", "stars"))
	}

	n := len(scope)
	switch {
	case label != "":
		return fmt.Sprintf("We have %d %s%s.", n, label, books(n))
	case phrase.Any(text, "book", "books"):
		return fmt.Sprintf("We have %d %s in our library.", n, books(n))
	}
	return fmt.Sprintf("We have %d %s total in our library.", n, books(n))
}

func whoWrote(req Request) string {
	if req.Ref.Term == "" {
		return "Which book are you asking about?"
	}
	if len(req.Ref.Matches) == 0 {
		return "I don't have that book in our library to tell you the author."
	}
	e := req.Ref.Matches[0]
	return fmt.Sprintf("%s wrote \"%s\".", e.Author, e.Title)
}

func ratingAnswer(req Request) string {
	if len(req.Ref.Matches) > 0 {
		e := req.Ref.Matches[0]
		if !e.Rated() {
			return fmt.Sprintf("\"%s\" hasn't been rated yet.", e.Title)
		}
		return fmt.Sprintf("\"%s\" is rated %d out of 5 stars.", e.Title, e.Rating)
	}
	avg, rated := averageRating(req.Catalog)
	if rated == 0 {
		return "None of our books have been rated yet."
	}
	return fmt.Sprintf("Our library's average book rating is %.1f out of 5 stars.", avg)
}

func yesNo(req Request) string {
	m := req.Ref.Matches
	switch {
	case len(m) == 1:
		e := m[0]
		return fmt.Sprintf("Yes, we have \"%s\" by %s in our library (%s).", e.Title, e.Author, e.Status)
	case len(m) > 1:
		return "Yes, we have that in our library."
	}
	return "Could you be more specific about what you're looking for?"
}
