package intent

import (
	"regexp"
	"strings"

	"github.com/quinta-thw/librarymanager-ist4070/internal/phrase"
)

// Classifier maps utterances to intents. It holds only immutable tables and
// is safe for concurrent use.
type Classifier struct {
	p     *Patterns
	yesNo *regexp.Regexp
}

// New builds a Classifier over p. A nil p uses DefaultPatterns.
func New(p *Patterns) *Classifier {
	if p == nil {
		p = DefaultPatterns()
	}
	verbs := make([]string, len(p.Direct.QuestionVerbs))
	for i, v := range p.Direct.QuestionVerbs {
		verbs[i] = regexp.QuoteMeta(strings.ToLower(v))
	}
	return &Classifier{
		p:     p,
		yesNo: regexp.MustCompile(`\b(` + strings.Join(verbs, "|") + `)\b.*\?$`),
	}
}

// Classify returns the intent of utterance.
func (c *Classifier) Classify(utterance string) Intent {
	text := phrase.Normalize(utterance)
	if q := c.question(text); q != NotAQuestion {
		return Intent{Kind: DirectQuestion, Question: q}
	}
	if phrase.Any(text, c.p.Casual...) {
		return Intent{Kind: CasualConversation}
	}
	return c.Topic(text)
}

// Topic classifies text against the capability and keyword buckets only,
// skipping the question and casual-conversation layers.
func (c *Classifier) Topic(utterance string) Intent {
	text := phrase.Normalize(utterance)
	switch {
	case phrase.Any(text, c.p.Help...):
		return Intent{Kind: Help}
	case phrase.Any(text, c.p.Greeting...):
		return Intent{Kind: Greeting}
	case phrase.Any(text, c.p.Statistics...):
		return Intent{Kind: Statistics}
	case phrase.Any(text, c.p.Recommend...):
		return Intent{Kind: Recommend}
	case phrase.Any(text, c.p.Search...):
		return Intent{Kind: Search}
	case phrase.Any(text, c.p.AddBook.Verbs...) && phrase.Any(text, c.p.AddBook.Nouns...):
		return Intent{Kind: AddBookGuidance}
	case phrase.Any(text, c.p.Genre...):
		return Intent{Kind: GenreInquiry}
	case phrase.Any(text, c.p.Rating...):
		return Intent{Kind: RatingInquiry}
	case phrase.Any(text, c.p.Status...):
		return Intent{Kind: StatusInquiry}
	}
	return Intent{Kind: Fallback}
}

func (c *Classifier) question(text string) Question {
	d := c.p.Direct
	switch {
	case phrase.Any(text, d.DoYouHave...):
		return DoYouHave
	case phrase.Any(text, d.HowMany...):
		return HowMany
	case phrase.Any(text, d.WhatIs...):
		return WhatIs
	case phrase.Any(text, d.WhoWrote...):
		return WhoWrote
	case c.yesNo.MatchString(text):
		return YesNo
	case phrase.Any(text, d.Other...), strings.HasSuffix(text, "?"):
		return General
	}
	return NotAQuestion
}
