// Package intent classifies chat utterances with ordered keyword rules.
// Rules are evaluated in a fixed precedence and the first match wins.
package intent

// Kind is the top-level intent tag.
type Kind int

const (
	Fallback Kind = iota
	Greeting
	DirectQuestion
	Search
	Recommend
	Statistics
	AddBookGuidance
	GenreInquiry
	RatingInquiry
	StatusInquiry
	Help
	CasualConversation
)

var kindNames = map[Kind]string{
	Fallback:           "fallback",
	Greeting:           "greeting",
	DirectQuestion:     "direct_question",
	Search:             "search",
	Recommend:          "recommend",
	Statistics:         "statistics",
	AddBookGuidance:    "add_book_guidance",
	GenreInquiry:       "genre_inquiry",
	RatingInquiry:      "rating_inquiry",
	StatusInquiry:      "status_inquiry",
	Help:               "help",
	CasualConversation: "casual_conversation",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Question sub-classifies a DirectQuestion.
type Question int

const (
	NotAQuestion Question = iota
	DoYouHave
	HowMany
	WhatIs
	WhoWrote
	YesNo
	// General is a question shape that matched none of the trigger
	// phrases; it is answered through the topic buckets.
	General
)

var questionNames = map[Question]string{
	NotAQuestion: "",
	DoYouHave:    "do_you_have",
	HowMany:      "how_many",
	WhatIs:       "what_is",
	WhoWrote:     "who_wrote",
	YesNo:        "yes_no",
	General:      "general",
}

func (q Question) String() string { return questionNames[q] }

// Intent is the classification of one utterance.
type Intent struct {
	Kind     Kind
	Question Question
}

func (i Intent) String() string {
	if i.Kind == DirectQuestion {
		return i.Kind.String() + "(" + i.Question.String() + ")"
	}
	return i.Kind.String()
}
