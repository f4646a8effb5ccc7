package responder

import (
	"fmt"
	"strings"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/intent"
	"github.com/quinta-thw/librarymanager-ist4070/internal/phrase"
	"github.com/quinta-thw/librarymanager-ist4070/internal/resolver"
)

var (
	searchIntent    = intent.Intent{Kind: intent.Search}
	recommendIntent = intent.Intent{Kind: intent.Recommend}
	statsIntent     = intent.Intent{Kind: intent.Statistics}
)

// casual turns conversational phrasing into a search, a recommendation or
// a statistics request. Anything it does not recognise goes through the
// keyword buckets instead.
func (r *Responder) casual(req Request) string {
	text := phrase.Normalize(req.Utterance)

	switch {
	case phrase.Any(text, "i'm bored", "im bored", "i am bored"):
		if req.Role == catalog.RoleStaff {
			return "📊 Quiet moment? Here's how the collection is doing:\n\n" + r.rewrite(req, statsIntent, "collection stats")
		}
		return "😊 Feeling bored? Let me find you something good to read!\n\n" + r.rewrite(req, recommendIntent, req.Utterance)

	case phrase.Any(text, "looking for"):
		if name := resolver.FindAuthorOrTitle(text, req.Catalog); name != "" {
			return fmt.Sprintf("🔍 Let me look up %s for you:\n\n", name) + r.rewrite(req, searchIntent, "find "+name)
		}
		return r.rewrite(req, searchIntent, req.Utterance)

	case phrase.Any(text, "i like", "i love"):
		return r.preference(req, text)

	case phrase.Any(text, "what do you think"):
		if name := resolver.FindAuthorOrTitle(text, req.Catalog); name != "" {
			return fmt.Sprintf("🤔 Here's what we have for %s:\n\n", name) + r.rewrite(req, searchIntent, "find "+name)
		}
		return "🤔 I think every reader deserves a great book!\n\n" + r.rewrite(req, recommendIntent, req.Utterance)

	case phrase.Any(text, "can you") && phrase.Any(text, "help", "find", "show", "search", "recommend"):
		return r.services(req)

	case phrase.Any(text, "books by", "written by", "anything by", "do you have"):
		return r.rewrite(req, searchIntent, req.Utterance)
	}
	return r.asTopic(req)
}

func (r *Responder) preference(req Request, text string) string {
	trigger, _ := phrase.First(text, "i love", "i like")
	rest, _ := phrase.After(text, trigger)
	pref := phrase.TrimPunct(rest)
	if pref == "" {
		return r.asTopic(req)
	}

	if name := resolver.FindAuthorOrTitle(pref, req.Catalog); name != "" {
		return fmt.Sprintf("😊 Excellent choice! I see you enjoy %s. Here's what we have:\n\n", name) +
			r.rewrite(req, searchIntent, "find "+name)
	}
	display := strings.TrimPrefix(pref, "reading ")
	return fmt.Sprintf("😊 Great taste! Since you enjoy %s, here are some books you might like:\n\n", display) +
		r.rewrite(req, searchIntent, "find "+display)
}

var fallbackTemplates = []string{
	"🤔 I'm not sure I understood that. Try asking \"recommend me a book\" or \"do you have Dune?\"",
	"📚 I can help with books! Try \"books by Jane Austen\", \"how many books are available?\" or \"help\".",
	"💡 Not sure what you mean. You could ask \"what genres do you have?\" or \"find mystery books\".",
	"😊 Let's talk books! Ask me to search the catalog, recommend something, or say \"help\" to see everything I can do.",
}

// fallback handles utterances no rule claimed: a few conversational
// phrases get real answers, the rest get a suggested phrasing.
func (r *Responder) fallback(req Request) string {
	text := phrase.Normalize(req.Utterance)
	switch {
	case phrase.Contains(text, "how") && phrase.Any(text, "rate", "rating"):
		return ratingGuide
	case phrase.Any(text, "thank", "thanks", "thank you", "thx"):
		return "😊 You're absolutely welcome! Happy reading! Let me know if there's anything else I can help with."
	case phrase.Contains(text, "something") && phrase.Any(text, "light", "easy", "short", "fun"):
		return "🌞 Something light sounds perfect!\n\n" + r.rewrite(req, recommendIntent, req.Utterance)
	case phrase.Contains(text, "something") && phrase.Any(text, "exciting", "thrilling", "adventure"):
		return "⚡ Looking for excitement? Here are some page-turners!\n\n" + r.rewrite(req, recommendIntent, req.Utterance)
	}
	return r.pick(fallbackTemplates)
}
