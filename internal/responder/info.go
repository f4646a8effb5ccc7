package responder

import (
	"fmt"
	"strings"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
)

var greetings = []string{
	"👋 Hello%s! Welcome to the library.",
	"😊 Hi%s! Great to see you.",
	"📚 Hey%s! Ready to find your next read?",
	"🌟 Greetings%s! How can I help you today?",
}

const staffExamples = "\n\nTry asking me:\n" +
	"• \"Show me library statistics\"\n" +
	"• \"Recommend books to promote\"\n" +
	"• \"How many books are checked out?\"\n" +
	"• \"How do I add a book?\""

const patronExamples = "\n\nTry asking me:\n" +
	"• \"Recommend me a fantasy book\"\n" +
	"• \"Do you have Dune?\"\n" +
	"• \"Books by Jane Austen\"\n" +
	"• \"What genres do you have?\""

func (r *Responder) greeting(req Request) string {
	name := ""
	if req.DisplayName != "" {
		name = ", " + req.DisplayName
	}
	reply := fmt.Sprintf(r.pick(greetings), name)
	if n := len(req.Catalog); n > 0 {
		reply += fmt.Sprintf(" We have %d %s in our collection.", n, plural(n, "book", "books"))
	} else {
		reply += " Our catalog is empty right now."
	}
	if req.Role == catalog.RoleStaff {
		return reply + staffExamples
	}
	return reply + patronExamples
}

const staffHelp = "🛠️ **What I can do for librarians:**\n" +
	"• Collection analytics: \"show statistics\"\n" +
	"• Promotion picks: \"recommend books\"\n" +
	"• Catalog lookups: \"do you have Dune?\", \"books by Tolkien\"\n" +
	"• Counts: \"how many books are available?\"\n" +
	"• Guidance on adding books: \"how do I add a book?\""

const patronHelp = "📖 **What I can do for you:**\n" +
	"• Find books: \"find mystery books\", \"books by Jane Austen\"\n" +
	"• Answer questions: \"do you have Dune?\", \"who wrote Emma?\"\n" +
	"• Recommend reads: \"recommend a fantasy book\"\n" +
	"• Check availability: \"how many books are available?\"\n" +
	"• Explore genres: \"what genres do you have?\""

func (r *Responder) help(req Request) string {
	banner := "📚 Local mode: I answer from built-in rules over our catalog.\n\n"
	if req.AIEnabled {
		banner = "🤖 AI mode is on: answers come from the AI assistant, grounded in our catalog.\n\n"
	}
	if req.Role == catalog.RoleStaff {
		return banner + staffHelp
	}
	return banner + patronHelp
}

// services is the menu shown for "can you help / find / show" requests.
func (r *Responder) services(req Request) string {
	if req.Role == catalog.RoleStaff {
		return "Of course! As a librarian you can ask me for collection statistics, books to promote, " +
			"availability counts, or guidance on adding new titles. What would you like to start with?"
	}
	return "Of course! I can search the catalog, tell you who wrote a book, check what's available, " +
		"or recommend something to read. What are you in the mood for?"
}

func (r *Responder) addBook(req Request) string {
	if req.Role != catalog.RoleStaff {
		return "🔒 Only librarians can add books to the library.\n\n" +
			"💡 Tip: ask a librarian to add a title, or let me recommend something we already have!"
	}
	return "📝 **Adding a book to the catalog:**\n" +
		"1. Open the catalog management page.\n" +
		"2. Enter the title and author (both required).\n" +
		"3. Add the publication year and genre if known.\n" +
		"4. Set the status, e.g. Available.\n" +
		"5. Optionally give it a rating from 1 to 5.\n\n" +
		"💡 New books show up in my answers right away."
}

func (r *Responder) genres(req Request) string {
	names := sortedGenres(req.Catalog)
	if len(names) == 0 {
		return "📚 Our catalog doesn't list any genres yet. Popular genres include Fiction, Mystery, Romance, " +
			"Science Fiction, Fantasy, Biography and History."
	}
	return fmt.Sprintf("🏷️ **Genres in our library:** %s\n\n💡 Ask \"recommend a %s book\" to explore one.",
		strings.Join(names, ", "), strings.ToLower(names[0]))
}

func (r *Responder) statuses(req Request) string {
	b := req.Catalog
	return fmt.Sprintf("📋 **Book availability** (%d total)\n• Available: %d\n• Checked out: %d\n• Reserved: %d",
		len(b), countStatus(b, catalog.StatusAvailable), countStatus(b, catalog.StatusCheckedOut), countStatus(b, catalog.StatusReserved))
}

const ratingGuide = "⭐ **How ratings work**\n" +
	"Books are rated from 1 to 5 stars; 0 means the book hasn't been rated yet.\n" +
	"• 5 stars: outstanding\n• 4 stars: very good\n• 3 stars: good\n• 1-2 stars: flagged for review\n\n" +
	"💡 Ask \"what's the rating of [title]?\" to check a specific book."
