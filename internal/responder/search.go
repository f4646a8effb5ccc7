package responder

import (
	"fmt"
	"strings"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/resolver"
)

const browseLimit = 10

func emptyCatalog(role catalog.Role) string {
	if role == catalog.RoleStaff {
		return "📚 The library catalog is empty. Add some books to get started!"
	}
	return "📚 The library is empty right now. Please check back once books have been added!"
}

func (r *Responder) search(req Request) string {
	if len(req.Catalog) == 0 {
		return emptyCatalog(req.Role)
	}
	if req.Ref.Term == "" {
		return fmt.Sprintf("📚 Here are the books in our library (%d total):\n\n", len(req.Catalog)) +
			formatList(req.Catalog, browseLimit)
	}
	if len(req.Ref.Matches) == 0 {
		return noMatch(req)
	}
	return matchFound(req)
}

func isAuthorSearch(term string, matches []catalog.Entry) bool {
	term = strings.ToLower(term)
	for _, e := range matches {
		if !strings.Contains(strings.ToLower(e.Author), term) {
			return false
		}
	}
	return true
}

func matchFound(req Request) string {
	m := req.Ref.Matches
	term := resolver.OriginalCase(req.Ref.Term, req.Utterance)

	var sb strings.Builder
	switch {
	case len(m) > 1 && sameAuthor(m) && isAuthorSearch(req.Ref.Term, m):
		fmt.Fprintf(&sb, "📚 **Books by %s:**\n\n", m[0].Author)
	case len(m) == 1 && strings.EqualFold(m[0].Title, req.Ref.Term):
		sb.WriteString("✅ **Found the book you're looking for:**\n\n")
	default:
		fmt.Fprintf(&sb, "🔍 **Found %d %s matching '%s':**\n\n", len(m), plural(len(m), "book", "books"), term)
	}
	sb.WriteString(formatList(m, listLimit))

	if len(m) == 1 {
		sb.WriteString(aboutBook(m[0]))
	}
	return sb.String()
}

func aboutBook(e catalog.Entry) string {
	var parts []string
	if e.Year > 0 {
		parts = append(parts, fmt.Sprintf("published in %d", e.Year))
	}
	if e.Genre != "" {
		parts = append(parts, e.Genre)
	}
	parts = append(parts, ratingText(e))
	parts = append(parts, fmt.Sprintf("status: %s", e.Status))
	return "💡 **About this book:** " + strings.Join(parts, ", ") + ".\n"
}

func noMatch(req Request) string {
	term := resolver.OriginalCase(req.Ref.Term, req.Utterance)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 I couldn't find any books matching '%s'.\n\n", term)
	if resolver.LooksLikeAuthorName(term) {
		if authors := sortedAuthors(req.Catalog); len(authors) > 0 {
			fmt.Fprintf(&sb, "📝 Authors in our library: %s\n\n", strings.Join(authors, ", "))
		}
	} else if genres := sortedGenres(req.Catalog); len(genres) > 0 {
		fmt.Fprintf(&sb, "📚 Genres in our library: %s\n\n", strings.Join(genres, ", "))
	}
	sb.WriteString("💡 Try asking:\n• \"Show me all books\"\n• \"Books by [author]\"\n• \"Do you have [title]?\"")
	return sb.String()
}
