package responder

import (
	"fmt"
	"strings"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/resolver"
)

const aiHint = "\n💡 Enable AI mode for more personalized suggestions."

func (r *Responder) recommend(req Request) string {
	if len(req.Catalog) == 0 {
		if req.Role == catalog.RoleStaff {
			return "📚 I'd love to give recommendations, but the library is currently empty! Add some books to the collection first."
		}
		return "📚 I'd love to give recommendations, but the library is currently empty! Please check back once books have been added."
	}
	if req.Role == catalog.RoleStaff {
		return staffRecommendations(req)
	}
	return r.patronRecommendations(req)
}

func available(e catalog.Entry) bool { return e.Status.Is(catalog.StatusAvailable) }

func staffRecommendations(req Request) string {
	var sb strings.Builder
	sb.WriteString("📋 **Collection Recommendations (Library Management Perspective)**\n\n")

	if high := topRated(req.Catalog, 4, 3); len(high) > 0 {
		sb.WriteString("⭐ **Highly rated, worth promoting to patrons:**\n\n")
		sb.WriteString(formatList(high, 3))
	}

	ready := filter(req.Catalog, func(e catalog.Entry) bool { return available(e) && e.Rating >= 3 })
	if len(ready) > 3 {
		ready = ready[:3]
	}
	if len(ready) > 0 {
		sb.WriteString("✅ **Available now and well rated:**\n\n")
		sb.WriteString(formatList(ready, 3))
	}

	if counts := genreCounts(req.Catalog); len(counts) > 0 {
		top := counts[0]
		fmt.Fprintf(&sb, "📊 **Collection insight:** %s is the most represented genre (%d %s). Consider expanding other genres for balance.\n",
			top.Genre, top.Count, plural(top.Count, "book", "books"))
	}

	if !req.AIEnabled {
		sb.WriteString(aiHint)
	}
	return sb.String()
}

// recommendationPool is the patron default: up to five available books
// rated four or more, best first. It may be empty.
func recommendationPool(entries []catalog.Entry) []catalog.Entry {
	return topRated(filter(entries, available), 4, 5)
}

func (r *Responder) patronRecommendations(req Request) string {
	pool := recommendationPool(req.Catalog)

	genre := resolver.DetectGenre(req.Utterance, req.Catalog)
	if genre != "" {
		inGenre := filter(req.Catalog, func(e catalog.Entry) bool {
			return available(e) && resolver.GenreMatches(e.Genre, genre)
		})
		if len(inGenre) == 0 {
			return fmt.Sprintf("🤔 I don't see any available %s books right now. Here are some highly-rated books from other genres:\n\n", genre) +
				formatList(pool, listLimit)
		}
		pool = inGenre
	}

	picks := r.shuffled(pool, 3)

	header := "Personal Book Recommendations"
	if genre != "" {
		header += " (" + genre + ")"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 **%s**\n\n", header)
	sb.WriteString(formatList(picks, 3))
	sb.WriteString("📖 **Reading tip:** rate books after you finish them so future suggestions get better.\n")
	if !req.AIEnabled {
		sb.WriteString(aiHint)
	}
	return sb.String()
}

// shuffled returns up to n entries drawn from pool in random order. pool is
// not modified.
func (r *Responder) shuffled(pool []catalog.Entry, n int) []catalog.Entry {
	out := make([]catalog.Entry, len(pool))
	copy(out, pool)
	r.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
