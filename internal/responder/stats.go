package responder

import (
	"fmt"
	"strings"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/phrase"
)

const restrictedStats = "🔒 Library-wide statistics are restricted to librarians only.\n\n" +
	"**Your Personal Reading Stats:**\n" +
	"📊 Feature coming soon! Track your personal reading journey."

const genreTop = 5

func (r *Responder) statistics(req Request) string {
	text := phrase.Normalize(req.Utterance)
	if req.Role != catalog.RoleStaff && phrase.Any(text, "library", "all books") {
		return restrictedStats
	}
	if len(req.Catalog) == 0 {
		if req.Role == catalog.RoleStaff {
			return "📊 No statistics yet: the catalog is empty. Add some books to start tracking the collection."
		}
		return "📊 The library is empty right now, so there's nothing to report yet."
	}
	if req.Role == catalog.RoleStaff {
		return staffStatistics(req.Catalog)
	}
	return patronStatistics(req.Catalog)
}

func ratingLine(entries []catalog.Entry) string {
	avg, rated := averageRating(entries)
	if rated == 0 {
		return "not rated yet"
	}
	return fmt.Sprintf("%.1f/5", avg)
}

func staffStatistics(books []catalog.Entry) string {
	total := len(books)
	avail := countStatus(books, catalog.StatusAvailable)
	reading := countStatus(books, catalog.StatusCurrentlyReading)
	read := countStatus(books, catalog.StatusRead)
	_, rated := averageRating(books)
	high := len(filter(books, func(e catalog.Entry) bool { return e.Rating >= 4 }))
	low := len(filter(books, func(e catalog.Entry) bool { return e.Rating == 1 || e.Rating == 2 }))

	var sb strings.Builder
	sb.WriteString("📊 **Library Analytics Dashboard**\n\n")
	fmt.Fprintf(&sb, "📚 **Collection Overview**\n• Total books: %d\n• Available: %d\n• Currently reading: %d\n• Completed: %d\n\n",
		total, avail, reading, read)
	fmt.Fprintf(&sb, "⭐ **Quality Metrics**\n• Average rating: %s\n• High-rated (4+ stars): %d\n• Books needing review (1-2 stars): %d\n• Unrated: %d\n\n",
		ratingLine(books), high, low, total-rated)
	fmt.Fprintf(&sb, "📈 **Utilization:** %d%% of the collection is in progress or completed.\n\n", percent(read+reading, total))
	sb.WriteString(genreDistribution(books))
	return sb.String()
}

func genreDistribution(books []catalog.Entry) string {
	counts := genreCounts(books)
	if len(counts) == 0 {
		return "🏷️ **Genre Distribution:** no genres recorded yet.\n"
	}

	var sb strings.Builder
	sb.WriteString("🏷️ **Genre Distribution**\n")
	for i, c := range counts {
		if i == genreTop {
			break
		}
		fmt.Fprintf(&sb, "• %s: %d %s\n", c.Genre, c.Count, plural(c.Count, "book", "books"))
	}
	if len(counts) < 5 {
		sb.WriteString("💡 Consider adding more genres to diversify the collection.\n")
	}
	most, least := counts[0].Count, counts[len(counts)-1].Count
	if most > 3*least {
		fmt.Fprintf(&sb, "⚖️ Consider balancing the collection: %s far outnumbers the smallest genres.\n", counts[0].Genre)
	}
	return sb.String()
}

func patronStatistics(books []catalog.Entry) string {
	total := len(books)
	read := countStatus(books, catalog.StatusRead)

	var sb strings.Builder
	sb.WriteString("📚 **Your Reading Journey**\n\n")
	fmt.Fprintf(&sb, "• Books available to read: %d\n• Currently reading: %d\n• Completed: %d\n• Average rating: %s\n• Reading progress: %d%%\n",
		countStatus(books, catalog.StatusAvailable), countStatus(books, catalog.StatusCurrentlyReading), read, ratingLine(books), percent(read, total))

	if counts := genreCounts(books); len(counts) > 0 {
		var names []string
		for i, c := range counts {
			if i == genreTop {
				break
			}
			names = append(names, c.Genre)
		}
		fmt.Fprintf(&sb, "\n🏷️ **Popular genres:** %s\n", strings.Join(names, ", "))
	}
	return sb.String()
}
