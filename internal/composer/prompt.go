package composer

import (
	"fmt"
	"strings"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
)

// BuildGroundingPrompt returns the system instruction for the external
// service. It embeds the role framing, the whole catalog, aggregate
// statistics and the accuracy rules the model must follow.
func BuildGroundingPrompt(role catalog.Role, displayName string, books []catalog.Entry) string {
	var sb strings.Builder

	sb.WriteString("You are LibraryBot, an intelligent assistant for a Library Management System. ")
	sb.WriteString("You help people find, understand and enjoy the books in this library.\n\n")

	name := displayName
	if name == "" {
		name = "anonymous"
	}
	if role == catalog.RoleStaff {
		fmt.Fprintf(&sb, "USER ROLE: Librarian (%s)\n", name)
		sb.WriteString("PERMISSIONS: Full library management, statistics, collection insights, book operations\n\n")
	} else {
		fmt.Fprintf(&sb, "USER ROLE: Library User (%s)\n", name)
		sb.WriteString("PERMISSIONS: Book browsing, rating, status updates, personal statistics\n\n")
	}

	sb.WriteString("COMPLETE LIBRARY INVENTORY:\n")
	fmt.Fprintf(&sb, "Total Books: %d\n\n", len(books))
	sb.WriteString("EXACT BOOK LIST (use this for all queries):\n")
	if len(books) == 0 {
		sb.WriteString("(the library is currently empty)\n")
	}
	for _, e := range books {
		sb.WriteString(FormatEntry(e))
		sb.WriteByte('\n')
	}

	sb.WriteString("\nLIBRARY STATISTICS:\n")
	writeStatistics(&sb, books)

	sb.WriteString("\nYOUR CAPABILITIES:\n")
	sb.WriteString("- Answer questions about the books listed above\n")
	sb.WriteString("- Search by title, author or genre\n")
	sb.WriteString("- Recommend books from the list based on ratings, genres and availability\n")
	sb.WriteString("- Explain availability and reading status\n")

	sb.WriteString("\nCRITICAL ACCURACY RULES:\n")
	sb.WriteString("1. Only mention books that appear in the EXACT BOOK LIST.\n")
	sb.WriteString("2. If a book is not in the list, say \"We don't have that book\".\n")
	sb.WriteString("3. Use the exact titles, authors, years, statuses and ratings from the list.\n")
	sb.WriteString("4. Never invent books, authors or ratings.\n")
	sb.WriteString("5. When counting, count only the books in the list.\n")
	sb.WriteString("6. If you are unsure, say so rather than guessing.\n")

	sb.WriteString("\nRESPONSE GUIDELINES:\n")
	sb.WriteString("- Be friendly, concise and helpful.\n")
	sb.WriteString("- Use short paragraphs or bullet lists.\n")
	if role == catalog.RoleStaff {
		sb.WriteString("- Frame answers for collection management: quality, utilization and balance.\n")
	} else {
		sb.WriteString("- Frame answers for a reader: what to read next and what is available now.\n")
		sb.WriteString("- Do not share library-wide management statistics.\n")
	}
	return sb.String()
}

// FormatEntry renders one catalog line of the grounding prompt.
func FormatEntry(e catalog.Entry) string {
	var details []string
	if e.Year > 0 {
		details = append(details, fmt.Sprintf("%d", e.Year))
	}
	if e.Genre != "" {
		details = append(details, e.Genre)
	}
	details = append(details, "Status: "+string(e.Status))
	details = append(details, fmt.Sprintf("Rating: %d/5", e.Rating))
	return fmt.Sprintf("• \"%s\" by %s (%s)", e.Title, e.Author, strings.Join(details, ", "))
}

func writeStatistics(sb *strings.Builder, books []catalog.Entry) {
	genres := make(map[string]int)
	var order []string
	sum, rated := 0, 0
	for _, e := range books {
		if e.Genre != "" {
			if genres[e.Genre] == 0 {
				order = append(order, e.Genre)
			}
			genres[e.Genre]++
		}
		if e.Rating > 0 {
			sum += e.Rating
			rated++
		}
	}
	for _, g := range order {
		fmt.Fprintf(sb, "- %s: %d\n", g, genres[g])
	}
	if rated > 0 {
		fmt.Fprintf(sb, "- Average rating: %.1f/5 across %d rated books\n", float64(sum)/float64(rated), rated)
	} else {
		sb.WriteString("- No books have been rated yet\n")
	}
}

// EstimateTokens provides a rough token count using 4 chars per token heuristic.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
