package responder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
)

const listLimit = 5

// formatList renders at most limit entries followed by a continuation
// marker when entries were left out.
func formatList(entries []catalog.Entry, limit int) string {
	if len(entries) == 0 {
		return "No books found."
	}
	var sb strings.Builder
	for i, e := range entries {
		if i == limit {
			break
		}
		fmt.Fprintf(&sb, "📖 **%s**\n   by %s", e.Title, e.Author)
		if e.Year > 0 {
			fmt.Fprintf(&sb, " (%d)", e.Year)
		}
		if e.Genre != "" {
			fmt.Fprintf(&sb, " - %s", e.Genre)
		}
		if e.Rating > 0 {
			fmt.Fprintf(&sb, " ⭐%d/5", e.Rating)
		}
		sb.WriteString("\n\n")
	}
	if len(entries) > limit {
		fmt.Fprintf(&sb, "... and %d more books.\n", len(entries)-limit)
	}
	return sb.String()
}

func titlesOf(entries []catalog.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func countStatus(entries []catalog.Entry, st catalog.Status) int {
	n := 0
	for _, e := range entries {
		if e.Status.Is(st) {
			n++
		}
	}
	return n
}

func filter(entries []catalog.Entry, keep func(catalog.Entry) bool) []catalog.Entry {
	var out []catalog.Entry
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// averageRating is the mean over rated entries only.
func averageRating(entries []catalog.Entry) (avg float64, rated int) {
	sum := 0
	for _, e := range entries {
		if e.Rated() {
			sum += e.Rating
			rated++
		}
	}
	if rated == 0 {
		return 0, 0
	}
	return float64(sum) / float64(rated), rated
}

// topRated returns entries with rating >= min, best first, keeping catalog
// order among equals, capped at limit (0 = no cap).
func topRated(entries []catalog.Entry, min, limit int) []catalog.Entry {
	out := filter(entries, func(e catalog.Entry) bool { return e.Rating >= min })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type genreCount struct {
	Genre string
	Count int
}

// genreCounts tallies genres, most common first, ties in order of first
// appearance. Entries without a genre are skipped.
func genreCounts(entries []catalog.Entry) []genreCount {
	index := make(map[string]int)
	var counts []genreCount
	for _, e := range entries {
		if e.Genre == "" {
			continue
		}
		key := strings.ToLower(e.Genre)
		i, ok := index[key]
		if !ok {
			i = len(counts)
			index[key] = i
			counts = append(counts, genreCount{Genre: e.Genre})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts
}

func sortedGenres(entries []catalog.Entry) []string {
	counts := genreCounts(entries)
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.Genre
	}
	sort.Strings(out)
	return out
}

func sortedAuthors(entries []catalog.Entry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		key := strings.ToLower(e.Author)
		if e.Author == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e.Author)
	}
	sort.Strings(out)
	return out
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return n * 100 / total
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

