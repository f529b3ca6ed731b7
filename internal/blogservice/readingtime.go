package blogservice

import (
	"fmt"
	"strings"
)

const wordsPerMinute = 200

// EstimateReadingTime maps a blog body to a display label such as "3 min read".
// Words are whitespace-separated tokens; a non-empty body always reads for at
// least one minute.
func EstimateReadingTime(body string) string {
	words := len(strings.Fields(body))
	if words == 0 {
		return "0 min read"
	}

	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	return fmt.Sprintf("%d min read", minutes)
}
