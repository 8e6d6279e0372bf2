package ranking

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dmelnik/chatkeeper/internal/models"
)

var hhmmPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// Rank maps a message's display time string to a recency score, highest first.
// This is a heuristic over the display formats the UI produces ("14:30",
// "Yesterday", "3 days ago", "Last week"), not a real datetime comparison;
// that is a known limitation of the format, not something to fix here.
func Rank(timeStr string) int {
	if m := hhmmPattern.FindStringSubmatch(timeStr); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		return 1000000 + hours*60 + minutes
	}

	if timeStr == "Yesterday" {
		return 100000
	}

	if strings.Contains(timeStr, "days ago") {
		return 10000 * leadingInt(timeStr)
	}

	if timeStr == "Last week" {
		return 1000
	}

	return 0
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}

// Summary is one row of the chat list.
type Summary struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Avatar      string          `json:"avatar"`
	LastMessage string          `json:"last_message"`
	Time        string          `json:"time"`
	Kind        models.ChatKind `json:"kind"`
}

// Summarize flattens a collection into list rows, ordered by chat id so the
// pre-sort order is deterministic.
func Summarize(chats models.Collection, kind models.ChatKind) []Summary {
	items := make([]Summary, 0, len(chats))
	for _, chat := range chats {
		item := Summary{
			ID:     chat.ID,
			Name:   chat.Name,
			Avatar: chat.Avatar,
			Kind:   kind,
		}
		if last, ok := chat.LastMessage(); ok {
			item.LastMessage = last.Content
			item.Time = last.Time
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// SortByRecency orders rows most-recent-first by display-time rank. The sort is
// stable: equal ranks keep their incoming relative order.
func SortByRecency(items []Summary) {
	sort.SliceStable(items, func(i, j int) bool {
		return Rank(items[i].Time) > Rank(items[j].Time)
	})
}
