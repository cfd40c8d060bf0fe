package mood

import (
	"fmt"
	"strings"
)

const emptySummary = "We haven't shared many conversations yet. I'm here when you're ready."

// Share is one mood's slice of a Summary.
type Share struct {
	Mood    Mood    `json:"mood"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Summary 统计一段对话中各情绪出现的比例。
type Summary struct {
	Total  int     `json:"total"`
	Shares []Share `json:"shares"`
}

// Summarize counts moods in first-seen order so the rendered sentence is stable.
func Summarize(moods []Mood) Summary {
	if len(moods) == 0 {
		return Summary{Shares: []Share{}}
	}

	counts := make(map[Mood]int)
	order := make([]Mood, 0, len(Labels()))
	for _, m := range moods {
		if _, seen := counts[m]; !seen {
			order = append(order, m)
		}
		counts[m]++
	}

	shares := make([]Share, 0, len(order))
	for _, m := range order {
		shares = append(shares, Share{
			Mood:    m,
			Count:   counts[m],
			Percent: float64(counts[m]) / float64(len(moods)) * 100,
		})
	}
	return Summary{Total: len(moods), Shares: shares}
}

// Sentence renders the summary the way the companion says it back to the user.
func (s Summary) Sentence() string {
	if s.Total == 0 {
		return emptySummary
	}

	insights := make([]string, 0, len(s.Shares))
	for _, share := range s.Shares {
		insights = append(insights, fmt.Sprintf("%.1f%% %s moments", share.Percent, share.Mood))
	}
	return "Looking at our conversations, I notice: " + strings.Join(insights, ", ") + ". I'm here through all of them."
}
