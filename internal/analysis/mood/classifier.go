package mood

import "strings"

// Mood 表示一条消息被标注的情绪标签。
type Mood string

const (
	Sad      Mood = "sad"
	Happy    Mood = "happy"
	Anxious  Mood = "anxious"
	Grateful Mood = "grateful"
	Neutral  Mood = "neutral"
	// Supportive is never produced by Classify. Older companion rows carry it.
	Supportive Mood = "supportive"
)

type category struct {
	mood     Mood
	keywords []string
}

// categories 的顺序就是冲突时的优先级：sad > happy > anxious > grateful。
var categories = []category{
	{mood: Sad, keywords: []string{"sad", "depressed", "hopeless", "miserable", "down", "hurt", "pain"}},
	{mood: Happy, keywords: []string{"happy", "great", "wonderful", "amazing", "excited", "joy", "love"}},
	{mood: Anxious, keywords: []string{"anxious", "worried", "nervous", "scared", "stressed", "panic"}},
	{mood: Grateful, keywords: []string{"grateful", "thankful", "appreciate", "blessed", "fortunate"}},
}

// Classify 根据关键词子串匹配推断文本情绪，未命中任何关键词时返回 Neutral。
// Matching is plain substring search, so "down" also matches "downtown".
func Classify(text string) Mood {
	normalized := strings.ToLower(text)
	if normalized == "" {
		return Neutral
	}

	for _, c := range categories {
		for _, word := range c.keywords {
			if strings.Contains(normalized, word) {
				return c.mood
			}
		}
	}
	return Neutral
}

// Labels returns the classifier output labels in priority order, neutral last.
func Labels() []Mood {
	labels := make([]Mood, 0, len(categories)+1)
	for _, c := range categories {
		labels = append(labels, c.mood)
	}
	return append(labels, Neutral)
}

// Keywords returns a copy of the keyword set for m.
func Keywords(m Mood) []string {
	for _, c := range categories {
		if c.mood == m {
			return append([]string(nil), c.keywords...)
		}
	}
	return nil
}

// ParseMood 解析存储层或请求中的情绪标签。
func ParseMood(raw string) (Mood, bool) {
	switch Mood(strings.ToLower(strings.TrimSpace(raw))) {
	case Sad:
		return Sad, true
	case Happy:
		return Happy, true
	case Anxious:
		return Anxious, true
	case Grateful:
		return Grateful, true
	case Neutral:
		return Neutral, true
	case Supportive:
		return Supportive, true
	default:
		return "", false
	}
}
