package suggest

import (
	"sort"
	"strings"

	"media-explorer/internal/metrics"
)

// Sigil marks a tag in a query, as in "@image sunset".
const Sigil = "@"

// MaxSuggestions caps the number of suggestions returned.
const MaxSuggestions = 5

// FileTypeTags filter results by file kind. "ss" and "!ss" are the composite
// screenshot and not-screenshot filters.
var FileTypeTags = []string{"image", "video", "audio", "ss", "!ss"}

// MetricTags select the scoring metric.
var MetricTags = []string{"lex", "sem", "dlex", "olex", "tlex", "dsem", "osem", "tsem", "clip", "llm"}

// topTags are offered first when the query has no tags yet.
var topTags = []string{"clip", "lex", "sem", "image", "video"}

var (
	vocabulary []string
	known      map[string]bool
	// compatible maps a present tag to the tags allowed next to it. The
	// relation is directional: audio allows tlex but tlex only allows
	// video and audio, while image allows lex and lex allows image.
	compatible map[string]map[string]bool
)

func init() {
	known = make(map[string]bool)
	for _, group := range [][]string{topTags, FileTypeTags, MetricTags} {
		for _, tag := range group {
			if !known[tag] {
				known[tag] = true
				vocabulary = append(vocabulary, tag)
			}
		}
	}

	compatible = map[string]map[string]bool{
		"olex":  set(),
		"osem":  set(),
		"tlex":  set("video", "audio"),
		"tsem":  set("video", "audio"),
		"clip":  set("ss", "!ss", "image", "video"),
		"llm":   set("ss", "!ss", "image", "video"),
		"image": set(append(without(MetricTags, "tlex", "tsem"), "!ss")...),
		"video": set(without(MetricTags, "olex", "osem")...),
		"audio": set(without(MetricTags, "clip", "olex", "osem", "llm")...),
		"ss":    set(without(MetricTags, "tsem", "tlex")...),
		"!ss":   set(append(append([]string{}, MetricTags...), "image")...),
	}
	for _, tag := range []string{"lex", "sem", "dlex", "dsem"} {
		compatible[tag] = set(FileTypeTags...)
	}
}

func set(tags ...string) map[string]bool {
	m := make(map[string]bool, len(tags))
	for _, t := range tags {
		m[t] = true
	}
	return m
}

func without(tags []string, drop ...string) []string {
	skip := set(drop...)
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !skip[t] {
			out = append(out, t)
		}
	}
	return out
}

// Suggestion is one completion: the whole tag and the part still to be typed.
type Suggestion struct {
	Tag       string
	Remainder string
}

// Vocabulary returns every tag in suggestion order: the most common tags
// first, then the remaining file-type tags, then the remaining metric tags.
func Vocabulary() []string {
	out := make([]string, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// IsTag reports whether tag (without the sigil) is in the vocabulary.
func IsTag(tag string) bool {
	return known[tag]
}

// Compatible reports whether candidate may be added to a query that already
// contains present. It uses present's own relation only.
func Compatible(present, candidate string) bool {
	return compatible[present][candidate]
}

// PresentTags returns the vocabulary tags used in query, in order of
// appearance and without the sigil.
func PresentTags(query string) []string {
	var present []string
	for _, word := range strings.Fields(query) {
		if !strings.HasPrefix(word, Sigil) {
			continue
		}
		tag := strings.TrimPrefix(word, Sigil)
		if known[tag] {
			present = append(present, tag)
		}
	}
	return present
}

// Suggest proposes up to MaxSuggestions tags that start with prefix, are not
// already in fullQuery, and are compatible with every tag that is. With no
// tags present the curated vocabulary order is kept; otherwise the nearest
// completions (shortest remainder) come first.
func Suggest(fullQuery, prefix string) []Suggestion {
	present := PresentTags(fullQuery)
	isPresent := set(present...)

	var out []Suggestion
	for _, tag := range vocabulary {
		if !strings.HasPrefix(tag, prefix) || isPresent[tag] {
			continue
		}
		ok := true
		for _, p := range present {
			if !Compatible(p, tag) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, Suggestion{Tag: tag, Remainder: tag[len(prefix):]})
		}
	}

	if len(present) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			return len(out[i].Remainder) < len(out[j].Remainder)
		})
	}
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}

	metrics.SuggestionRequestsTotal.Inc()
	metrics.SuggestionResults.Observe(float64(len(out)))
	return out
}

// Complete returns the partial tag being typed at the end of query. ok is
// false when the last word is not a tag, including when query ends in a space.
func Complete(query string) (prefix string, ok bool) {
	words := strings.Split(query, " ")
	last := words[len(words)-1]
	if !strings.HasPrefix(last, Sigil) {
		return "", false
	}
	return strings.TrimPrefix(last, Sigil), true
}

// ForQuery returns the suggestions for the tag being typed at the end of
// query, or nil if no tag is being typed.
func ForQuery(query string) []Suggestion {
	prefix, ok := Complete(query)
	if !ok {
		return nil
	}
	return Suggest(query, prefix)
}

// Apply accepts a suggestion: the remainder is appended to query followed by
// a space, ready for the next word.
func Apply(query string, s Suggestion) string {
	return query + s.Remainder + " "
}

// Describe returns a one-line explanation of tag, or "" for unknown tags.
func Describe(tag string) string {
	switch tag {
	case "image":
		return "only images"
	case "video":
		return "only videos"
	case "audio":
		return "only audio files"
	case "ss":
		return "only screenshots"
	case "!ss":
		return "exclude screenshots"
	case "lex":
		return "lexical match on all text"
	case "sem":
		return "semantic match on all text"
	case "dlex":
		return "lexical match on descriptions"
	case "olex":
		return "lexical match on OCR text"
	case "tlex":
		return "lexical match on transcripts"
	case "dsem":
		return "semantic match on descriptions"
	case "osem":
		return "semantic match on OCR text"
	case "tsem":
		return "semantic match on transcripts"
	case "clip":
		return "visual match of text against image content"
	case "llm":
		return "semantic match on generated descriptions"
	default:
		return ""
	}
}
