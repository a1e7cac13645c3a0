package govinfo

import (
	"regexp"
	"strings"
)

var (
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// HTMLToPlainText strips tags, decodes common entities, and collapses
// whitespace so speech text is clean for downstream analysis.
func HTMLToPlainText(html string) string {
	text := styleRe.ReplaceAllString(html, "")
	text = scriptRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, " ")
	text = entityReplacer.Replace(text)
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Congressional Record speeches open with a titled surname in capitals
// ("Mr. SMITH", "Ms. JONES of Ohio") or a presiding-officer title.
var speakerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?:Mr\.|Ms\.|Mrs\.|Miss)\s+([A-Z][A-Z\s]+?)(?:\s+of\s+\w+)?[.\s]`),
	regexp.MustCompile(`(?i)^(The\s+(?:SPEAKER|PRESIDENT|CHAIR)(?:\s+pro\s+tempore)?)`),
}

// ParseSpeaker extracts the speaker name from the start of a speech, or
// returns "" when no recognized pattern is present.
func ParseSpeaker(text string) string {
	for _, p := range speakerPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
