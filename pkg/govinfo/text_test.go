package govinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			"strips tags",
			"<html><body><p>Mr. SMITH. I rise today.</p></body></html>",
			"Mr. SMITH. I rise today.",
		},
		{
			"strips style and script blocks",
			"<style>body { color: red; }</style><script>alert(1)</script><p>Hello</p>",
			"Hello",
		},
		{
			"decodes entities",
			"Costs &amp; coverage &quot;matter&quot; &lt;now&gt;",
			`Costs & coverage "matter" <now>`,
		},
		{
			"collapses whitespace",
			"  Mr.   SMITH.\n\n  I  rise  ",
			"Mr. SMITH. I rise",
		},
		{
			"nbsp becomes space",
			"drug&nbsp;pricing",
			"drug pricing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLToPlainText(tt.html))
		})
	}
}

func TestParseSpeaker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"mister", "Mr. SMITH. Madam Speaker, I rise today.", "SMITH"},
		{"ms with state", "Ms. JONES of Ohio. I thank the gentleman.", "JONES"},
		{"mrs", "Mrs. DAVIS. On the subject of drug pricing.", "DAVIS"},
		{"state suffix dropped", "Mr. THOMPSON of Mississippi. I yield myself such time.", "THOMPSON"},
		{"speaker pro tempore", "The SPEAKER pro tempore. The gentleman is recognized.", "The SPEAKER pro tempore"},
		{"president", "The PRESIDENT. The Senate will come to order.", "The PRESIDENT"},
		{"no match", "Pursuant to clause 8 of rule XX, the Chair will postpone.", ""},
		{"lowercase name not matched", "Mr. smith spoke.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSpeaker(tt.text))
		})
	}
}
