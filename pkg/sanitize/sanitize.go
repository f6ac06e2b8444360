package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

var blockBreaks = strings.NewReplacer("</p>", " ", "<br>", " ", "<br/>", " ", "<br />", " ", "</div>", " ")

// Text strips all markup from s and collapses whitespace. Block-level tags
// become spaces so adjacent words stay apart.
func Text(s string) string {
	cleaned := strict.Sanitize(blockBreaks.Replace(s))
	cleaned = html.UnescapeString(cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}
