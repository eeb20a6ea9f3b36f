package compose

import "strings"

// filterPathEscaper rewrites a filesystem path for embedding in an ffmpeg
// filter expression. Backslashes become forward slashes (ffmpeg accepts
// them on every platform) and colons are escaped so drive letters are not
// parsed as filter option delimiters.
var filterPathEscaper = strings.NewReplacer(
	`\`, `/`,
	`:`, `\:`,
)

// EscapeFilterPath escapes a path for use inside an ffmpeg filter
// expression. Paths without reserved characters pass through unchanged.
func EscapeFilterPath(path string) string {
	return filterPathEscaper.Replace(path)
}

// drawTextEscaper rewrites subtitle text for the drawtext filter's text
// option. Backslash must go first so later escapes are not double-escaped.
// Apostrophes become typographic quotes because a quoted filter value
// cannot contain a literal single quote.
var drawTextEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, "’",
	`:`, `\:`,
	`%`, `\%`,
	`,`, `\,`,
)

// EscapeDrawText escapes subtitle text for embedding in a drawtext filter.
func EscapeDrawText(text string) string {
	return drawTextEscaper.Replace(text)
}
