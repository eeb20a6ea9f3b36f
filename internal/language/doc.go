// Package language normalizes language identifiers flowing between the HTTP
// surface, the Whisper transcriber, and the translation prompt builder.
package language
