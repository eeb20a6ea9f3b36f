// Package translate implements segment-preserving batch translation.
//
// All transcript segments are joined with a sentinel separator, translated
// in a single text-generation request, split back on the separator, and
// re-zipped onto the original timestamps by index. When the service breaks
// the alignment contract (wrong segment count, malformed response, transport
// failure) the translator falls back to the original untranslated segments.
// Every attempt is persisted as an audit record before Translate returns.
package translate
