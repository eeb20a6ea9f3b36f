// Package compose burns subtitle files into video with ffmpeg.
//
// Composition is an ordered list of strategies tried in sequence: the
// subtitles filter first, then a drawtext overlay built from the parsed
// subtitle file. The first strategy to succeed wins; failure of all
// strategies is terminal for the request.
package compose
