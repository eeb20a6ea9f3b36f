// Command subfuse transcribes, translates, and burns subtitles into videos.
// It runs either as a long-lived daemon serving the HTTP API or as a
// one-shot processor for a single file.
package main
