// Package transcribe runs the whisper CLI against extracted audio and
// parses its JSON output into timed segments.
package transcribe
