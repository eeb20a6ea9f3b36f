// Package media wraps the ffmpeg and ffprobe binaries for container
// inspection and audio extraction. Commands run through an injectable
// runner so tests never touch real binaries.
package media
