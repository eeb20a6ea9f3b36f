// Package pipeline orchestrates a subtitling request through its stages:
// audio extraction, transcription, translation, subtitle encoding, and
// composition. Each stage persists its transition through the queue store,
// so a crashed run can be rolled back and resumed. A failure at any stage
// is terminal for the request; only translation degrades softly by falling
// back to the untranslated transcript.
package pipeline
