package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"subfuse/internal/language"
	"subfuse/internal/logging"
	"subfuse/internal/services/gemini"
	"subfuse/internal/subtitle"
)

// Separator is the sentinel token segments are joined with. It is chosen to
// be extremely unlikely to appear in natural text or to be normalized away
// by a translation model.
const Separator = "<<<SEGMENT_BREAK>>>"

// TextGenerator is the slice of the text-generation service the translator
// depends on.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Result is the outcome of one Translate call. Segments always has the same
// length as the input, with original timestamps at every index.
type Result struct {
	Segments  []subtitle.Segment
	Status    Status
	AttemptID string
}

// Translator performs separator-preserving batch translation with full
// fallback to the original segments on any detected failure.
type Translator struct {
	generator TextGenerator
	store     AttemptStore
	logger    *slog.Logger
}

// New constructs a Translator. store may be nil when auditing is disabled
// (tests); logger may be nil.
func New(generator TextGenerator, store AttemptStore, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Translator{generator: generator, store: store, logger: logger}
}

// Translate translates segments from sourceLang to targetLang. It never
// fails hard: on any transport error, malformed response, or separator
// count mismatch it returns the original segments unchanged with the
// failure status. Timestamps are copied verbatim from the input at every
// index regardless of outcome.
func (t *Translator) Translate(ctx context.Context, segments []subtitle.Segment, sourceLang, targetLang string) Result {
	if len(segments) == 0 {
		return Result{Segments: nil, Status: StatusSuccess}
	}

	attempt := newAttempt(sourceLang, targetLang, t.generator.Model(), len(segments))
	attempt.Prompt = BuildPrompt(segments, sourceLang, targetLang)

	started := time.Now()
	response, err := t.generator.GenerateText(ctx, attempt.Prompt)
	attempt.DurationMS = time.Since(started).Milliseconds()
	attempt.RawResponse = response

	if err != nil {
		attempt.Status = classify(err)
		attempt.Detail = err.Error()
		return t.finish(ctx, attempt, segments, nil)
	}

	chunks := strings.Split(response, Separator)
	attempt.SegmentCountReceived = len(chunks)
	if len(chunks) != len(segments) {
		attempt.Status = StatusCountMismatch
		attempt.Detail = fmt.Sprintf("sent %d segments, received %d chunks", len(segments), len(chunks))
		return t.finish(ctx, attempt, segments, nil)
	}

	translated := make([]subtitle.Segment, len(segments))
	for i, seg := range segments {
		text := strings.TrimSpace(chunks[i])
		if text == "" {
			// Per-segment fallback: an empty chunk keeps the original text.
			text = seg.Text
		}
		translated[i] = subtitle.Segment{Start: seg.Start, End: seg.End, Text: text}
	}
	attempt.Status = StatusSuccess
	return t.finish(ctx, attempt, segments, translated)
}

// finish persists the attempt, logs the outcome, and selects the returned
// sequence. translated is nil on any failure path.
func (t *Translator) finish(ctx context.Context, attempt Attempt, originals, translated []subtitle.Segment) Result {
	if t.store != nil {
		if err := t.store.Record(attempt); err != nil {
			t.logger.WarnContext(ctx, "failed to persist translation attempt",
				logging.String("attempt_id", attempt.ID), logging.Error(err))
		}
	}

	result := Result{Status: attempt.Status, AttemptID: attempt.ID}
	if attempt.Status == StatusSuccess {
		result.Segments = translated
		t.logger.InfoContext(ctx, "translation succeeded",
			logging.String("attempt_id", attempt.ID),
			logging.Int("segments", attempt.SegmentCountSent),
			logging.Int64("duration_ms", attempt.DurationMS))
		return result
	}

	result.Segments = subtitle.CloneSegments(originals)
	t.logger.WarnContext(ctx, "translation fell back to original text",
		logging.String("attempt_id", attempt.ID),
		logging.String("status", string(attempt.Status)),
		logging.Int("segments_sent", attempt.SegmentCountSent),
		logging.Int("chunks_received", attempt.SegmentCountReceived),
		logging.String("detail", attempt.Detail))
	return result
}

// classify maps a generator error to an attempt status. Responses the
// service produced but the client could not interpret are malformed; all
// other failures are transport-level.
func classify(err error) Status {
	if errors.Is(err, gemini.ErrMalformedResponse) {
		return StatusMalformedResponse
	}
	return StatusNetworkError
}

// BuildPrompt joins the segment texts with the separator and wraps them in
// the translation instruction. The prompt forbids commentary and requires
// every separator token be preserved verbatim in place.
func BuildPrompt(segments []subtitle.Segment, sourceLang, targetLang string) string {
	source := language.DisplayName(sourceLang)
	if language.IsAuto(sourceLang) || strings.TrimSpace(sourceLang) == "" {
		source = "the source language"
	}
	target := language.DisplayName(targetLang)

	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following %s text to %s.\n", source, target)
	fmt.Fprintf(&b, "The text consists of segments separated by the token %q.\n", Separator)
	b.WriteString("Keep every separator token exactly as-is and in its original position, so the output contains the same number of segments in the same order.\n")
	b.WriteString("Do not translate, remove, or alter the separator token. Do not add commentary, preambles, numbering, or quotation marks. Only return the translated text.\n\n")
	b.WriteString(strings.Join(subtitle.Texts(segments), Separator))
	return b.String()
}
