// Package extractor turns a receipt photo into a draft expense: image
// downscale, one vision-model call, tolerant JSON recovery, and field
// normalization. It never writes to the store and collapses every
// failure into core.ErrExtraction so callers have a single error to
// show inline.
package extractor

import (
	"context"
	"fmt"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
)

// VisionModel is the one-method port to the external model. The
// production implementation calls Gemini; tests inject a fake.
type VisionModel interface {
	// Describe sends the prompt and image and returns the model's raw
	// text response.
	Describe(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error)
}

// Extractor runs the receipt pipeline against a VisionModel.
type Extractor struct {
	model   VisionModel
	timeout time.Duration
	logger  *log.Logger
	now     func() time.Time
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithTimeout bounds each model call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		e.timeout = d
	}
}

// WithClock overrides the clock used for the date fallback.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// New creates an Extractor over the given model.
func New(model VisionModel, logger *log.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		model:   model,
		timeout: 15 * time.Second,
		logger:  logger.WithComponent(log.ComponentExtractor),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the full pipeline: downscale the image, ask the model
// for the four receipt fields, recover the JSON object from its reply,
// and normalize. The returned draft is ready for the entry form.
func (e *Extractor) Extract(ctx context.Context, imageData []byte, mimeType string) (core.Draft, error) {
	start := time.Now()

	prepared, preparedMIME, err := prepareImage(imageData, mimeType)
	if err != nil {
		return core.Draft{}, fmt.Errorf("%w: %w", core.ErrExtraction, err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	raw, err := e.model.Describe(ctx, BuildPrompt(core.Categories()), prepared, preparedMIME)
	if err != nil {
		e.logger.ErrorContext(ctx, "Model call failed",
			log.FieldOperation, log.OpExtract,
			log.FieldError, err)
		return core.Draft{}, fmt.Errorf("%w: model call: %w", core.ErrExtraction, err)
	}

	fields, err := parseModelResponse(raw)
	if err != nil {
		e.logger.WarnContext(ctx, "Model response unusable",
			log.FieldOperation, log.OpExtract,
			log.FieldError, err)
		return core.Draft{}, fmt.Errorf("%w: %w", core.ErrExtraction, err)
	}

	draft, err := normalize(fields, e.now())
	if err != nil {
		e.logger.WarnContext(ctx, "Extracted fields unusable",
			log.FieldOperation, log.OpExtract,
			log.FieldError, err)
		return core.Draft{}, fmt.Errorf("%w: %w", core.ErrExtraction, err)
	}

	e.logger.InfoContext(ctx, "Receipt extracted",
		log.FieldOperation, log.OpExtract,
		log.FieldCategory, draft.Category,
		log.FieldAmountYen, draft.Amount.Yen,
		log.FieldDuration, time.Since(start).Milliseconds())
	return draft, nil
}

// normalize applies the field policies: date falls back to today on
// any parse failure, category coerces to the fallback, a missing item
// becomes empty, and a bad amount fails the whole extraction.
func normalize(fields receiptFields, now time.Time) (core.Draft, error) {
	date, err := core.ParseDate(fields.Date)
	if err != nil {
		date = core.DateOf(now)
	}

	if fields.Amount == nil {
		return core.Draft{}, fmt.Errorf("amount: %w", core.ErrInvalidAmount)
	}
	yen := int64(*fields.Amount)
	if yen < 0 {
		return core.Draft{}, fmt.Errorf("amount: %w", core.ErrNegativeAmount)
	}

	return core.Draft{
		Date:     date,
		Amount:   core.Money{Yen: yen},
		Item:     fields.Item,
		Category: core.NormalizeCategory(fields.Category),
	}, nil
}
