//go:build tesseract

// Package tesseract registers a local OCR engine backed by libtesseract.
// It is compiled only with -tags tesseract because gosseract needs cgo and
// the tesseract/leptonica headers.
package tesseract

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/daryltucker/ocr-runner/internal/config"
	"github.com/daryltucker/ocr-runner/internal/model"
	"github.com/daryltucker/ocr-runner/internal/recognition"
)

func init() {
	recognition.Register("tesseract", func(cfg *config.Config) (recognition.Recognizer, error) {
		return NewEngine(cfg.Languages), nil
	})
}

// Engine implements recognition.Recognizer with one gosseract client per call.
type Engine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewEngine constructs a Tesseract-backed engine.
func NewEngine(languages []string) *Engine {
	return &Engine{languages: languages, clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs OCR on the payload. The context is only checked up front;
// libtesseract calls cannot be interrupted.
func (e *Engine) Recognize(ctx context.Context, filename string, p model.Payload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &model.RecognitionError{Filename: filename, Err: err}
	}

	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return "", &model.RecognitionError{Filename: filename, Err: fmt.Errorf("decode payload: %w", err)}
	}

	c := e.clientFactory()
	defer c.Close()

	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", &model.RecognitionError{Filename: filename, Err: fmt.Errorf("set languages: %w", err)}
		}
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return "", &model.RecognitionError{Filename: filename, Err: fmt.Errorf("set image: %w", err)}
	}
	text, err := c.Text()
	if err != nil {
		return "", &model.RecognitionError{Filename: filename, Err: fmt.Errorf("recognize text: %w", err)}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &model.RecognitionError{Filename: filename, Err: recognition.ErrNoText}
	}
	return recognition.Clean(text), nil
}
