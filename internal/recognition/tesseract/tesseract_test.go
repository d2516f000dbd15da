//go:build tesseract

package tesseract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/ocr-runner/internal/config"
	"github.com/daryltucker/ocr-runner/internal/model"
	"github.com/daryltucker/ocr-runner/internal/recognition"
)

func TestRegistered(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine = "tesseract"

	rec, err := recognition.New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "tesseract", rec.Name())
	assert.Contains(t, recognition.Engines(), "tesseract")
}

func TestRecognize_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine([]string{"eng"}).Recognize(ctx, "a.png", model.Payload{})
	var re *model.RecognitionError
	require.True(t, errors.As(err, &re))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecognize_BadPayload(t *testing.T) {
	_, err := NewEngine(nil).Recognize(context.Background(), "a.png", model.Payload{Data: "%%%"})
	assert.ErrorContains(t, err, "decode payload")
}
