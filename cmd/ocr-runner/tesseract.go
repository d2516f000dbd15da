//go:build tesseract

package main

// Registers the local tesseract engine; needs libtesseract at build time.
import _ "github.com/daryltucker/ocr-runner/internal/recognition/tesseract"
