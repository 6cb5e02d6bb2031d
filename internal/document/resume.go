// Package document turns uploaded resumes and job postings into plain text.
package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// minPDFTextLength is the shortest pdftotext output treated as a real extraction.
const minPDFTextLength = 20

// ErrUnsupportedFormat is returned for resume files that are neither PDF nor plain text.
var ErrUnsupportedFormat = errors.New("unsupported resume format")

// pdfToText runs poppler's pdftotext; replaced in tests.
var pdfToText = func(ctx context.Context, path string) ([]byte, error) {
	return exec.CommandContext(ctx, "pdftotext", "-layout", path, "-").Output()
}

// ResumeText returns the text of a resume file. PDF extraction is best effort:
// when pdftotext fails or yields nothing usable, the failure is logged and an
// empty string is returned so the analysis reports insufficient data instead
// of aborting.
func ResumeText(ctx context.Context, path string, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("resume path is required")
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("resume file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md", ".text":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read resume: %w", err)
		}
		return string(data), nil
	case ".pdf":
		out, err := pdfToText(ctx, path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			logger.Warn("pdf extraction failed, continuing with empty resume text",
				zap.String("path", path),
				zap.String("hint", "install poppler-utils to get pdftotext"),
				zap.Error(err),
			)
			return "", nil
		}

		text := strings.TrimSpace(string(out))
		if len(text) < minPDFTextLength {
			logger.Warn("pdf extraction produced almost no text",
				zap.String("path", path),
				zap.Int("length", len(text)),
			)
			return "", nil
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
