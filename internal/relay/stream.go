package relay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const maxLineSize = 1024 * 1024

var dataPrefix = []byte("data:")

// geminiStream turns the upstream body into a sequence of text fragments.
// Parsing is best effort: a line that isn't valid JSON is logged and skipped.
type geminiStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	logger  *zap.Logger

	// pending holds fragments from the last parsed line not yet returned by Next.
	pending []string
	skipped int
}

func newGeminiStream(body io.ReadCloser, logger *zap.Logger) *geminiStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &geminiStream{
		body:    body,
		scanner: scanner,
		logger:  logger,
	}
}

// Next returns the next text fragment, io.EOF once the upstream finished cleanly,
// or a *StreamError if reading failed.
func (s *geminiStream) Next() (string, error) {
	for len(s.pending) == 0 {
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return "", &StreamError{Err: err}
			}
			if s.skipped > 0 {
				s.logger.Debug("stream completed with skipped lines", zap.Int("skipped", s.skipped))
			}
			return "", io.EOF
		}
		s.pending = s.parseLine(s.scanner.Bytes())
	}

	text := s.pending[0]
	s.pending = s.pending[1:]
	return text, nil
}

// Close releases the upstream connection.
func (s *geminiStream) Close() error {
	return s.body.Close()
}

// parseLine extracts the text parts from one line. Blank and malformed lines yield nothing.
func (s *geminiStream) parseLine(line []byte) []string {
	line = bytes.TrimSpace(line)
	if rest, ok := bytes.CutPrefix(line, dataPrefix); ok {
		line = bytes.TrimSpace(rest)
	}
	if len(line) == 0 {
		return nil
	}

	var chunk genai.GenerateContentResponse
	if err := json.Unmarshal(line, &chunk); err != nil {
		s.skipped++
		s.logger.Debug("skipping malformed stream line", zap.Error(err))
		return nil
	}
	return candidateTexts(&chunk)
}

// candidateTexts returns every non-empty text part of the first candidate.
func candidateTexts(chunk *genai.GenerateContentResponse) []string {
	if len(chunk.Candidates) == 0 || chunk.Candidates[0] == nil || chunk.Candidates[0].Content == nil {
		return nil
	}

	var texts []string
	for _, part := range chunk.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return texts
}
