package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ayusman/repcount/internal/pose"
)

// Pump feeds samples from src into s until the source is exhausted or ctx is
// canceled. It returns the number of samples processed. Reaching the end of
// the source is not an error.
func Pump(ctx context.Context, src pose.Source, s *Session) (int, error) {
	n := 0
	for {
		sample, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read sample %d: %w", n+1, err)
		}
		s.Process(sample)
		n++
	}
}
