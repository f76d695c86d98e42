package main

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

//go:embed words/default.txt
var defaultWords string

// WordSource supplies the secret word for each round.
type WordSource struct {
	words []string
}

// newWordSource builds a source from the file at path, or from the
// embedded default list when path is empty. Blank lines and surrounding
// whitespace are ignored.
func newWordSource(path string) (*WordSource, error) {
	raw := defaultWords

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading word list: %w", err)
		}
		raw = string(data)
	}

	words := make([]string, 0, 32)
	for _, line := range strings.Split(raw, "\n") {
		word := strings.TrimSpace(line)
		if word == "" {
			continue
		}
		words = append(words, word)
	}

	if len(words) == 0 {
		return nil, errors.New("word list is empty")
	}

	return &WordSource{words: words}, nil
}

// Draw returns one word chosen uniformly at random.
func (ws *WordSource) Draw(rng *rand.Rand) string {
	return ws.words[rng.Intn(len(ws.words))]
}
