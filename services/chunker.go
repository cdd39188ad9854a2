package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"rag-platform/models"
)

// Chunker splits long text into retrievable passages. Each chunk is an
// exact substring of the source and every non-first chunk starts overlap
// bytes before the previous chunk's end, nudged forward when that byte
// falls inside a multibyte rune. The Start and End offsets make the
// source reconstructable byte-for-byte from the chunks.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. Overlap must be smaller than the chunk
// size.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap (%d) must be in [0, size), size=%d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split produces the document's chunks in order. Splitting prefers
// paragraph boundaries, then sentence ends, then whitespace, falling back
// to a hard cut at the size limit. Chunks that are blank after trimming
// are dropped.
func (c *Chunker) Split(doc models.Document) []models.Chunk {
	text := doc.Text
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []models.Chunk
	start, order := 0, 0
	for start < len(text) {
		end := len(text)
		if start+c.size < len(text) {
			end = c.cutPoint(text, start)
		}

		piece := text[start:end]
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, models.Chunk{
				ChunkID:  uuid.NewString(),
				Text:     piece,
				Order:    order,
				Start:    start,
				End:      end,
				Metadata: doc.Metadata,
			})
			order++
		}

		if end == len(text) {
			break
		}
		start = end - c.overlap
		for start < end && !utf8.RuneStart(text[start]) {
			start++
		}
	}
	return chunks
}

// cutPoint picks where the chunk starting at start should end. Natural
// boundaries are only taken from the back half of the window so chunks
// never collapse below half the target size; the floor also guarantees
// the next start always advances past the current one.
func (c *Chunker) cutPoint(text string, start int) int {
	hardEnd := start + c.size
	window := text[start:hardEnd]

	floor := c.size / 2
	if floor <= c.overlap {
		floor = c.overlap + 1
	}

	if i := strings.LastIndex(window, "\n\n"); i >= floor {
		return start + i + 2
	}
	if i := lastSentenceEnd(window); i >= floor {
		return start + i
	}
	if i := strings.LastIndexAny(window, " \t\n"); i >= floor {
		return start + i + 1
	}

	// Hard cut, backed up so a multibyte rune is never split. When
	// backing up would stall the split (overlap within a rune's width of
	// the size), the cut moves forward past the rune instead; progress
	// wins over the size cap in that degenerate configuration.
	cut := hardEnd
	for cut > start && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut <= start+c.overlap {
		cut = hardEnd
		for cut < len(text) && !utf8.RuneStart(text[cut]) {
			cut++
		}
	}
	return cut
}

// lastSentenceEnd returns the offset just past the final
// sentence-terminator-plus-space in the window, or -1.
func lastSentenceEnd(window string) int {
	for i := len(window) - 2; i > 0; i-- {
		switch window[i] {
		case '.', '!', '?':
			next := window[i+1]
			if next == ' ' || next == '\n' || next == '\t' {
				return i + 2
			}
		}
	}
	return -1
}

// FilterShort drops chunks whose trimmed text is shorter than minChars.
// Callers that need exact source reconstruction skip this filter.
func FilterShort(chunks []models.Chunk, minChars int) []models.Chunk {
	if minChars <= 0 {
		return chunks
	}
	kept := make([]models.Chunk, 0, len(chunks))
	for _, ch := range chunks {
		if len(strings.TrimSpace(ch.Text)) >= minChars {
			kept = append(kept, ch)
		}
	}
	return kept
}
