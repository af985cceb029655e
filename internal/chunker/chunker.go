package chunker

// Splitter cuts text into pieces of at most ChunkSize characters,
// preferring to cut at the highest-priority separator available inside the
// window. Consecutive chunks share exactly ChunkOverlap trailing
// characters of the previous chunk, so content spanning a cut remains
// retrievable from at least one chunk.
//
// Split is a pure function of (text, size, overlap, separators): same
// input, same output, no side effects.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// DefaultSeparators is the boundary priority list: paragraph breaks, then
// line breaks, then spaces, then a raw character cut.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

func New(size, overlap int) *Splitter {
	return &Splitter{
		ChunkSize:    size,
		ChunkOverlap: overlap,
		Separators:   DefaultSeparators,
	}
}

// Split returns the chunks of text in order. Text no longer than
// ChunkSize yields exactly one chunk with no overlap applied. Empty text
// yields no chunks.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= s.ChunkSize {
		return []string{text}
	}
	separators := s.Separators
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		cut := s.findCut(runes, start, end, separators)
		chunks = append(chunks, string(runes[start:cut]))
		start = cut - s.ChunkOverlap
	}
	return chunks
}

// findCut picks the cut position in (start+overlap, end], scanning each
// separator priority in turn for the rightmost occurrence. The lower bound
// keeps the window advancing past the overlap region.
func (s *Splitter) findCut(runes []rune, start, end int, separators []string) int {
	min := start + s.ChunkOverlap + 1
	if min > end {
		return end
	}
	for _, sep := range separators {
		if sep == "" {
			return end
		}
		sepRunes := []rune(sep)
		for pos := end; pos >= min; pos-- {
			if pos-len(sepRunes) < start {
				break
			}
			if runesEqual(runes[pos-len(sepRunes):pos], sepRunes) {
				return pos
			}
		}
	}
	return end
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
