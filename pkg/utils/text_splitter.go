package utils

import "strings"

// LengthFunc measures a piece of text. Chunk sizes and overlaps are
// expressed in whatever unit this function returns (tokens, usually).
type LengthFunc func(text string) int

const (
	DefaultChunkSize    = 256
	DefaultChunkOverlap = 25
)

// defaultSeparators are tried in order: paragraph, line, word, character.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// TextSplitter splits long text into chunks of at most ChunkSize units,
// preferring natural boundaries and carrying Overlap units of trailing
// context into the next chunk.
type TextSplitter struct {
	ChunkSize int
	Overlap   int
	Length    LengthFunc
}

// NewTextSplitter builds a splitter. A nil length function falls back to
// counting runes, which is only suitable for tests.
func NewTextSplitter(chunkSize, overlap int, length LengthFunc) *TextSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}
	if length == nil {
		length = func(text string) int { return len([]rune(text)) }
	}
	return &TextSplitter{ChunkSize: chunkSize, Overlap: overlap, Length: length}
}

// Split breaks text into chunks. Chunks never exceed ChunkSize except when
// a single indivisible fragment is itself oversized at the character level.
func (s *TextSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if s.Length(text) <= s.ChunkSize {
		return []string{text}
	}
	fragments := s.fragment(text, defaultSeparators)
	return s.merge(fragments)
}

// fragment recursively breaks text along the separator hierarchy until
// every fragment fits within ChunkSize.
func (s *TextSplitter) fragment(text string, separators []string) []string {
	if s.Length(text) <= s.ChunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		return []string{text}
	}

	sep := separators[0]
	rest := separators[1:]

	var parts []string
	if sep == "" {
		// Character level: hard-cut by runes.
		runes := []rune(text)
		for i := 0; i < len(runes); i += s.ChunkSize {
			end := i + s.ChunkSize
			if end > len(runes) {
				end = len(runes)
			}
			parts = append(parts, string(runes[i:end]))
		}
		return parts
	}

	for _, piece := range strings.Split(text, sep) {
		if piece == "" {
			continue
		}
		if s.Length(piece) > s.ChunkSize {
			parts = append(parts, s.fragment(piece, rest)...)
		} else {
			parts = append(parts, piece)
		}
	}
	return parts
}

// merge greedily packs fragments into chunks and seeds each new chunk
// with up to Overlap units from the tail of the previous one. The
// running length counts the joint separators too, so a packed chunk
// stays within ChunkSize in the same units the fragments are measured.
func (s *TextSplitter) merge(fragments []string) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0
	newlineLen := s.Length("\n")

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		currentLen = 0
	}

	for _, frag := range fragments {
		fragLen := s.Length(frag)
		if currentLen > 0 && currentLen+newlineLen+fragLen > s.ChunkSize {
			tail := s.overlapTail(current.String())
			flush()
			if tail != "" {
				current.WriteString(tail + " ")
				currentLen = s.Length(tail + " ")
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n")
			currentLen += newlineLen
		}
		current.WriteString(frag)
		currentLen += fragLen
	}
	flush()

	return chunks
}

// overlapTail returns the trailing words of text worth at most Overlap units.
func (s *TextSplitter) overlapTail(text string) string {
	if s.Overlap <= 0 {
		return ""
	}
	words := strings.Fields(text)
	var tail []string
	total := 0
	for i := len(words) - 1; i >= 0; i-- {
		wordLen := s.Length(words[i])
		if total+wordLen > s.Overlap {
			break
		}
		tail = append([]string{words[i]}, tail...)
		total += wordLen
	}
	return strings.Join(tail, " ")
}
