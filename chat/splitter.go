package chat

import (
	"strings"
	"unicode/utf8"
)

// Splitter breaks source text into overlapping passages for indexing.
// It prefers paragraph boundaries, then line and word boundaries, and
// only hard-cuts text that has no separators at all.
type Splitter struct {
	chunkSize int // target passage size in bytes
	overlap   int // bytes carried over between consecutive passages
}

// NewSplitter returns a Splitter. Zero values get the defaults the corpus
// was originally indexed with (1024/100).
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 100
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

var separators = []string{"\n\n", "\n", " "}

// Split returns the passages of text, each around chunkSize bytes, with
// consecutive passages overlapping by roughly the configured amount.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= s.chunkSize {
		return []string{text}
	}
	return s.merge(s.units(text, separators))
}

// units recursively breaks text into pieces no larger than chunkSize,
// trying coarser separators first.
func (s *Splitter) units(text string, seps []string) []string {
	if len(text) <= s.chunkSize {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	if len(seps) == 0 {
		return s.hardCut(text)
	}
	if !strings.Contains(text, seps[0]) {
		return s.units(text, seps[1:])
	}

	var out []string
	for _, part := range strings.SplitAfter(text, seps[0]) {
		if part == "" {
			continue
		}
		if len(part) > s.chunkSize {
			out = append(out, s.units(part, seps[1:])...)
		} else {
			out = append(out, part)
		}
	}
	return out
}

// merge greedily packs units into passages, seeding each new passage with
// the tail of the previous one.
func (s *Splitter) merge(units []string) []string {
	var chunks []string
	var cur strings.Builder

	flush := func() string {
		chunk := strings.TrimSpace(cur.String())
		cur.Reset()
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		return chunk
	}

	for _, u := range units {
		if cur.Len() > 0 && cur.Len()+len(u) > s.chunkSize {
			prev := flush()
			if s.overlap > 0 && prev != "" {
				cur.WriteString(tail(prev, s.overlap))
				cur.WriteString(" ")
			}
		}
		cur.WriteString(u)
	}
	flush()
	return chunks
}

// hardCut splits separator-free text into windows of chunkSize, stepping
// back by overlap. Cuts fall on rune boundaries.
func (s *Splitter) hardCut(text string) []string {
	runes := []rune(text)
	step := s.chunkSize - s.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// tail returns the last n bytes of text, advanced to the next word
// boundary so the overlap never starts mid-word.
func tail(text string, n int) string {
	if len(text) <= n {
		return text
	}
	t := text[len(text)-n:]
	for len(t) > 0 && !utf8.RuneStart(t[0]) {
		t = t[1:]
	}
	if cut := strings.IndexByte(t, ' '); cut >= 0 {
		t = t[cut+1:]
	}
	return strings.TrimSpace(t)
}
