package embedding

import "strings"

// ChunkConfig bounds chunk size in runes, mirroring the sliding-window
// splitter most embedding pipelines in the pack use ahead of a token-budget
// model call.
type ChunkConfig struct {
	MaxChars int
	OverlapPct float64
}

// DefaultChunkConfig matches the window size used for markdown notes.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{MaxChars: 1000, OverlapPct: 0.15}
}

// ChunkMarkdown splits markdown text into overlapping chunks on paragraph
// boundaries where possible, falling back to a hard rune cut when a single
// paragraph exceeds MaxChars. Returns nil for blank input.
func ChunkMarkdown(text string, cfg ChunkConfig) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	overlap := int(float64(cfg.MaxChars) * cfg.OverlapPct)

	paragraphs := splitParagraphs(text)
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, strings.TrimSpace(current.String()))
		current.Reset()
	}

	for _, p := range paragraphs {
		if len([]rune(p)) > cfg.MaxChars {
			flush()
			chunks = append(chunks, hardSplit(p, cfg.MaxChars, overlap)...)
			continue
		}
		if current.Len() > 0 && len([]rune(current.String()))+len([]rune(p)) > cfg.MaxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()

	return withOverlap(chunks, overlap)
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hardSplit(text string, maxChars, overlap int) []string {
	runes := []rune(text)
	var out []string
	step := maxChars - overlap
	if step <= 0 {
		step = maxChars
	}
	for start := 0; start < len(runes); start += step {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// withOverlap prepends the tail of each chunk to the next one, so a
// similarity match near a boundary still has enough surrounding context.
func withOverlap(chunks []string, overlap int) []string {
	if overlap <= 0 || len(chunks) < 2 {
		return chunks
	}
	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		tailLen := overlap
		if tailLen > len(prev) {
			tailLen = len(prev)
		}
		tail := string(prev[len(prev)-tailLen:])
		out[i] = tail + "\n\n" + chunks[i]
	}
	return out
}
