package traverse

import "strings"

const (
	// overlapCheckSize is how much of the existing tail we look for in
	// newly extracted content when stitching load-more snapshots.
	overlapCheckSize = 100

	// maxChunkSize caps the text handed to the analyzer in one call.
	maxChunkSize = 150000
)

// AppendNonOverlapping stitches a fresh page snapshot onto previously
// accumulated text. Load-more pages usually re-render everything, so the
// tail of the existing text is searched for inside the new snapshot and
// only what follows it is appended. When no overlap is found the new
// text is appended whole.
func AppendNonOverlapping(existing, newContent string) string {
	if existing == "" {
		return newContent
	}
	if newContent == "" {
		return existing
	}
	segment := existing
	if len(existing) > overlapCheckSize {
		segment = existing[len(existing)-overlapCheckSize:]
	}
	if pos := strings.Index(newContent, segment); pos >= 0 {
		return existing + newContent[pos+len(segment):]
	}
	return existing + "\n\n" + newContent
}

// SplitIntoChunks slices text into pieces of at most maxChunkSize
// characters, breaking just after the last newline inside each window so
// lines stay whole where possible.
func SplitIntoChunks(text string) []string {
	if len(text) <= maxChunkSize {
		return []string{text}
	}
	var chunks []string
	start := 0
	for start < len(text) {
		end := start + maxChunkSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		if nl := strings.LastIndex(text[start:end], "\n"); nl > 0 {
			end = start + nl + 1
		}
		chunks = append(chunks, text[start:end])
		start = end
	}
	return chunks
}
