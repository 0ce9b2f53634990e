// Package chunker splits raw document text into bounded-size, word-aligned chunks.
package chunker

import "strings"

// DefaultChunkSize is the default chunk size threshold in characters.
const DefaultChunkSize = 500

// Split splits text into chunks of roughly chunkSize characters.
//
// Words are accumulated into a running buffer; once the running length
// (each word contributing len(word)+1 for its separator) reaches the
// threshold, the buffer is emitted as one chunk. A trailing partial
// buffer becomes the final chunk, so chunks shorter than the threshold
// are possible at the end. Empty input yields no chunks.
func Split(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var chunks []string
	var current []string
	size := 0

	for _, word := range strings.Fields(text) {
		current = append(current, word)
		size += len(word) + 1

		if size >= chunkSize {
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
			size = 0
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}
