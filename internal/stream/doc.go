// Package stream drives a live, unbounded sequence of inline audio chunks
// from a speech producer into saved audio segments and a final playable
// artifact. It persists segments in strict arrival order, converts raw PCM
// chunks to WAV containers, and merges same-format WAV segments when the
// stream ends.
package stream
