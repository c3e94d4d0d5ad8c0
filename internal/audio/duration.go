// Package audio provides lightweight inspection of uploaded audio files.
package audio

import (
	"encoding/binary"
)

// ProbeDurationSeconds estimates the duration of an audio file from its
// header without decoding the stream. Returns 0 when the format is not
// recognized or the header is incomplete; callers fall back to the
// transcription provider's reported duration in that case.
func ProbeDurationSeconds(data []byte) int {
	if sec := probeWAV(data); sec > 0 {
		return sec
	}
	return 0
}

// probeWAV reads the fmt and data chunks of a RIFF/WAVE file. Duration
// is data size divided by byte rate, rounded to the nearest second.
func probeWAV(data []byte) int {
	if len(data) < 12 {
		return 0
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0
	}

	var byteRate uint32
	var dataSize uint32

	// Walk chunks after the RIFF header
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if body+16 > len(data) {
				return 0
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
		case "data":
			dataSize = chunkSize
			// The data chunk may be truncated on a partial upload
			remaining := len(data) - body
			if remaining >= 0 && uint32(remaining) < dataSize {
				dataSize = uint32(remaining)
			}
		}

		if byteRate > 0 && dataSize > 0 {
			break
		}

		// Chunks are word-aligned
		offset = body + int(chunkSize)
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if byteRate == 0 || dataSize == 0 {
		return 0
	}

	seconds := (float64(dataSize) / float64(byteRate))
	return int(seconds + 0.5)
}
