// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties (codec, sample rate, channels)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// PrimaryAudio picks the audio stream that audio loading converts when a
// container holds more than one.
package ffprobe
