// Package audio loads recordings into mono in-memory signals.
//
// WAV files are decoded with beep. Other containers (FLAC, MP3, Ogg, M4A)
// are inspected with ffprobe and converted to 16-bit mono WAV with ffmpeg
// before decoding. Sound.Extract returns the part of a signal covered by an
// annotation interval without copying samples.
package audio
