// Package files discovers input audio files and derives the deterministic
// output paths the exporters write to.
//
// Discovery is non-recursive and ordered by path. Output names are the input
// stem plus "_transcricao", so two inputs that share a stem (talk.mp3 and
// talk.wav) write to the same outputs and the later one wins.
package files
