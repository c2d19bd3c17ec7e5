// Package config loads and validates whisperbatch configuration.
//
// Settings live in a nested tree read from YAML or TOML. Callers read them
// either through the dotted Get helpers, which never fail and fall back to a
// supplied default, or through the typed accessors that carry the
// repository defaults (device cuda/float16, model large-v2, language pt,
// formats json/txt/srt, and so on). Command-line flags are folded in with
// ApplyOverrides before Validate runs.
//
// The Hugging Face credential for diarization comes from HF_TOKEN or
// HUGGING_FACE_HUB_TOKEN, optionally supplied through a .env file.
package config
