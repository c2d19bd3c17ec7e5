package config

import "time"

const (
	defaultDeviceType           = "cuda"
	defaultComputeType          = "float16"
	defaultBackend              = "whisperx"
	defaultModelSize            = "large-v2"
	defaultLanguage             = "pt"
	defaultBatchSize            = 16
	defaultInputDir             = "data/input"
	defaultOutputDir            = "data/output"
	defaultLogsDir              = "logs"
	defaultFFmpeg               = "ffmpeg"
	defaultWorkerStartupTimeout = 10 * time.Minute
	defaultJSONIndent           = 2
	defaultLogLevel             = "INFO"
	defaultLogFile              = "transcription.log"
	defaultLogFormat            = "console"
	defaultHistoryFile          = "history.db"
	defaultNtfyTimeout          = 10 * time.Second
)

var (
	defaultAudioExtensions = []string{".mp3", ".wav"}
	defaultOutputFormats   = []string{"json", "txt", "srt"}
	defaultWorkerCommand   = []string{"uv", "run", "--with", "whisperx", "python"}
)

const (
	BackendWhisperX = "whisperx"
	BackendOpenAI   = "openai"
)

var (
	validDevices   = []string{"cuda", "cpu", "auto"}
	validBackends  = []string{BackendWhisperX, BackendOpenAI}
	validLogLevels = []string{"DEBUG", "INFO", "WARNING", "WARN", "ERROR"}
	validFormats   = []string{"console", "json"}
	// ValidModelSizes lists the checkpoints the whisperx backend can load.
	ValidModelSizes = []string{"tiny", "base", "small", "medium", "large-v1", "large-v2", "large-v3", "large-v3-turbo"}
)
