package config

// Default returns the built-in configuration. Values are suitable for a
// single-user install; the sample config documents every field.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:    "~/subfuse/input",
			OutputDir:   "~/subfuse/output",
			SubtitleDir: "~/subfuse/subtitles",
			WorkDir:     "~/subfuse/work",
			LogDir:      "~/subfuse/logs",
			AttemptDir:  "~/subfuse/logs/attempts",
			APIBind:     "127.0.0.1:7878",
		},
		Whisper: Whisper{
			Binary: "whisper",
			Model:  "small",
		},
		FFmpeg: FFmpeg{
			Binary:        "ffmpeg",
			FFprobeBinary: "ffprobe",
			FontFile:      "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		},
		Gemini: Gemini{
			BaseURL:        "https://generativelanguage.googleapis.com",
			Model:          "gemini-2.5-flash",
			TimeoutSeconds: 60,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
