package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
)

type messages struct {
	preparing  string
	recording  string
	processing string
	analyzing  string
	complete   string

	microphoneUnavailable string
	tooShort              string
	recordingFailed       string
	analysisFailed        string
	cancelled             string
	busy                  string
}

func indicatorMessagesFromEnv() messages {
	return indicatorMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "en") {
		return localeEnglish
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeEnglish:
		fallthrough
	default:
		return messages{
			preparing:  "Requesting microphone…",
			recording:  "Recording…",
			processing: "Processing audio…",
			analyzing:  "Analyzing (may take ~30 seconds)…",
			complete:   "Analysis complete",

			microphoneUnavailable: "Microphone unavailable",
			tooShort:              "Recording too short",
			recordingFailed:       "Recording failed",
			analysisFailed:        "Analysis failed",
			cancelled:             "Recording cancelled",
			busy:                  "Another recording is in progress",
		}
	}
}
