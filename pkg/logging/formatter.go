/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Narrative log formatter for HackBench. Renders walkthrough messages as
plain prose (no level prefixes or timestamps) so the narrative file reads as a
document, with optional console colors for success/failure markers.
*/

package logging

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// NarrativeFormatter renders entries as bare messages. The narrative stream
// is a learning artifact, not a technical log, so levels and timestamps are
// deliberately omitted.
type NarrativeFormatter struct {
	Colors bool
}

// Format formats a narrative entry.
func (f *NarrativeFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	msg := entry.Message

	if f.Colors {
		switch {
		case strings.HasPrefix(strings.TrimLeft(msg, "\n"), "[+]"):
			msg = colorize(msg, 32) // green
		case strings.HasPrefix(strings.TrimLeft(msg, "\n"), "[-]"):
			msg = colorize(msg, 31) // red
		case strings.HasPrefix(strings.TrimLeft(msg, "\n"), "[Step"):
			msg = colorize(msg, 36) // cyan
		}
	}

	return []byte(msg + "\n"), nil
}

func colorize(msg string, code int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", code, msg)
}
