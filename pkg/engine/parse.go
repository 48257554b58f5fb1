package engine

import (
	"regexp"
	"strings"
	"time"
)

var (
	// Speaker labels: "S:", "R:", "발신:", "수신:", "sender:", "me:".
	reSpeakerLabel = regexp.MustCompile(`^\s*(S|R|U|발신|수신|상대|나|sender|receiver|me|them)\s*[:：]\s*`)

	// Leading bracketed timestamp: "[2024-03-01 13:22] ...".
	reLeadingStamp = regexp.MustCompile(`^\s*\[([^\]]{4,32})\]\s*`)
)

// timestamp layouts tried in order; anything unparseable is skipped.
var stampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04",
	"2006/01/02",
	"01-02 15:04",
	time.RFC3339,
}

// ParseThread splits raw thread text into turns. One line per turn;
// blank lines are dropped. Unparseable timestamps and labels degrade
// to absent, never to an error.
func ParseThread(text string) []Turn {
	lines := strings.Split(text, "\n")
	turns := make([]Turn, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		t := Turn{Index: len(turns), Role: RoleUnknown, Hint: HintNeutral}

		if m := reLeadingStamp.FindStringSubmatch(line); m != nil {
			if ts, ok := parseStamp(m[1]); ok {
				t.Timestamp = &ts
			}
			line = line[len(m[0]):]
		}

		if m := reSpeakerLabel.FindStringSubmatch(line); m != nil {
			t.Speaker = m[1]
			t.Role = speakerRole(m[1])
			line = line[len(m[0]):]
		}

		t.Raw = strings.TrimSpace(line)
		if t.Raw == "" {
			continue
		}
		turns = append(turns, t)
	}
	// Re-index after dropped lines.
	for i := range turns {
		turns[i].Index = i
	}
	return turns
}

func speakerRole(label string) Role {
	switch strings.ToLower(label) {
	case "s", "발신", "상대", "sender", "them":
		return RoleSender
	case "r", "수신", "나", "receiver", "me":
		return RoleReceiver
	default:
		return RoleUnknown
	}
}

func parseStamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range stampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
