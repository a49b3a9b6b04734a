package webhook

import (
	"regexp"
	"strings"
)

var noteKVRe = regexp.MustCompile(`(?:^|[\s,;|])([a-zA-Z0-9_]+)=([a-zA-Z0-9_.:-]+)`)

// ParseKeyFromNote extracts a key=value token from an order note. Keys match
// case-insensitively; staff may have appended free text around the token.
//
// Example note:
//
//	"Created by Scan & Go (scan-and-go) | deviceId=pixel-7"
func ParseKeyFromNote(note string, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	for _, m := range noteKVRe.FindAllStringSubmatch(note, -1) {
		if strings.EqualFold(m[1], key) {
			return m[2]
		}
	}
	return ""
}
