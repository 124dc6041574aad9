// Package contact extracts contact channels from chat messages. A detected
// email or phone number is what triggers the conversation email relay.
package contact

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
)

// Info holds the contact channels found in a message.
type Info struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Empty reports whether no channel was detected.
func (i Info) Empty() bool { return i.Email == "" && i.Phone == "" }

// Detect scans a message for an email address and a phone number. The
// first match of each kind wins.
func Detect(message string) Info {
	info := Info{}
	if email := emailPattern.FindString(message); email != "" {
		info.Email = strings.ToLower(email)
	}
	if phone := phonePattern.FindString(message); phone != "" {
		if digits := countDigits(phone); digits >= 8 && digits <= 15 {
			info.Phone = strings.TrimSpace(phone)
		}
	}
	return info
}

func countDigits(s string) int {
	count := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}
