package extract

import (
	"regexp"
	"strings"
)

// Bounds on a free-text service name captured from a subject line.
const (
	minServiceNameLen = 3
	maxServiceNameLen = 49
)

// Subject-line templates for naming a service the directory does not
// know. Tried in order; group 1 captures the candidate name.
var subjectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:your\s+)?(\w+(?:\s+\w+)?)\s+(?:subscription|receipt|invoice|payment)`),
	regexp.MustCompile(`(?i)(?:receipt|invoice|payment)\s+(?:for|from)\s+(\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`(?i)(?:thank\s+you\s+for\s+(?:your\s+)?)?(\w+(?:\s+\w+)?)\s+(?:premium|pro|plus)`),
}

// IdentifyService names the subscription service behind an email. The
// known-services directory is consulted first; on a miss, the subject line
// is matched against the name-capture templates. Returns false when
// neither strategy yields a usable name.
func IdentifyService(fromAddr, subject, body string) (Service, bool) {
	if svc, ok := LookupService(fromAddr, subject, body); ok {
		return svc, true
	}

	for _, pattern := range subjectPatterns {
		match := pattern.FindStringSubmatch(subject)
		if len(match) < 2 {
			continue
		}
		name := strings.TrimSpace(match[1])
		if len(name) >= minServiceNameLen && len(name) <= maxServiceNameLen {
			return Service{Name: name}, true
		}
	}

	return Service{}, false
}
