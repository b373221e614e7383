package progress

import (
	"regexp"
	"strconv"

	"cryptocourse/internal/domain"
)

// completionPatterns are the phrases the tutor uses to close a lesson, tried in order.
var completionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)dia (\d+) concluído`),
	regexp.MustCompile(`(?i)completamos o dia (\d+)`),
	regexp.MustCompile(`(?i)finalizamos a aula (\d+)`),
	regexp.MustCompile(`(?i)aula (\d+) finalizada`),
}

// DetectCompletion returns the lesson day an assistant message announces as finished.
// A pattern whose day falls outside the course is ignored and the next one is tried.
func DetectCompletion(content string) (int, bool) {
	for _, pattern := range completionPatterns {
		match := pattern.FindStringSubmatch(content)
		if match == nil {
			continue
		}
		day, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if domain.ValidLessonDay(day) {
			return day, true
		}
	}
	return 0, false
}
