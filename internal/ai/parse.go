package ai

import "strings"

// ParseAnalysis extracts the summary and action items from a model response
// formatted per BuildAnalysisPrompt.
//
// The scanner walks the response line by line and tracks which section it is
// in: a line containing SUMMARY (any case) switches to the summary section, a
// line containing ACTION switches to the action section. Bullet lines
// (starting with "•", "-", or "*") are collected into the current section.
// Summary bullets keep their bullet markers and are joined with newlines;
// action items are stripped of markers, and empty items are dropped.
//
// If no summary section could be extracted, the whole response is used as
// the summary so a malformed model reply still produces something useful.
func ParseAnalysis(response string) (summary string, actionItems []string) {
	var summaryLines []string
	actionItems = []string{}

	section := ""
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)

		upper := strings.ToUpper(line)
		if strings.Contains(upper, "SUMMARY") {
			section = "summary"
			continue
		}
		if strings.Contains(upper, "ACTION") {
			section = "action"
			continue
		}

		if !isBullet(line) {
			continue
		}

		switch section {
		case "summary":
			summaryLines = append(summaryLines, line)
		case "action":
			item := strings.TrimSpace(strings.TrimLeft(line, "•-* "))
			if item != "" {
				actionItems = append(actionItems, item)
			}
		}
	}

	summary = strings.Join(summaryLines, "\n")
	if summary == "" {
		summary = strings.TrimSpace(response)
	}

	return summary, actionItems
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "•") ||
		strings.HasPrefix(line, "-") ||
		strings.HasPrefix(line, "*")
}
