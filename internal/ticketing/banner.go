package ticketing

import (
	"fmt"
	"html"
	"strings"
)

// BannerAnchor marks the line holding the source-conversation banner.
const BannerAnchor = "Created from conversation"

// Banner renders the source-link line for a conversation. inboxURL may be empty.
func Banner(conversationID, inboxURL string) string {
	label := html.EscapeString("#" + conversationID)
	if inboxURL == "" {
		return fmt.Sprintf("<p>%s %s</p>", BannerAnchor, label)
	}
	link := fmt.Sprintf("%s/conversation/%s", strings.TrimRight(inboxURL, "/"), conversationID)
	return fmt.Sprintf(`<p>%s <a href="%s">%s</a></p>`, BannerAnchor, html.EscapeString(link), label)
}

// MergeBanner puts banner into description exactly once. The first banner line is
// replaced by banner and later banner lines are dropped; without one the banner is
// prepended. Only whole banner lines match, so text that merely mentions the anchor
// phrase is kept.
func MergeBanner(description, banner string) string {
	if banner == "" {
		return description
	}
	lines := strings.Split(description, "\n")
	out := make([]string, 0, len(lines)+1)
	found := false
	for _, line := range lines {
		if isBannerLine(line) {
			if !found {
				out = append(out, banner)
				found = true
			}
			continue
		}
		out = append(out, line)
	}
	if found {
		return strings.Join(out, "\n")
	}
	if strings.TrimSpace(description) == "" {
		return banner
	}
	return banner + "\n" + description
}

func isBannerLine(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, "<p>"+BannerAnchor+" ") && strings.HasSuffix(line, "</p>")
}
