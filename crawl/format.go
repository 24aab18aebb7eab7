package crawl

import "fmt"

// FormatEvent renders a progress event as one line of CLI output.
// Returns "" for events that have nothing to show.
func FormatEvent(event ProgressEvent) string {
	switch event.Type {
	case ProgressStarted:
		return fmt.Sprintf("crawling %s", event.URL)
	case ProgressSaved:
		return fmt.Sprintf("  [%d] saved %s", event.Saved, TruncateURL(event.URL, 80))
	case ProgressFailed:
		return fmt.Sprintf("  skip %s: %v", TruncateURL(event.URL, 80), event.Error)
	case ProgressFinished:
		return fmt.Sprintf("done: %d pages saved", event.Saved)
	default:
		return ""
	}
}

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatBytes formats bytes in human-readable form.
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
