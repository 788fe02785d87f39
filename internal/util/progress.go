package util

import "fmt"

// FormatProgress renders a done/total pair as "done/total (pct%)" for log
// lines. A zero total renders as "0/0 (100%)".
func FormatProgress(done, total int) string {
	return fmt.Sprintf("%d/%d (%d%%)", done, total, ProgressPercentage(done, total))
}

// ProgressPercentage returns the integer completion percentage, clamped to
// [0, 100].
func ProgressPercentage(done, total int) int {
	if total <= 0 {
		return 100
	}
	pct := done * 100 / total
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
