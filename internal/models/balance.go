package models

import "math"

// SessionBalance derives the remaining sessions for every purchasable
// duration from the raw paid/consumed base-session counters. Both counters
// mutate independently (payments via sale staff, usage via attendance
// marking), so callers must recompute this on every read rather than cache it.
func SessionBalance(basePaid70, baseUsed70 float64) map[int]int {
	remaining := math.Max(0, basePaid70-baseUsed70)

	balance := make(map[int]int, len(PurchasableDurations))
	for _, duration := range PurchasableDurations {
		balance[duration] = int(math.Floor(remaining * BaseSessionMinutes / float64(duration)))
	}
	return balance
}

// OfflineSessionBalance is the degenerate whole-session form used for offline
// students, who are billed per physical session regardless of minutes.
func OfflineSessionBalance(paid, used int) int {
	if remaining := paid - used; remaining > 0 {
		return remaining
	}
	return 0
}
