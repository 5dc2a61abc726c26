package model

// MergePending folds pending offline results into history. A pending result
// supersedes a historical entry when both started at the same instant and the
// historical entry is itself offline; otherwise it is appended. Matching is
// done against the original history only, so every pending result lands
// exactly once.
func MergePending(history []SessionResult, pending []PendingSyncResult) []SessionResult {
	merged := make([]SessionResult, 0, len(history)+len(pending))
	merged = append(merged, history...)

	offlineByStart := make(map[int64][]int)
	for i, r := range history {
		if r.Offline() {
			k := r.Session.StartTime.UnixMilli()
			offlineByStart[k] = append(offlineByStart[k], i)
		}
	}

	drop := make(map[int]bool)
	for _, p := range pending {
		k := p.Result.Session.StartTime.UnixMilli()
		idx := offlineByStart[k]
		if len(idx) == 0 {
			merged = append(merged, p.Result)
			continue
		}
		merged[idx[0]] = p.Result
		for _, extra := range idx[1:] {
			drop[extra] = true
		}
		delete(offlineByStart, k)
	}

	if len(drop) == 0 {
		return merged
	}
	out := merged[:0]
	for i, r := range merged {
		if !drop[i] {
			out = append(out, r)
		}
	}
	return out
}
