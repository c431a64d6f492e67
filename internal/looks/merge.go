package looks

import (
	"sort"

	"nail-preview-backend/internal/models"
)

// Merge reconciles the remote canonical list with the local cache by id.
//
// For an id present in both, remote fields win but local-only fields (cached
// file paths) are retained when the remote entry lacks them. Entries present
// only locally (still pending or failed) are kept; entries present only
// remotely are appended. The result is sorted pending/error first, then by
// descending creation time, so repeated reconciliation with the same inputs
// is a fixed point: Merge(Merge(r, l), l) == Merge(r, l).
func Merge(remote, local []models.SavedLook) []models.SavedLook {
	localByID := make(map[string]models.SavedLook, len(local))
	for _, entry := range local {
		localByID[entry.ID] = entry
	}

	merged := make([]models.SavedLook, 0, len(remote)+len(local))
	seen := make(map[string]bool, len(remote))

	for _, entry := range remote {
		if cached, ok := localByID[entry.ID]; ok {
			entry = carryLocalFields(entry, cached)
		}
		merged = append(merged, entry)
		seen[entry.ID] = true
	}

	for _, entry := range local {
		if !seen[entry.ID] {
			merged = append(merged, entry)
		}
	}

	SortLooks(merged)
	return merged
}

// carryLocalFields keeps locally cached file paths on a remote entry that
// does not have them.
func carryLocalFields(remote, local models.SavedLook) models.SavedLook {
	if remote.LocalOriginalPath == "" {
		remote.LocalOriginalPath = local.LocalOriginalPath
	}
	if remote.LocalTransformedPath == "" {
		remote.LocalTransformedPath = local.LocalTransformedPath
	}
	return remote
}

// SortLooks orders a list in place: pending and error entries first, then
// newest first. Ties break on id so the ordering is deterministic.
func SortLooks(list []models.SavedLook) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Pending() != b.Pending() {
			return a.Pending()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
