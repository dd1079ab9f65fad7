package storage

import (
	"ouvidoria/backend/internal/models"
	"sort"
)

// newestFirst returns a copy of records ordered by CreatedAt descending. Ties
// keep the most recently appended record first.
func newestFirst(records []models.Complaint) []models.Complaint {
	out := make([]models.Complaint, len(records))
	for i := range records {
		out[len(records)-1-i] = records[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func filter(records []models.Complaint, keep func(*models.Complaint) bool) []models.Complaint {
	out := make([]models.Complaint, 0)
	for i := range records {
		if keep(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

func indexOf(records []models.Complaint, protocol string) int {
	for i := range records {
		if records[i].Protocol == protocol {
			return i
		}
	}
	return -1
}
