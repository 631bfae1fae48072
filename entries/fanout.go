package entries

import (
	"github.com/sproutcare/daylog/authentication"
	"github.com/sproutcare/daylog/shared"
	"github.com/sproutcare/daylog/store"
)

// fanOut expands one validated submission into one entry per distinct
// target child. All entries share the submission's fields; only childId
// differs. The entries are independent for persistence purposes.
func fanOut(norm normalizedSubmission, targets []string, identity authentication.Identity) []store.Entry {
	entries := []store.Entry{}
	seen := map[string]bool{}

	for _, childId := range targets {
		if seen[childId] {
			continue
		}
		seen[childId] = true

		entries = append(entries, store.Entry{
			DaycareId:        store.DbNullString(identity.DaycareId),
			LocationId:       store.DbNullString(identity.LocationId),
			ClassId:          store.DbNullString(norm.ClassId),
			ChildId:          store.DbNullString(childId),
			CreatedByUserId:  store.DbNullString(identity.UserId),
			CreatedByRole:    store.DbNullString(shared.ROLE_TEACHER),
			EntryType:        store.DbNullString(norm.EntryType),
			Subtype:          store.DbNullString(norm.Subtype),
			ToiletKind:       store.DbNullString(norm.ToiletKind),
			Detail:           store.DbNullString(norm.Detail),
			PhotoUrl:         store.DbNullString(norm.PhotoUrl),
			OccurredAt:       norm.OccurredAt,
			VisibleToParents: norm.VisibleToParents,
		})
	}

	return entries
}
