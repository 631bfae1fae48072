package entries

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// normalizedSubmission is the validator's output: a submission whose
// shape has been checked against the type registry and whose fields are
// trimmed and parsed. It has not been fanned out yet.
type normalizedSubmission struct {
	EntryType         string
	Subtype           string
	ToiletKind        string
	Detail            string
	PhotoUrl          string
	OccurredAt        time.Time
	ClassId           string
	ChildIds          []string
	ApplyToAllInClass bool
	VisibleToParents  bool
}

// validateSubmission checks one raw item against the type registry. The
// returned reason is empty when the item is valid; otherwise it is the
// stable per-index string callers put verbatim into failed[].
func validateSubmission(raw EntrySubmissionTransport, index int) (normalizedSubmission, string) {
	norm := normalizedSubmission{}

	rule, ok := RuleFor(raw.Type)
	if !ok {
		return norm, fmt.Sprintf("invalid_type_at_%d", index)
	}

	occurredAt, err := dateparse.ParseIn(raw.OccurredAt, time.UTC)
	if err != nil || raw.OccurredAt == "" {
		return norm, fmt.Sprintf("invalid_occurredAt_at_%d", index)
	}

	if raw.ApplyToAllInClass && strings.TrimSpace(raw.ClassId) == "" {
		return norm, fmt.Sprintf("classId_required_when_applyToAllInClass_at_%d", index)
	}

	if len(rule.Subtypes) > 0 && !rule.AllowsSubtype(raw.Subtype) {
		return norm, fmt.Sprintf("%s_subtype_required_at_%d", strings.ToLower(raw.Type), index)
	}
	if len(rule.ToiletKinds) > 0 && !rule.AllowsToiletKind(raw.ToiletKind) {
		return norm, fmt.Sprintf("toilet_kind_required_at_%d", index)
	}
	if rule.RequiresDetail && strings.TrimSpace(raw.Detail) == "" {
		return norm, fmt.Sprintf("detail_required_at_%d", index)
	}
	if rule.RequiresPhotoUrl && strings.TrimSpace(raw.PhotoUrl) == "" {
		return norm, fmt.Sprintf("photo_url_required_at_%d", index)
	}

	norm.EntryType = raw.Type
	norm.Subtype = raw.Subtype
	norm.ToiletKind = raw.ToiletKind
	norm.Detail = strings.TrimSpace(raw.Detail)
	norm.PhotoUrl = strings.TrimSpace(raw.PhotoUrl)
	norm.OccurredAt = occurredAt
	norm.ClassId = strings.TrimSpace(raw.ClassId)
	norm.ChildIds = normalizeChildIds(raw.ChildIds)
	norm.ApplyToAllInClass = raw.ApplyToAllInClass
	norm.VisibleToParents = raw.VisibleToParents == nil || *raw.VisibleToParents

	return norm, ""
}

// normalizeChildIds trims, drops empties and de-duplicates while keeping
// the original order. The result may legitimately be empty when the
// submission applies to a whole class.
func normalizeChildIds(childIds []string) []string {
	seen := map[string]bool{}
	normalized := []string{}
	for _, childId := range childIds {
		childId = strings.TrimSpace(childId)
		if childId == "" || seen[childId] {
			continue
		}
		seen[childId] = true
		normalized = append(normalized, childId)
	}
	return normalized
}
