package entries

// The closed set of entry types. Adding a type means adding a rule here;
// the validator never probes fields ad hoc.
const (
	TypeAttendance = "Attendance"
	TypeFood       = "Food"
	TypeSleep      = "Sleep"
	TypeToilet     = "Toilet"
	TypeActivity   = "Activity"
	TypePhoto      = "Photo"
	TypeNote       = "Note"
	TypeHealth     = "Health"
)

// TypeRule declares what a given entry type requires beyond the common
// fields. Pure data, no side effects.
type TypeRule struct {
	Subtypes         []string
	ToiletKinds      []string
	RequiresDetail   bool
	RequiresPhotoUrl bool
}

var typeRegistry = map[string]TypeRule{
	TypeAttendance: {Subtypes: []string{"Check in", "Check out"}},
	TypeFood:       {Subtypes: []string{"Breakfast", "Lunch", "Snack"}},
	TypeSleep:      {Subtypes: []string{"Started", "Woke up"}},
	TypeToilet:     {ToiletKinds: []string{"urine", "bm"}},
	TypeActivity:   {RequiresDetail: true},
	TypeNote:       {RequiresDetail: true},
	TypeHealth:     {RequiresDetail: true},
	TypePhoto:      {RequiresPhotoUrl: true},
}

// RuleFor returns the rule for a type, or false for anything outside the
// closed set.
func RuleFor(entryType string) (TypeRule, bool) {
	rule, ok := typeRegistry[entryType]
	return rule, ok
}

func (r TypeRule) AllowsSubtype(subtype string) bool {
	for _, s := range r.Subtypes {
		if s == subtype {
			return true
		}
	}
	return false
}

func (r TypeRule) AllowsToiletKind(kind string) bool {
	for _, k := range r.ToiletKinds {
		if k == kind {
			return true
		}
	}
	return false
}
