package shared

const (
	ROLE_ADMIN          = "admin"
	ROLE_OFFICE_MANAGER = "officemanager"
	ROLE_TEACHER        = "teacher"
	ROLE_ADULT          = "adult"
)
