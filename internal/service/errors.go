package service

import "errors"

// Engine and account error taxonomy. Handlers map each sentinel to a
// distinct HTTP status; none of these are ever collapsed into a generic
// failure.
var (
	// ErrStudentNotFound indicates an unknown student id or number.
	ErrStudentNotFound = errors.New("student not found")
	// ErrGroupNotFound indicates an unknown group id.
	ErrGroupNotFound = errors.New("group not found")
	// ErrGroupFull indicates the target group has no free slot.
	ErrGroupFull = errors.New("group is at capacity")
	// ErrSameGroup rejects a switch or move targeting the student's current
	// group. A no-op relocation is an error, never a silent success.
	ErrSameGroup = errors.New("student is already in the target group")
	// ErrUnassigned rejects a switch for a student who has no group yet.
	ErrUnassigned = errors.New("student has not been assigned a group")
	// ErrNotAdmin rejects a move attempted without the admin role.
	ErrNotAdmin = errors.New("administrator role required")
	// ErrDuplicateStudent indicates the student number is already taken.
	ErrDuplicateStudent = errors.New("student number already registered")
	// ErrRegistrationClosed is returned when every group is full and the
	// configured group cap forbids creating another one.
	ErrRegistrationClosed = errors.New("registration is closed: all groups are full")
	// ErrInvalidCourse indicates the referenced course does not exist.
	ErrInvalidCourse = errors.New("invalid course selected")
	// ErrInvalidUnits indicates one or more selected units do not exist.
	ErrInvalidUnits = errors.New("one or more selected units are invalid")
	// ErrEmailDomain rejects registration emails outside the student domain.
	ErrEmailDomain = errors.New("email is not a valid student address")
	// ErrInvalidStudentName rejects names that are empty once sanitized.
	ErrInvalidStudentName = errors.New("invalid student name")

	// ErrEmailTaken indicates the account email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound indicates an unknown account id.
	ErrUserNotFound = errors.New("user not found")

	// ErrSeedDisabled indicates catalog seeding is disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates an invalid seed token.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)
