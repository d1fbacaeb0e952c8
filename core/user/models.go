package user

import (
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/kabasele/shule/core"
)

// Roles
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// Year levels
const (
	Year1 = "1st Year"
	Year2 = "2nd Year"
	Year3 = "3rd Year"
	Year4 = "4th Year"
)

var (
	AllRoles = []string{RoleStudent, RoleInstructor, RoleAdmin}
	AllYears = []string{Year1, Year2, Year3, Year4}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Instructor", Value: RoleInstructor},
		{Name: "Admin", Value: RoleAdmin},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is an account in the registry. A freshly registered User is pending
// (IsVerified false) until an admin accepts it; rejection deletes the record.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	MiddleName   string    `json:"middle_name,omitempty"`
	LastName     string    `json:"last_name"`
	Course       string    `json:"course,omitempty"`
	Year         string    `json:"year,omitempty"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsVerified   bool      `json:"is_verified"`
	DeviceToken  string    `json:"-"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) Name() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.FirstName, u.MiddleName, u.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool      { return u.Role == RoleAdmin }
func (u *User) IsInstructor() bool { return u.Role == RoleInstructor }
func (u *User) IsStudent() bool    { return u.Role == RoleStudent }

// NewUser contains information needed to register a new User.
type NewUser struct {
	FirstName       string `json:"first_name" validate:"required"`
	MiddleName      string `json:"middle_name"`
	LastName        string `json:"last_name" validate:"required"`
	Course          string `json:"course" validate:"required_if=Role student"`
	Year            string `json:"year" validate:"omitempty,yearlevel"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,userrole"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	DeviceToken     string `json:"device_token"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.MiddleName = core.CleanString(nu.MiddleName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Course = core.CleanString(nu.Course)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing
// User. The verification flag is deliberately absent: it only changes through
// Accept.
type UpdateUser struct {
	FirstName       string `json:"first_name"`
	MiddleName      string `json:"middle_name"`
	LastName        string `json:"last_name"`
	Course          string `json:"course"`
	Year            string `json:"year" validate:"omitempty,yearlevel"`
	Email           string `json:"email" validate:"omitempty,email"`
	Role            string `json:"role" validate:"omitempty,userrole"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc ServiceInterface) error {
	if name := core.CleanString(uu.FirstName); name != "" {
		uu.FirstName = name
	} else {
		uu.FirstName = origUsr.FirstName
	}
	if name := core.CleanString(uu.MiddleName); name != "" {
		uu.MiddleName = name
	} else {
		uu.MiddleName = origUsr.MiddleName
	}
	if name := core.CleanString(uu.LastName); name != "" {
		uu.LastName = name
	} else {
		uu.LastName = origUsr.LastName
	}
	if course := core.CleanString(uu.Course); course != "" {
		uu.Course = course
	} else {
		uu.Course = origUsr.Course
	}
	if uu.Year == "" {
		uu.Year = origUsr.Year
	}
	if uu.Role == "" {
		uu.Role = origUsr.Role
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(uu.Email, origUsr)
}

type QueryFilter struct {
	// Search does a case-insensitive match on any of the name fields or Email.
	Search string `query:"search"`
	Role   string `query:"role"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}

// Match reports whether usr satisfies the filter; matching is done in memory
// so every store backend behaves identically.
func (qf *QueryFilter) Match(usr User) bool {
	if qf.Role != "" && usr.Role != qf.Role {
		return false
	}
	if qf.Search != "" {
		q := strings.ToLower(qf.Search)
		match := false
		for _, fld := range []string{usr.FirstName, usr.MiddleName, usr.LastName, usr.Email} {
			if strings.Contains(strings.ToLower(fld), q) {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

// SortPendingFirst stably orders users so that every pending (unverified)
// record precedes every verified one; ties keep the store's order.
func SortPendingFirst(users []User) {
	sort.SliceStable(users, func(i, j int) bool {
		return !users[i].IsVerified && users[j].IsVerified
	})
}
