package model

// AccountType decides which API surface a user may call.
type AccountType string

const (
    AccountUser              AccountType = "User"
    AccountInstitutionMember AccountType = "InstitutionMember"
    AccountAdmin             AccountType = "Admin"
)

// UserStatus gates whether a user may create bookings.
type UserStatus string

const (
    UserActive   UserStatus = "Active"
    UserInactive UserStatus = "Inactive"
)

// User is an account as returned by the user directory.  A plain user
// carries a Customer profile; staff carry an InstitutionMember profile.
type User struct {
    ID                string             `json:"id"`
    Email             string             `json:"email"`
    AccountType       AccountType        `json:"account_type"`
    Status            UserStatus         `json:"status"`
    Customer          *Customer          `json:"customer,omitempty"`
    InstitutionMember *InstitutionMember `json:"institution_member,omitempty"`
}

// Customer is the booking-holding profile of a user.
type Customer struct {
    ID            string `json:"id"`
    UserID        string `json:"user_id"`
    InstitutionID string `json:"institution_id"`
}

// InstitutionMember is a staff profile scoped to one institution.
type InstitutionMember struct {
    ID            string `json:"id"`
    UserID        string `json:"user_id"`
    InstitutionID string `json:"institution_id"`
}
