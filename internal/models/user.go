package models

// UserRole is the access scope attached to a credential.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student"
)

// UserCredential is a login entry in the user registry.
type UserCredential struct {
	ID           string   `json:"id"`
	Role         UserRole `json:"role"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"passwordHash"`
	Name         string   `json:"name"`
}

// StudentCredentialID is the registry id of the credential for a record.
func StudentCredentialID(recordID int64) string {
	return "student-" + formatInt(recordID)
}
