package model

import "time"

// Role names stored in users.role. Registration always produces a CUSTOMER;
// moderators are provisioned directly in the database.
const (
	RoleCustomer  = "CUSTOMER"
	RoleModerator = "MODERATOR"
)

// User represents an application user record as stored in the `users`
// table. Each field corresponds to a column. Handlers define separate
// response types with JSON tags; these structs are used by the repository
// layer only.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	FirstName    – given name.
//	LastName     – family name.
//	Email        – unique email address, stored lowercased.
//	PasswordHash – bcrypt hashed password.
//	Role         – role name (CUSTOMER or MODERATOR).
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
