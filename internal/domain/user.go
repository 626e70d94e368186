package domain

// User is a back-office operator. Role is USER or ADMIN.
type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"`
}

const RoleAdmin = "ADMIN"
