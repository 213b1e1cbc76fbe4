package users

type UserRepo interface {
	// Upsert stores the user, assigning the next id when ID is zero
	Upsert(user *User) error
	GetByID(id int64) (*User, error)
	GetByLoginID(loginID string) (*User, error)
	List(offset, limit int) ([]*User, error)
	// Connect records a card exchange in both directions
	Connect(a, b int64) error
}
