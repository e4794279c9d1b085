package authpage

// identity is the snapshot of a user handed to the token service. It is
// taken once credentials check out, later edits to the record do not reach
// tokens minted from it.
type identity struct {
	id       string
	username string
	email    string
}

// NewIdentityFromUser snapshots user as an Identity, nil for a nil user
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return identity{
		id:       user.ID.String(),
		username: user.Username,
		email:    user.Email,
	}
}

func (i identity) ID() string       { return i.id }
func (i identity) Username() string { return i.username }
func (i identity) Email() string    { return i.email }
