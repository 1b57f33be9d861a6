package types

// Account represents a user directory entry.
//
// Passwords are stored and compared as-is and the token is a long-lived
// opaque bearer credential minted once at account creation. Neither is
// hashed or rotated; see the README before deploying this anywhere real.
type Account struct {
	// Login is the unique, immutable identifier of the account.
	// It acts as the primary key of the directory.
	Login string `json:"login" db:"login"`

	// Password is the plaintext credential checked byte-for-byte
	// against the value presented at login.
	Password string `json:"password" db:"password"`

	// Token is the opaque bearer credential bound 1:1 to the account.
	// Possession of the token authorizes any audited action on behalf
	// of the account. This field is never exposed in API responses.
	Token string `json:"-" db:"token"`
}
