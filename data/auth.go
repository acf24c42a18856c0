package data

// Login is the credential payload for password login
type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Auth is an authentication response.
type Auth struct {
	Token   string `json:"token"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}
