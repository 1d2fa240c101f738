package entity

// User is an administrator allowed to call the admin API with a bearer token.
type User struct {
	Username string `json:"username" yaml:"username" validate:"required"`
	Token    string `json:"-" yaml:"token" validate:"required,min=16"`
}
