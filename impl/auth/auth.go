package auth

import (
	"crypto/subtle"
	"fmt"
	"lovealbum/entity"
)

// Auth resolves admin API tokens against the users listed in the config file.
type Auth struct {
	users []entity.User
}

func New(users []entity.User) *Auth {
	return &Auth{users: users}
}

func (a *Auth) UserByToken(token string) (*entity.User, error) {
	if len(a.users) == 0 {
		return nil, fmt.Errorf("no admin users configured")
	}
	for i := range a.users {
		if subtle.ConstantTimeCompare([]byte(a.users[i].Token), []byte(token)) == 1 {
			user := a.users[i]
			return &user, nil
		}
	}
	return nil, fmt.Errorf("token not found")
}
