package cont

import (
	"context"
	"lovealbum/entity"
)

type ctxKey string

const adminUserKey ctxKey = "adminUser"

// PutUser stores the authenticated admin in the request context.
func PutUser(c context.Context, user *entity.User) context.Context {
	return context.WithValue(c, adminUserKey, *user)
}

// GetUser returns nil outside authenticated routes.
func GetUser(c context.Context) *entity.User {
	user, ok := c.Value(adminUserKey).(entity.User)
	if !ok {
		return nil
	}
	return &user
}
