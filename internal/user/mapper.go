package user

import "chatrelay/internal/user/storage"

func ConvertDBUserToUser(dbUser *storage.User) *User {
	return &User{
		ID:        dbUser.ID,
		Username:  dbUser.Username,
		Email:     dbUser.Email,
		Picture:   dbUser.Picture,
		CreatedAt: dbUser.CreatedAt,
	}
}

func convertDBUsers(dbUsers []*storage.User) []*User {
	users := make([]*User, len(dbUsers))
	for i, dbUser := range dbUsers {
		users[i] = ConvertDBUserToUser(dbUser)
	}
	return users
}
