package model

import (
	"testing"
)

func TestUser(t *testing.T, username string) *User {
	t.Helper()

	return &User{
		Username:  username,
		Email:     username + "@Example.ORG",
		FirstName: "Test",
		LastName:  username,
		Password:  "password123",
	}
}

func StringPtr(s string) *string {
	return &s
}
