package entity

import "time"

type Owner struct {
	ID           string
	Name         string
	Address      string
	Photo        string
	Birthday     time.Time
	Email        string
	PasswordHash string
	PasswordSalt string
}
