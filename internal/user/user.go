package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned by repositories when the email unique index rejects a write.
	ErrEmailTaken = errors.New("email already exists")
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var freeMailProviders = []string{
	"gmail.com",
	"googlemail.com",
	"yahoo.",
	"hotmail.",
	"outlook.",
	"live.",
	"msn.com",
	"aol.com",
	"icloud.com",
	"me.com",
	"gmx.",
	"proton.me",
	"protonmail.com",
	"laposte.net",
	"orange.fr",
	"free.fr",
	"wanadoo.fr",
}

// UsesProfessionalEmail reports whether the address is hosted on a domain
// other than a known free mail provider. Entries ending in "." match any TLD.
func (u User) UsesProfessionalEmail() bool {
	at := strings.LastIndexByte(u.Email, '@')
	if at < 0 || at == len(u.Email)-1 {
		return false
	}
	domain := strings.ToLower(u.Email[at+1:])
	for _, provider := range freeMailProviders {
		if strings.HasSuffix(provider, ".") {
			if strings.HasPrefix(domain, provider) {
				return false
			}
			continue
		}
		if domain == provider {
			return false
		}
	}
	return true
}

// Profile is the public representation returned for the authenticated user.
type Profile struct {
	User
	UsesProfessionalEmail bool `json:"uses_professional_email"`
}

func NewProfile(u User) Profile {
	return Profile{User: u, UsesProfessionalEmail: u.UsesProfessionalEmail()}
}
