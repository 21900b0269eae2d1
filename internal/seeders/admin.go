package seeders

import (
	"context"
	"errors"
	"log"
	"strings"

	"campus-approvals/internal/models"
	"campus-approvals/internal/repository"
)

// EnsureAdmin promotes the given email to admin, creating the account if it
// has never logged in. Used to bootstrap the first administrator.
func EnsureAdmin(ctx context.Context, users repository.UserRepositoryInterface, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	user, err := users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		user = &models.User{
			Name:   email,
			Email:  email,
			Role:   models.RoleAdmin,
			Status: models.UserStatusActive,
		}
		if err := users.CreateUser(ctx, user); err != nil {
			return err
		}
		log.Printf("Seeded admin user: %s", email)
		return nil
	}

	if user.Role != models.RoleAdmin {
		user.Role = models.RoleAdmin
		if err := users.SaveUser(ctx, user); err != nil {
			return err
		}
		log.Printf("Promoted user to admin: %s", email)
	}

	return nil
}
