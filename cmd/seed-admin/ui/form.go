package ui

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/charmbracelet/huh"
)

// AdminInput is the account the seed command provisions.
type AdminInput struct {
	Name     string
	Email    string
	Password string
}

// Missing reports whether any field still has to be asked for.
func (in *AdminInput) Missing() bool {
	return strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == ""
}

// RunForm prompts for the fields of in that are still empty. The password
// is read without echo and has to be typed twice.
func RunForm(in *AdminInput) error {
	var fields []huh.Field

	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, huh.NewInput().
			Title("Admin name").
			Placeholder("admin").
			Value(&in.Name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("name is required")
				}
				return nil
			}))
	}

	if strings.TrimSpace(in.Email) == "" {
		fields = append(fields, huh.NewInput().
			Title("Admin email").
			Placeholder("admin@example.com").
			Value(&in.Email).
			Validate(validateEmail))
	}

	var confirm string
	if in.Password == "" {
		fields = append(fields,
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&in.Password).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&confirm).
				Validate(func(s string) error {
					if s != in.Password {
						return errors.New("passwords do not match")
					}
					return nil
				}),
		)
	}

	if len(fields) == 0 {
		return nil
	}

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeCatppuccin())
	if err := form.Run(); err != nil {
		return err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	return nil
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return errors.New("invalid email format")
	}
	return nil
}

// PrintCreated prints the provisioned account.
func PrintCreated(id, email string) {
	fmt.Println(createdStyle.Render("Admin account created"))
	fmt.Println(labelStyle.Render("ID") + id)
	fmt.Println(labelStyle.Render("Email") + email)
	fmt.Println(labelStyle.Render("Role") + "admin")
	fmt.Println()
}

// PrintExists reports an email that is already registered. The existing
// account is left untouched.
func PrintExists(email string) {
	fmt.Println(skippedStyle.Render("Admin already provisioned, nothing to do"))
	fmt.Println(labelStyle.Render("Email") + email)
	fmt.Println()
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Println(failureStyle.Render("seed-admin: " + msg))
}
