package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/odyssey-erp/odyssey-auth/internal/shared"
	"github.com/odyssey-erp/odyssey-auth/internal/users"
)

// PasswordEnv supplies the superuser password when --password is omitted.
const PasswordEnv = "ODYSSEY_SUPERUSER_PASSWORD"

// SuperuserCreator is satisfied by *users.Service.
type SuperuserCreator interface {
	CreateSuperuser(ctx context.Context, in users.SuperuserInput) (users.Principal, error)
}

// SuperuserOptions defines the flags of the createsuperuser command. Staff and
// Superuser are nil unless the operator passed the flag explicitly.
type SuperuserOptions struct {
	Username   string
	Email      string
	Password   string
	Role       string
	Staff      *bool
	Superuser  *bool
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// SuperuserSummary is the JSON form of a created superuser.
type SuperuserSummary struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// CreateSuperuserCommand creates the bootstrap Admin principal. It returns 0 on
// success, 2 on validation failure and 1 otherwise.
func CreateSuperuserCommand(ctx context.Context, svc SuperuserCreator, opts SuperuserOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Password == "" {
		opts.Password = os.Getenv(PasswordEnv)
	}

	created, err := svc.CreateSuperuser(ctx, users.SuperuserInput{
		Username:    opts.Username,
		Email:       opts.Email,
		Password:    opts.Password,
		Role:        opts.Role,
		IsStaff:     opts.Staff,
		IsSuperuser: opts.Superuser,
	})
	if err != nil {
		var verr *shared.ValidationError
		if errors.As(err, &verr) {
			renderFieldErrors(opts.Stderr, verr.Fields)
			return 2
		}
		_, _ = fmt.Fprintf(opts.Stderr, "createsuperuser: %v\n", err)
		return 1
	}

	if opts.JSONOutput {
		summary := SuperuserSummary{
			ID:          created.ID,
			Username:    created.Username,
			Email:       created.Email,
			Role:        string(created.Role),
			IsStaff:     created.IsStaff,
			IsSuperuser: created.IsSuperuser,
		}
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "createsuperuser: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = fmt.Fprintf(opts.Stdout, "Superuser %q created (id %d).\n", created.Username, created.ID)
	return 0
}

func renderFieldErrors(out io.Writer, fields map[string]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	_, _ = fmt.Fprintln(out, "createsuperuser: invalid input")
	for _, name := range names {
		_, _ = fmt.Fprintf(out, " - %s: %s\n", name, fields[name])
	}
}
