package cmd

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/kevinaaaquil/bookstore/backend/models"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create an admin user or reset its password",
	Long: `Create the admin user, or replace the password and role of an existing user
with the same username. The password is stored as a bcrypt hash.`,
	RunE: seedAdmin,
}

var seedAdminOpts struct {
	username string
	password string
	role     string
}

func init() {
	seedAdminCmd.Flags().StringVar(&seedAdminOpts.username, "username", "", "admin username")
	seedAdminCmd.Flags().StringVar(&seedAdminOpts.password, "password", "", "admin password")
	seedAdminCmd.Flags().StringVar(&seedAdminOpts.role, "role", models.RoleAdmin, "user role")
	rootCmd.AddCommand(seedAdminCmd)
}

func validateSeedAdmin(username, password, role string) error {
	return validation.Errors{
		"username": validation.Validate(username, validation.Required),
		"password": validation.Validate(password, validation.Required, validation.Length(6, 72)),
		"role":     validation.Validate(role, validation.Required),
	}.Filter()
}

func seedAdmin(cmd *cobra.Command, args []string) error {
	o := seedAdminOpts
	if err := validateSeedAdmin(o.username, o.password, o.role); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(o.password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	_, db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	created, err := db.UpsertUser(ctx, o.username, string(hash), o.role)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "created %s user %q\n", o.role, o.username)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s user %q\n", o.role, o.username)
	}
	return nil
}
