package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/qafizz"
)

var (
	userID     string
	firstName  string
	lastName   string
	email      string
	avatar     string
	whoamiJSON bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign a user in and seed their starter notes",
	Long: `Store the user as the signed-in user. No credentials are checked.
A new id is generated when --id is omitted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if userID == "" {
			userID = uuid.NewString()
		}
		user := qafizz.User{
			ID:        userID,
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
			Avatar:    avatar,
		}
		if err := nb.Login(cmd.Context(), user); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", displayName(user), user.ID)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign the current user out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := nb.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := nb.CurrentUser(cmd.Context())
		if err != nil {
			return err
		}
		return printUser(cmd.OutOrStdout(), user, whoamiJSON)
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage the signed-in user's profile",
}

var userUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change profile fields of the signed-in user",
	Long:  `Only the flags given are changed; everything else in the stored profile is kept.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch qafizz.UserPatch
		flags := cmd.Flags()
		if flags.Changed("first-name") {
			patch.FirstName = &firstName
		}
		if flags.Changed("last-name") {
			patch.LastName = &lastName
		}
		if flags.Changed("email") {
			patch.Email = &email
		}
		if flags.Changed("avatar") {
			patch.Avatar = &avatar
		}

		user, err := nb.UpdateUser(cmd.Context(), patch)
		if err != nil {
			return err
		}
		return printUser(cmd.OutOrStdout(), user, whoamiJSON)
	},
}

func displayName(u qafizz.User) string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

func printUser(w io.Writer, u qafizz.User, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(u)
	}
	fmt.Fprintf(w, "%s <%s>\nid: %s\n", displayName(u), u.Email, u.ID)
	if u.Avatar != "" {
		fmt.Fprintf(w, "avatar: %s\n", u.Avatar)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, userCmd)
	userCmd.AddCommand(userUpdateCmd)

	loginCmd.Flags().StringVar(&userID, "id", "", "User id (default: random UUID)")
	loginCmd.Flags().StringVar(&email, "email", "", "Email address")
	_ = loginCmd.MarkFlagRequired("email")

	for _, c := range []*cobra.Command{loginCmd, userUpdateCmd} {
		c.Flags().StringVar(&firstName, "first-name", "", "First name")
		c.Flags().StringVar(&lastName, "last-name", "", "Last name")
		c.Flags().StringVar(&avatar, "avatar", "", "Avatar URL")
	}
	userUpdateCmd.Flags().StringVar(&email, "email", "", "Email address")

	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Output in JSON format")
	userUpdateCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Output in JSON format")
}
