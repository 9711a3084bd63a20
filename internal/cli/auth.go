package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lingua-client/internal/validate"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				password, err = promptLine(cmd, "Password: ")
				if err != nil {
					return err
				}
			}
			if err := validate.Login(validate.LoginInput{Email: email, Password: password}); err != nil {
				return err
			}

			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			resp, err := env.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", resp.Email, resp.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted if omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var email, password, firstName, lastName string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				password, err = promptLine(cmd, "Password: ")
				if err != nil {
					return err
				}
			}
			if err := validate.Register(validate.RegisterInput{
				FirstName: firstName,
				LastName:  lastName,
				Email:     email,
				Password:  password,
			}); err != nil {
				return err
			}

			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			reg, err := env.client.Register(cmd.Context(), email, password, firstName, lastName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (user %d)\n", reg.Message, reg.UserID)

			// Registration does not issue tokens; sign in right away.
			if _, err := env.client.Login(cmd.Context(), email, password); err != nil {
				return fmt.Errorf("account created but sign-in failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted if omitted)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the session and clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current profile and session expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			user, err := env.client.Profile(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s <%s>\n", user.FirstName, user.LastName, user.Email)
			fmt.Fprintf(out, "Role: %s\n", user.Role)
			if user.ProficiencyLevel != "" {
				fmt.Fprintf(out, "Proficiency: %s\n", user.ProficiencyLevel)
			}
			if claims, err := env.client.AccessTokenClaims(cmd.Context()); err == nil {
				if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
					fmt.Fprintf(out, "Access token expires: %s\n", exp.Format(time.RFC1123))
				}
			}
			return nil
		},
	}
}

func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
