package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/go-auth-client/users"
	"github.com/spf13/cobra"
)

func newLoginCmd(getApp func() *app) *cobra.Command {
	var (
		class    string
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long:  "Sign in through the staff login (admin, dosen) or the member login (mahasiswa). Missing credentials are read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := users.ParsePrincipalClass(class)
			if err != nil {
				return err
			}

			reader := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				if username, err = prompt(cmd.OutOrStdout(), reader, "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(cmd.OutOrStdout(), reader, "Password: "); err != nil {
					return err
				}
			}

			result := getApp().store.Login(cmd.Context(), username, password, principal)
			if !result.Success {
				return fmt.Errorf("login failed: %s", result.Message)
			}

			name := result.Identity.Name
			if name == "" {
				name = username
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", name, result.Identity.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&class, "class", string(users.ClassStaff), "Login to use: staff or member")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username, NIM or NIP (prompted if omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted if omitted)")
	return cmd
}

func prompt(w io.Writer, reader *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

func newLogoutCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			getApp().store.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
