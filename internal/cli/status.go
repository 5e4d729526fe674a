package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-client/users"
	"github.com/spf13/cobra"
)

func newStatusCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session and what it may access",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			out := cmd.OutOrStdout()

			cred, ok := a.store.Credential()
			if !ok {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}

			state := "valid"
			if !a.store.IsAuthenticated() {
				state = "expired (refreshed on next request)"
			}
			fmt.Fprintf(out, "Session:  %s\n", state)
			if cred.ExpiresAt != nil {
				fmt.Fprintf(out, "Expires:  %s\n", cred.Expiry().Local().Format(time.RFC3339))
			}

			identity, ok := a.store.Identity()
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "Name:     %s\n", identity.Name)
			fmt.Fprintf(out, "Role:     %s\n", identity.Role)
			if identity.PrimaryID != "" {
				fmt.Fprintf(out, "ID:       %s\n", identity.PrimaryID)
			}

			allowed := users.AllowedActions(identity.Role)
			resources := make([]string, 0, len(allowed))
			for r := range allowed {
				resources = append(resources, string(r))
			}
			sort.Strings(resources)

			fmt.Fprintln(out, "Access:")
			for _, r := range resources {
				actions := make([]string, 0, len(allowed[users.Resource(r)]))
				for _, action := range allowed[users.Resource(r)] {
					actions = append(actions, string(action))
				}
				fmt.Fprintf(out, "  %-16s %s\n", r, strings.Join(actions, ", "))
			}
			return nil
		},
	}
}
