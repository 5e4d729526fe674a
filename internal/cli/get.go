package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-auth-client/apierrors"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/spf13/cobra"
)

func newGetCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "GET an API path with the stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			return fetch(cmd, getApp(), path)
		},
	}
}

func newListCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <resource>",
		Short: "List the records of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource := users.Resource(args[0])
			if !users.IsKnownResource(resource) {
				return fmt.Errorf("unknown resource %q", resource)
			}
			return fetch(cmd, getApp(), "/list/"+string(resource))
		},
	}
}

func fetch(cmd *cobra.Command, a *app, path string) error {
	resp, err := a.api.Get(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("GET %s: %s: %w", path, apierrors.UserMessage(err), err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, resp.Data, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(resp.Data)
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(pretty.String()))
	return nil
}
