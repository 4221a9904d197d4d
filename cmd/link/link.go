// Package link implements the link command.
package link

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/app"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/identity"
)

// Command creates the link command.
func Command(env *app.Env) *cobra.Command {
	var (
		email        string
		legacyAuthor int64
	)

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Register an identity and link it to its legacy profiles",
		Long: `Runs the first-login hook for an e-mail address: the identity is created
when missing, its legacy author is resolved and every unowned shelter or
volunteer profile written by that author is linked to it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var authorID *int64
			if cmd.Flags().Changed("legacy-author") {
				authorID = &legacyAuthor
			}

			a, err := env.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			svc, err := a.IdentityService()
			if err != nil {
				return err
			}
			login, err := svc.EnsureIdentity(cmd.Context(), email, authorID)
			if err != nil {
				return err
			}

			printLogin(cmd, login)
			if login.LinkError != nil {
				return fmt.Errorf("identity registered but linking failed: %w", login.LinkError)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "E-mail address of the identity")
	cmd.Flags().Int64Var(&legacyAuthor, "legacy-author", 0, "Legacy CMS author id, looked up by e-mail when omitted")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func printLogin(cmd *cobra.Command, login *identity.Login) {
	w := cmd.OutOrStdout()

	state := "existing"
	if login.Created {
		state = "new"
	}
	author := "none"
	if login.Identity.LegacyAuthorID != nil {
		author = fmt.Sprint(*login.Identity.LegacyAuthorID)
	}

	fmt.Fprintf(w, "Identity %s (%s, %s)\n", login.Identity.ID, login.Identity.Email, state)
	fmt.Fprintf(w, "Legacy author: %s\n", author)
	fmt.Fprintln(w, strings.Repeat("-", 48))
	fmt.Fprintf(w, "%-12s %-16s %10s %8s\n", "Kind", "Outcome", "Legacy id", "Found")
	for _, o := range login.Outcomes {
		legacyID := "-"
		if o.LegacyEntityID != 0 {
			legacyID = fmt.Sprint(o.LegacyEntityID)
		}
		fmt.Fprintf(w, "%-12s %-16s %10s %8d\n", o.Kind, o.Status, legacyID, o.Candidates)
	}
}
