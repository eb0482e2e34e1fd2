package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/facilitator-allocator/pkg/utils"
)

// AnnotationSkipGoogle marks commands that must not start the Google sign-in flow
const AnnotationSkipGoogle = "skipGoogle"

// LogoutCmd creates the logout command
func LogoutCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the saved Google token for this environment",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			AnnotationSkipGoogle: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			utils.ClearToken()
			if err := utils.DeleteTokenFile(app.Env); err != nil {
				return fmt.Errorf("failed to delete token: %w", err)
			}
			fmt.Printf("\n✓ Signed out of Google for environment %s\n\n", app.Env)
			return nil
		},
	}
}
