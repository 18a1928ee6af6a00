package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/plantwatch/internal/model"
	"github.com/sells-group/plantwatch/pkg/plantapi"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange operator credentials for an API token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("login"); err != nil {
			return err
		}

		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" || password == "" {
			return eris.New("login: --email and --password are required")
		}

		sess, err := plantapi.Login(ctx, email, password, apiOptions()...)
		if err != nil {
			return eris.Wrap(err, "login")
		}
		token, err := sess.Token()
		if err != nil {
			return eris.Wrap(err, "login")
		}

		zap.L().Info("login: authenticated", zap.String("email", sess.User().Email))
		formatLogin(os.Stdout, sess.User(), token)
		return nil
	},
}

func formatLogin(out io.Writer, user model.User, token string) {
	name := user.Username
	if name == "" {
		name = user.Email
	}
	fmt.Fprintf(out, "Logged in as %s", name)
	if user.Role != "" {
		fmt.Fprintf(out, " (%s)", user.Role)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "\nexport PLANTWATCH_API_TOKEN=%s\n", token)
}

func init() {
	loginCmd.Flags().String("email", "", "operator email")
	loginCmd.Flags().String("password", "", "operator password")
	rootCmd.AddCommand(loginCmd)
}
