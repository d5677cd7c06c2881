package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gounveil/internal/checker"
	"github.com/dbsmedya/gounveil/internal/report"
)

var (
	checkUsername string
	checkPassword string
	checkStrict   bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Discover URLs and verify each responds under an admin session",
	Long: `Check discovers URLs like list, logs into the CMS admin and requests every
URL once, classifying the responses as OK, AUTH_FAILED, NOT_FOUND,
SERVER_ERROR or ERROR.

When login fails no URL is requested; the discovered URLs are still printed
with status UNCHECKED.

Credentials come from the check section of the config, these flags, or the
GOUNVEIL_CHECK_USERNAME and GOUNVEIL_CHECK_PASSWORD environment variables.

Example:
  gounveil check --config gounveil.yaml --workers 8
  gounveil check --username admin --strict`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkUsername, "username", "u", "",
		"Admin username (overrides config and environment)")
	checkCmd.Flags().StringVarP(&checkPassword, "password", "p", "",
		"Admin password (overrides config and environment)")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false,
		"Exit non-zero when login fails or any URL is not OK")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.Close()

	if checkUsername != "" {
		env.cfg.Check.Username = checkUsername
	}
	if checkPassword != "" {
		env.cfg.Check.Password = checkPassword
	}

	result, err := discover(env)
	if err != nil {
		return err
	}

	c, err := checker.New(checker.OptionsFromConfig(result.BaseURL, env.cfg.Check), env.log)
	if err != nil {
		return fmt.Errorf("failed to create checker: %w", err)
	}

	maxInst := env.cfg.Collection.MaxInstances
	checked, checkErr := c.Check(env.ctx, result.Entries)

	var doc *report.Document
	var authErr *checker.AuthError
	switch {
	case checkErr == nil:
		doc = report.NewCheckedDocument(result.BaseURL, maxInst, checked)
	case errors.As(checkErr, &authErr):
		report.NewPrinter(cmd.ErrOrStderr(), !env.cfg.Output.NoColor).
			Warn("Liveness check disabled: %v", authErr)
		doc = report.NewUncheckedDocument(result.BaseURL, maxInst, result.Entries)
	default:
		return fmt.Errorf("check failed: %w", checkErr)
	}

	if err := present(cmd, env.cfg, doc); err != nil {
		return err
	}

	if checkStrict {
		if checkErr != nil {
			return checkErr
		}
		if checked.Failed > 0 {
			return fmt.Errorf("%d of %d URLs failed", checked.Failed, checked.Total())
		}
	}
	return nil
}
