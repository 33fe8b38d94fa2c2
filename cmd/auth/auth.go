package auth

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	bbauth "github.com/gushphp/gush-bitbucket/internal/auth"
	"github.com/gushphp/gush-bitbucket/pkg/shared"
	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
	"github.com/gushphp/gush-bitbucket/pkg/shared/credential"
	"github.com/gushphp/gush-bitbucket/pkg/shared/errors"
)

// Result is the outcome of a credential probe.
type Result struct {
	Username           string `json:"username"`
	Scheme             string `json:"scheme"`
	Authenticated      bool   `json:"authenticated"`
	TokenGenerationURL string `json:"token_generation_url"`
}

var (
	AppConfig *config.Config
	logger    hclog.Logger

	AuthCmd = &cobra.Command{
		Use:                   "auth",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Check the configured Bitbucket credentials",
		Example:               "  gush-bitbucket auth -c config.yml",
		RunE:                  runAuthCommand,
	}

	storeCmd = &cobra.Command{
		Use:                   "store KEY",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Save a secret read from stdin in the system keyring",
		Long: `Save a secret read from stdin in the system keyring.

The printed reference can be used as the secret-or-token or oauth-secret
value in the configuration file.`,
		Example: "  echo \"$APP_PASSWORD\" | gush-bitbucket auth store bitbucket-alice",
		Args:    cobra.ExactArgs(1),
		RunE:    runStoreCommand,
	}

	forgetCmd = &cobra.Command{
		Use:                   "forget KEY",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Remove a secret from the system keyring",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newStore().Delete(args[0]); err != nil {
				return errors.NewCommandError(err, 2)
			}
			return nil
		},
	}

	newStore = credential.NewStore
)

func init() {
	AuthCmd.AddCommand(storeCmd, forgetCmd)
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runAuthCommand(cmd *cobra.Command, args []string) error {
	if AppConfig.Bitbucket.Authentication.Username == "" {
		return errors.NewCommandError(fmt.Errorf("bitbucket.authentication.username is not set"), 1)
	}

	s, err := shared.NewSession(cmd.Context(), AppConfig, logger, newStore())
	if err != nil {
		return errors.NewCommandError(err, 1)
	}

	result, err := probe(cmd.Context(), s)
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidCredentials) {
			return errors.NewCommandError(err, 1)
		}
		return errors.NewCommandError(err, 2)
	}
	if err := shared.WriteJSON(cmd.OutOrStdout(), result); err != nil {
		return errors.NewCommandError(err, 2)
	}
	if !result.Authenticated {
		return errors.NewCommandError(fmt.Errorf("credentials of %q were rejected", result.Username), 2)
	}
	return nil
}

func probe(ctx context.Context, s *shared.Session) (*Result, error) {
	desc, err := bbauth.SelectAuth(s.Credentials)
	if err != nil {
		return nil, err
	}
	ok, err := s.Login(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{
		Username:           s.Credentials.Username(),
		Scheme:             string(desc.Scheme()),
		Authenticated:      ok,
		TokenGenerationURL: s.Issues.TokenGenerationURL(),
	}, nil
}

func runStoreCommand(cmd *cobra.Command, args []string) error {
	key := args[0]
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Scan()
	if err := scanner.Err(); err != nil {
		return errors.NewCommandError(fmt.Errorf("reading secret from stdin: %w", err), 1)
	}
	secret := strings.TrimSpace(scanner.Text())
	if secret == "" {
		return errors.NewCommandError(fmt.Errorf("no secret on stdin"), 1)
	}

	if err := newStore().Set(key, secret); err != nil {
		return errors.NewCommandError(err, 2)
	}
	logger.Info("secret stored", "key", key)
	fmt.Fprintln(cmd.OutOrStdout(), credential.RefPrefix+key)
	return nil
}
