// Command authzctl is the operator CLI for the authorization daemon: it
// validates Cedar policy source against the bootstrapped schema, evaluates
// one-off requests against a running repository, and prints the assembled
// schema for inspection.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hodei-authz/internal/authz"
	"hodei-authz/internal/db"
	"hodei-authz/internal/engine"
	"hodei-authz/internal/hrn"
	"hodei-authz/internal/iam"
	"hodei-authz/internal/logger"
	"hodei-authz/internal/org"
	"hodei-authz/internal/orchestrator"
	"hodei-authz/internal/repository"
)

var rootCmd = &cobra.Command{
	Use:   "authzctl",
	Short: "Operate the hierarchical authorization service",
}

func main() {
	logger.Init(logger.DefaultConfig())

	rootCmd.AddCommand(validateCmd, evaluateCmd, bootstrapSchemaCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var validateCmd = &cobra.Command{
	Use:   "validate <policy-file>",
	Short: "Validate a Cedar policy source file against the bootstrapped schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading policy file: %w", err)
		}

		pe, err := engine.Build(engine.DefaultSchema())
		if err != nil {
			return fmt.Errorf("building schema: %w", err)
		}

		validator := engine.NewValidator(pe)
		if err := validator.Validate(source); err != nil {
			return fmt.Errorf("policy invalid: %w", err)
		}

		fmt.Println("OK: policy is valid against the bootstrapped schema")
		return nil
	},
}

var bootstrapSchemaCmd = &cobra.Command{
	Use:   "bootstrap-schema",
	Short: "Print the assembled Cedar schema the daemon starts with",
	RunE: func(*cobra.Command, []string) error {
		pe, err := engine.Build(engine.DefaultSchema())
		if err != nil {
			return fmt.Errorf("building schema: %w", err)
		}
		raw, err := pe.Schema().MarshalJSON()
		if err != nil {
			return fmt.Errorf("marshaling schema: %w", err)
		}
		fmt.Println(string(raw))
		return nil
	},
}

var (
	evalDBDriver  string
	evalDBDSN     string
	evalPrincipal string
	evalAction    string
	evalResource  string
	evalOuDepth   int
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one authorization request against a repository",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()

		principalHRN, err := hrn.Parse(evalPrincipal)
		if err != nil {
			return fmt.Errorf("invalid --principal: %w", err)
		}
		resourceHRN, err := hrn.Parse(evalResource)
		if err != nil {
			return fmt.Errorf("invalid --resource: %w", err)
		}

		repo, err := repository.NewWithConfig(db.Config{Driver: evalDBDriver, DSN: evalDBDSN})
		if err != nil {
			return fmt.Errorf("connecting to repository: %w", err)
		}
		defer repo.Close()

		pe, err := engine.Build(engine.DefaultSchema())
		if err != nil {
			return fmt.Errorf("building schema: %w", err)
		}

		iepr := iam.NewResolver(repo, repo, repo)
		oesr := org.NewResolver(repo, repo, repo, org.WithDepthLimit(evalOuDepth))
		authorizer := orchestrator.New(iepr, oesr, pe)

		resp, err := authorizer.Evaluate(ctx, authz.AuthorizationRequest{
			PrincipalHRN: principalHRN,
			Action:       evalAction,
			ResourceHRN:  resourceHRN,
		})
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}

		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evalDBDriver, "db-driver", "sqlite", "database driver (postgres|sqlite)")
	evaluateCmd.Flags().StringVar(&evalDBDSN, "db-dsn", "hodei-authz.db", "database DSN")
	evaluateCmd.Flags().StringVar(&evalPrincipal, "principal", "", "principal HRN (required)")
	evaluateCmd.Flags().StringVar(&evalAction, "action", "", "action name (required)")
	evaluateCmd.Flags().StringVar(&evalResource, "resource", "", "resource HRN (required)")
	evaluateCmd.Flags().IntVar(&evalOuDepth, "ou-depth-limit", org.DefaultOuDepthLimit, "OU ancestry depth limit")
	_ = evaluateCmd.MarkFlagRequired("principal")
	_ = evaluateCmd.MarkFlagRequired("action")
	_ = evaluateCmd.MarkFlagRequired("resource")
}
