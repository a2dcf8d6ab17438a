package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sua-a1/cram-app-sub001/app/config"
	"github.com/sua-a1/cram-app-sub001/app/di"
	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/utils/logger"
)

// Reconciler is the operator view of partial provision failures.
type Reconciler interface {
	List(ctx context.Context, unresolvedOnly bool, limit int) ([]*domain.ProvisionFailure, error)
	Show(ctx context.Context, id uuid.UUID) (*domain.ProvisionFailure, error)
	Retry(ctx context.Context, id uuid.UUID) (*domain.ProvisionFailure, error)
	Resolve(ctx context.Context, id uuid.UUID) error
}

// ReconcilerFactory connects a Reconciler. The returned func releases it.
type ReconcilerFactory func(ctx context.Context, logLevel string) (Reconciler, func(), error)

// NewRootCmd builds the provisionctl command tree.
func NewRootCmd(factory ReconcilerFactory) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "provisionctl",
		Short: "Inspect and repair partial account provisioning",
		Long: `provisionctl lists the provisioning attempts whose compensation failed and
lets an operator retry the cleanup or close the record.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	connect := func(cmd *cobra.Command) (Reconciler, func(), error) {
		return factory(cmd.Context(), logLevel)
	}
	root.AddCommand(newFailuresCmd(connect))
	return root
}

// Execute runs the root command
func Execute() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "could not load .env file:", err)
	}

	if err := NewRootCmd(connectReconciler).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connectReconciler(ctx context.Context, logLevel string) (Reconciler, func(), error) {
	appLogger, err := logger.New(logLevel)
	if err != nil {
		return nil, nil, err
	}
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return nil, nil, err
	}
	kratosCfg, err := config.LoadKratos()
	if err != nil {
		return nil, nil, err
	}

	container, err := di.NewReconcilerContainer(ctx, *dbCfg, *kratosCfg, appLogger)
	if err != nil {
		return nil, nil, err
	}
	return container.Reconciler, container.Close, nil
}
