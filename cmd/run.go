package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eduwise/studyplan/internal/engine"
	"github.com/eduwise/studyplan/internal/llm"
	"github.com/eduwise/studyplan/internal/logger"
	"github.com/eduwise/studyplan/internal/performance"
	"github.com/eduwise/studyplan/internal/store"
)

// app holds the dependencies of a single command invocation.
type app struct {
	store *store.Store
	svc   *engine.Service
	log   *logger.Logger
	owner string
}

// openApp opens the store and builds the service with the scorer selected
// by the environment.
func openApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}

	log, err := logger.FromEnv()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open store: %w", err)
	}

	analyzer := performance.NewAnalyzerFromConfig(ctx, performance.ConfigFromEnv(), llm.ConfigFromEnv(), st.Events(), log)
	return &app{
		store: st,
		svc:   engine.NewService(st.Plans(), analyzer, engine.WithLogger(log)),
		log:   log,
		owner: resolveOwner(cmd),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store", "error", err)
	}
	a.log.Sync()
}

// withApp runs fn with an opened app and closes it afterwards.
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}
