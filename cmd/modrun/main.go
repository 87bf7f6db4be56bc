package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	scripttree "github.com/robbyt/go-scripttree"
	"github.com/robbyt/go-scripttree/engines/starlark"
	"github.com/robbyt/go-scripttree/internal/cli"
	"github.com/robbyt/go-scripttree/persist"
	"github.com/robbyt/go-scripttree/store"
	"github.com/robbyt/go-scripttree/workspace"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	handler := cfg.LogHandler(logW)
	logger := slog.New(handler)

	opts := []scripttree.Option{
		scripttree.WithLogHandler(handler),
		scripttree.WithEngineOptions(starlark.WithModulePaths(cfg.ModulePaths...)),
		scripttree.WithWorkspaceOptions(workspace.WithStringVariables(cfg.Vars)),
	}

	var st *store.Store
	if cfg.Load != "" || cfg.Save != "" {
		st, err = store.Open(ctx, cfg.DB, store.WithLogHandler(handler))
		if err != nil {
			return err
		}
		defer st.Close()
	}

	var session *scripttree.Session
	if cfg.Load != "" {
		session, err = scripttree.FromStore(ctx, st, cfg.Load, opts...)
	} else {
		session, err = scripttree.FromWorkspaceFile(ctx, cfg.WorkspacePath, opts...)
	}
	if err != nil {
		return err
	}
	logger.Debug("Build loaded", "build", session.Build.String())

	if cfg.Save != "" {
		if err := st.Save(ctx, cfg.Save, session.Build); err != nil {
			return err
		}
		logger.Info("Build saved", "name", cfg.Save, "db", cfg.DB)
	}

	if cfg.Export {
		w := persist.NewWriter()
		if err := session.Build.Write(w, persist.DefaultSaveOptions()); err != nil {
			return err
		}
		return w.Encode(outW)
	}

	if cfg.Run != "" {
		v, err := session.Run(ctx, cfg.Run)
		if err != nil {
			return err
		}
		fmt.Fprintf(outW, "%s = %v\n", cfg.Run, v)
		return nil
	}

	results, runErr := session.RunAll(ctx)
	for _, m := range session.Build.Modules() {
		if v, ok := results[m.Name()]; ok {
			fmt.Fprintf(outW, "%s = %v\n", m.Name(), v)
		}
	}
	return runErr
}
