package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"drawlots/backend/api"
	"drawlots/backend/config"
)

type rootFlags struct {
	configPath  string
	addr        string
	dataDir     string
	fallbackDir string
	logLevel    string
	logFile     string
	dev         bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "drawlots",
		Short:         "Storage backend for the drawlots desktop app",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", os.Getenv(config.EnvConfigPath), "path to YAML config file")
	pf.StringVar(&flags.dataDir, "data-dir", "", "preferred data directory (tried before probed locations)")
	pf.StringVar(&flags.fallbackDir, "fallback-dir", "", "override the system data directory used as fallback")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFile, "log-file", "", "also write logs to this file (rotated on start)")
	pf.BoolVar(&flags.dev, "dev", false, "enable development mode with verbose logging")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storage HTTP API for the UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}
	serve.Flags().StringVar(&flags.addr, "addr", "", "HTTP listen address")
	root.Flags().AddFlagSet(serve.Flags())

	where := &cobra.Command{
		Use:   "where",
		Short: "Resolve and print the active data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()
			resp, err := a.facade.EnsureLocation()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	history := &cobra.Command{
		Use:   "history",
		Short: "Read or replace the draw history document",
	}
	history.AddCommand(&cobra.Command{
		Use:   "read",
		Short: "Print the stored history (empty array when missing or unreadable)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()
			resp, err := a.facade.ReadDocument()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	})
	history.AddCommand(&cobra.Command{
		Use:   "write [file|-]",
		Short: "Replace the stored history with a JSON array read from file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()
			resp, err := a.facade.WriteDocument(data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	})

	root.AddCommand(serve, where, history)
	return root
}

func loadConfig(cmd *cobra.Command, flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("addr") {
		cfg.Addr = flags.addr
	}
	if changed("data-dir") {
		cfg.Storage.DataDir = flags.dataDir
	}
	if changed("fallback-dir") {
		cfg.Storage.FallbackDir = flags.fallbackDir
	}
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if changed("log-file") {
		cfg.Log.File = flags.logFile
	}
	if changed("dev") {
		cfg.Dev = flags.dev
	}
	return cfg, cfg.Validate()
}

func loadApp(cmd *cobra.Command, flags *rootFlags) (*app, error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}

func runServe(cmd *cobra.Command, flags *rootFlags) error {
	a, err := loadApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Dev {
		gin.SetMode(gin.DebugMode)
		a.logger.Info("运行在开发模式 - 显示所有日志")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// 启动时先解析数据目录，使回退提示尽早出现在日志中
	if resp, err := a.facade.EnsureLocation(); err != nil {
		a.logger.Error("[Storage] resolve data dir failed", zap.Error(err))
	} else if resp.Message != nil {
		a.logger.Warn("[Storage] " + *resp.Message)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:    a.cfg.Addr,
		Handler: api.NewRouter(a.facade, a.metrics, a.logger),
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		a.logger.Info("收到退出信号，正在关闭...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("graceful shutdown failed", zap.Error(err))
		}
	}()

	a.logger.Info("server listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-shutdownDone
		return fmt.Errorf("listen: %w", err)
	}
	<-shutdownDone
	return nil
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
