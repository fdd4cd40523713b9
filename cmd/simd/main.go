// Command simd is the control-plane binary: it validates and runs a
// scenario file directly from the command line, or serves the HTTP/gRPC
// admin API over an in-memory (optionally sqlite-backed) run store, built
// around github.com/spf13/cobra subcommands rather than the flat flag
// package.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opendsim/kernel/internal/simd"
	"github.com/opendsim/kernel/pkg/config"
	"github.com/opendsim/kernel/pkg/logger"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	var logLevel string

	root := &cobra.Command{
		Use:   "simd",
		Short: "Discrete-event simulation control plane",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetDefault(logger.NewText(logLevel, os.Stdout))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Parse and validate a scenario file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := config.LoadScenario(args[0])
			if err != nil {
				return fmt.Errorf("scenario invalid: %w", err)
			}
			fmt.Printf("scenario OK: %d host(s), %d service(s), %d workload pattern(s)\n",
				len(scenario.Hosts), len(scenario.Services), len(scenario.Workload))
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var durationSeconds float64
	var seed int64

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario to completion and print its metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if _, err := config.ParseScenarioYAML(data); err != nil {
				return fmt.Errorf("scenario invalid: %w", err)
			}

			store, err := simd.NewRunStore(nil)
			if err != nil {
				return err
			}
			executor := simd.NewRunExecutor(store)

			rec, err := store.Create("", &simd.RunInput{ScenarioYAML: string(data), DurationSeconds: durationSeconds, Seed: seed})
			if err != nil {
				return err
			}
			if _, err := executor.Start(rec.Run.ID); err != nil {
				return err
			}

			for {
				rec, _ = store.Get(rec.Run.ID)
				if rec.Run.Status.Terminal() {
					break
				}
				time.Sleep(50 * time.Millisecond)
			}

			fmt.Printf("run %s finished with status %s\n", rec.Run.ID, rec.Run.Status)
			if rec.Run.Error != "" {
				fmt.Printf("error: %s\n", rec.Run.Error)
			}
			if rec.Metrics != nil {
				fmt.Printf("simulated %.3fs, %d metric(s) collected\n", rec.Metrics.SimulatedSeconds, len(rec.Metrics.Aggregations))
				for name, agg := range rec.Metrics.Aggregations {
					fmt.Printf("  %-20s count=%-6d mean=%.4f p50=%.4f p95=%.4f p99=%.4f\n", name, agg.Count, agg.Mean, agg.P50, agg.P95, agg.P99)
				}
				for _, verr := range rec.Metrics.ConservationErrors {
					fmt.Printf("  conservation violation: %s\n", verr)
				}
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&durationSeconds, "duration", 10, "simulated seconds to run")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	return cmd
}

func newServeCmd() *cobra.Command {
	var grpcAddr, httpAddr, dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and gRPC control-plane APIs",
		RunE: func(cmd *cobra.Command, args []string) error {
			var db *gorm.DB
			if dbPath != "" {
				var err error
				db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
				if err != nil {
					return fmt.Errorf("opening run store database: %w", err)
				}
			}

			store, err := simd.NewRunStore(db)
			if err != nil {
				return err
			}
			executor := simd.NewRunExecutor(store)

			grpcServer := grpc.NewServer(grpc.ForceServerCodec(simd.JSONCodec{}))
			simd.RegisterSimulationServer(grpcServer, simd.NewSimulationServer(store, executor))

			grpcLis, err := net.Listen("tcp", grpcAddr)
			if err != nil {
				return fmt.Errorf("listening for gRPC on %s: %w", grpcAddr, err)
			}

			httpSrv := &http.Server{
				Addr:              httpAddr,
				Handler:           simd.NewHTTPServer(store, executor).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				logger.Info("gRPC server listening", "addr", grpcAddr)
				if err := grpcServer.Serve(grpcLis); err != nil {
					logger.Error("gRPC server error", "error", err)
					stop()
				}
			}()
			go func() {
				logger.Info("HTTP server listening", "addr", httpAddr)
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", "error", err)
					stop()
				}
			}()

			<-ctx.Done()
			logger.Info("shutdown requested")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			grpcServer.GracefulStop()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", ":50051", "gRPC listen address")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&dbPath, "db", "", "optional sqlite path for run persistence (memory-only if empty)")
	return cmd
}
