package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/elevatehq/elevate/internal/profile"
	"github.com/elevatehq/elevate/internal/version"
	"github.com/elevatehq/elevate/plugin/mcp"
	"github.com/elevatehq/elevate/store"
	"github.com/elevatehq/elevate/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "elevate-mcp",
	Short: `Task tool server for the elevate chat agent. Serves the tool manifest and executes tool calls against the task store.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Data:    viper.GetString("data"),
			Driver:  viper.GetString("driver"),
			DSN:     viper.GetString("dsn"),
			Version: version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			panic(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			cancel()
			slog.Error("failed to create db driver", "error", err)
			return
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			cancel()
			slog.Error("failed to migrate", "error", err)
			return
		}

		registry := mcp.NewRegistry()
		mcp.RegisterTaskTools(registry)
		s := mcp.NewServer(instanceProfile, storeInstance, registry)

		c := make(chan os.Signal, 1)
		signal.Notify(c, terminationSignals...)

		go func() {
			<-c
			s.Shutdown(ctx)
			_ = storeInstance.Close()
			cancel()
		}()

		address := fmt.Sprintf("%s:%d", instanceProfile.Addr, instanceProfile.Port)
		fmt.Printf("Elevate tool server %s listening on %s (%d tools)\n",
			instanceProfile.Version, address, registry.Count())

		if err := s.Start(address); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				slog.Error("failed to start tool server", "error", err)
				cancel()
			}
		}

		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8001)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "127.0.0.1", "address of tool server")
	rootCmd.PersistentFlags().Int("port", 8001, "port of tool server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")

	for _, key := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("elevate_mcp")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
