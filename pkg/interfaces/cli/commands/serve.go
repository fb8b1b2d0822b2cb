package commands

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vsinha/opsplan/pkg/infrastructure/logging"
	"github.com/vsinha/opsplan/pkg/interfaces/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored scenarios and their reports as read-only JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		if listenAddr == "" {
			listenAddr = viper.GetString("server.addr")
		}

		if logging.Log.GetLevel() < logrus.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}

		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return api.NewServer(repo, viper.GetInt("conflicts.window_days")).Run(ctx, listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "HTTP listen address (default from config, :8080)")
}
