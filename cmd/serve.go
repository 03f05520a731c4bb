package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashrobertsdragon/lorebinder/internal/store"
	"github.com/ashrobertsdragon/lorebinder/internal/web"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lorebinder browser and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("host") {
			serveHost = cfg.Server.Host
		}
		if !cmd.Flags().Changed("port") {
			servePort = cfg.Server.Port
		}

		s, err := store.New(dataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		srv := &web.Server{
			Store: s,
			Addr:  fmt.Sprintf("%s:%d", serveHost, servePort),
		}

		fmt.Printf("Serving lorebinder at http://%s\n", srv.Addr)
		return srv.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Host to bind the server to")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}
