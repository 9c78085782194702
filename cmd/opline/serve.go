package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opline/opline/internal/scan"
	httpAdapter "github.com/opline/opline/pkg/adapters/http"
	"github.com/opline/opline/pkg/collector"
	"github.com/opline/opline/pkg/syntax"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve a scanned log over the debug HTTP API",
	Long: `Loads the finished operations of a log file into an in-memory
collector and exposes them over the debug HTTP API, so a log written
hours ago can be queried like a live process.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")

		col := collector.New(0)
		loaded := 0
		if len(args) > 0 {
			res, err := scan.File(args[0])
			if err != nil {
				fmt.Printf("Error reading log: %v\n", err)
				os.Exit(1)
			}
			for _, ln := range res.Lines {
				if ln.Family == syntax.PrefixEnd {
					col.OpFinished(ln.Record)
					loaded++
				}
			}
		}

		debug := httpAdapter.NewServer(col)
		srv := &http.Server{
			Addr:    ":" + port,
			Handler: debug.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Serving debug API on %s (%d operations loaded)\n", srv.Addr, loaded)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Debug server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "7070", "Port to listen on")
}
