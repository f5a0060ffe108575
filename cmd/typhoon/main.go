package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/typhoon-viz/internal/server"
	"github.com/joeblew999/typhoon-viz/internal/service"
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// Options defines all CLI flags and env vars for the typhoon server.
// Flags: --host, --port, --config, --data, --static, --no-base-map
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_CONFIG, SERVICE_DATA, SERVICE_STATIC, SERVICE_NO_BASE_MAP
type Options struct {
	Host      string `doc:"Host to bind to" default:"0.0.0.0"`
	Port      int    `doc:"Port to listen on" short:"p" default:"8087"`
	Config    string `doc:"YAML widget config (empty uses the defaults)" short:"c"`
	Data      string `doc:"YAML typhoon dataset (empty uses the embedded one)" short:"d"`
	Static    string `doc:"Directory served at /static/"`
	NoBaseMap bool   `doc:"Skip downloading the background geography"`
}

func newServer(opts *Options) (*server.Server, error) {
	return server.New(server.Config{
		Host:         opts.Host,
		Port:         strconv.Itoa(opts.Port),
		WidgetConfig: opts.Config,
		Dataset:      opts.Data,
		StaticDir:    opts.Static,
		NoBaseMap:    opts.NoBaseMap,
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var (
			srv    *server.Server
			hs     *http.Server
			cancel context.CancelFunc
		)

		hooks.OnStart(func() {
			var err error
			srv, err = newServer(opts)
			if err != nil {
				log.Fatalf("Startup error: %v", err)
			}
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			go srv.Run(ctx)

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			d := srv.Dataset()
			fmt.Println()
			fmt.Printf("typhoon-viz server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %d historical typhoons, %d videos\n", len(d.Historical), len(d.Videos))
			fmt.Println()
			fmt.Printf("  Widget:  %s/\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			hs = &http.Server{Addr: addr, Handler: srv}
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("Server error: %v", err)
			}
		})

		hooks.OnStop(func() {
			if hs == nil {
				return
			}
			ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			hs.Shutdown(ctx)
			cancel()
			srv.Close()
		})
	})

	cli.Root().Use = "typhoon"
	cli.Root().Short = "Typhoon track map widget server"
	cli.Root().Version = "1.0.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			opts.NoBaseMap = true
			srv, err := newServer(opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// rank subcommand: print a Top-5 list
	rankCmd := &cobra.Command{
		Use:       "rank <wind|damage|casualties>",
		Short:     "Print the Top-5 typhoons by a metric",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(typhoon.ByWind), string(typhoon.ByDamage), string(typhoon.ByCasualties)},
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			data, err := typhoon.Load(opts.Data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading dataset: %v\n", err)
				os.Exit(1)
			}
			r, err := service.NewTyphoonService(data).Ranking(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			for _, e := range r.Entries {
				fmt.Printf("%-20s %s\n", e.Label, e.Display)
			}
		}),
	}
	cli.Root().AddCommand(rankCmd)

	cli.Run()
}
