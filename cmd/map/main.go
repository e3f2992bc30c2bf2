package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-map/internal/config"
	"github.com/joeblew999/plat-map/internal/logger"
	"github.com/joeblew999/plat-map/internal/server"
)

// Options defines all CLI flags and env vars for the map server.
// Flags: --host, --port, --config, --web-dir, --log-level, --log-format
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_CONFIG, SERVICE_WEB_DIR, SERVICE_LOG_LEVEL, SERVICE_LOG_FORMAT
type Options struct {
	Host      string `doc:"Host to bind to" default:"0.0.0.0"`
	Port      int    `doc:"Port to listen on" short:"p" default:"8086"`
	Config    string `doc:"Path to the YAML map configuration" short:"c" default:"config.yaml"`
	WebDir    string `doc:"Template directory overriding the embedded templates"`
	LogLevel  string `doc:"Log level (trace, debug, info, warn, error)" default:"info"`
	LogFormat string `doc:"Log format (console or json)" default:"console"`
}

func newServer(opts *Options) (*server.Server, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	return server.New(server.Config{
		Host:   opts.Host,
		Port:   fmt.Sprintf("%d", opts.Port),
		WebDir: opts.WebDir,
		Map:    cfg,
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logger.Setup(logger.Config{Level: opts.LogLevel, Format: opts.LogFormat})

		hooks.OnStart(func() {
			srv, err := newServer(opts)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to create server")
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			log.Info().
				Str("url", baseURL).
				Str("config", opts.Config).
				Str("docs", baseURL+"/docs").
				Str("openapi", baseURL+"/openapi.json").
				Msg("plat-map server starting")

			if err := http.ListenAndServe(addr, srv); err != nil {
				log.Fatal().Err(err).Msg("Server error")
			}
		})
	})

	cli.Root().Use = "map"
	cli.Root().Short = "Interactive map server for CSV and GeoJSON layers"
	cli.Root().Version = server.Version

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
				os.Exit(1)
			}
			spec := srv.API().OpenAPI()

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

	// config subcommand: print the effective map configuration
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective map configuration as YAML",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg, err := config.Load(opts.Config)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
				os.Exit(1)
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling config: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(string(out))
		}),
	}
	cli.Root().AddCommand(configCmd)

	cli.Run()
}
