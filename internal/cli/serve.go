package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/circuitdag/internal/api"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		cache cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion API",
		Long: `Run the HTTP conversion API until interrupted.

Routes:
  GET  /healthz
  POST /v1/convert   {"source": "...", "format": "qasm", "recurse": true}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, cache)
			if err != nil {
				return err
			}
			defer runner.Close()

			printKeyValue("address", addr)
			printKeyValue("cache", cacheLabel(cache))
			return api.New(runner, loggerFromContext(ctx)).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cache.register(cmd)

	return cmd
}

func cacheLabel(f cacheFlags) string {
	switch {
	case f.noCache:
		return "disabled"
	case f.redisURL != "":
		return "redis"
	}
	if dir, err := cacheDir(); err == nil {
		return dir
	}
	return "disabled"
}
