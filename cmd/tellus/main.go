package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"tellus/internal/catalog"
	"tellus/internal/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tellus",
		Short: "Specification-driven planet generation engine",
	}

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(mapsCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func generateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate [project-path]",
		Short: "Run the full generation pipeline and print the planet",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runGenerate(args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the planet document as JSON instead of a summary")
	cmd.Flags().BoolVar(&opts.maps, "maps", false, "also write map PNGs for every field")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "map output directory (default <project>/maps)")
	cmd.Flags().StringVar(&opts.savePath, "save", "", "save the planet to the catalog database at this path")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Validate a planet spec without generating the world",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
}

func mapsCmd() *cobra.Command {
	var opts mapOptions

	cmd := &cobra.Command{
		Use:   "maps [project-path]",
		Short: "Generate the world and export its maps as PNGs",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runMaps(args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.outDir, "out", "", "output directory (default <project>/maps)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "map width in pixels (default from the spec)")
	cmd.Flags().StringVar(&opts.projection, "projection", "", "equirectangular or equal-area (default from the spec)")
	cmd.Flags().BoolVar(&opts.hillshade, "hillshade", false, "shade maps by relief")
	cmd.Flags().BoolVar(&opts.noRivers, "no-rivers", false, "skip the river and lake overlay")
	cmd.Flags().StringSliceVar(&opts.fields, "fields", nil, "fields to render (default all)")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Start the local dev server with maps and live progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flags win over environment, environment over defaults.
			if !cmd.Flags().Changed("port") {
				if v := os.Getenv("TELLUS_PORT"); v != "" {
					p, err := strconv.Atoi(v)
					if err != nil {
						return fmt.Errorf("TELLUS_PORT: %w", err)
					}
					port = p
				}
			}
			if catalogPath == "" {
				catalogPath = os.Getenv("TELLUS_CATALOG")
			}

			srv := server.New(args[0], port)
			if catalogPath != "" {
				store, err := catalog.Open(catalogPath)
				if err != nil {
					return err
				}
				defer store.Close()
				srv.Catalog = store
			}
			return srv.Start()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP server port")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "enable the planet catalog at this database path")
	return cmd
}
