package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRenderCommand(s *settings, newApp NewAppFunc) *cobra.Command {
	var deferred bool

	cmd := &cobra.Command{
		Use:   "render LAYER_ID",
		Short: "Write the GeoJSON feature collection of a layer",
		Long: `Resolve one layer and write its GeoJSON FeatureCollection to stdout.

Without --deferred the immediate pass runs, which is what a page embeds
directly. With --deferred only renderers configured as deferred contribute,
which is what a lazily loaded layer fetches.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageError(fmt.Sprintf("render requires exactly one LAYER_ID argument, got %d", len(args)))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.appConfig()
			if err != nil {
				return err
			}
			return newApp(cfg).RenderLayer(cmd.Context(), args[0], deferred)
		},
	}
	cmd.Flags().BoolVar(&deferred, "deferred", false, "Run the deferred pass instead of the immediate one.")
	return cmd
}

func newLayersCommand(s *settings, newApp NewAppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List the defined layers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.appConfig()
			if err != nil {
				return err
			}
			return newApp(cfg).ListLayers(cmd.Context())
		},
	}
}

func newLayerTypesCommand(s *settings, newApp NewAppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "layer-types",
		Short: "List the registered layer types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.appConfig()
			if err != nil {
				return err
			}
			return newApp(cfg).ListLayerTypes(cmd.Context())
		},
	}
}

func newServeCommand(s *settings, newApp NewAppFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layers and their lazily loaded data over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.appConfig()
			if err != nil {
				return err
			}
			return newApp(cfg).Serve(cmd.Context())
		},
	}
	cmd.Flags().String("listen", ":8080", "Address the HTTP server listens on.")
	cmd.Flags().Bool("watch", false, "Reload definitions when .hcl files change.")

	s.bind("listen", cmd.Flags().Lookup("listen"))
	s.bind("watch", cmd.Flags().Lookup("watch"))
	return cmd
}
