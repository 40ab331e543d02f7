package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-upload/pkg/simpleupload"
	"github.com/tendant/simple-upload/pkg/simpleupload/config"
)

type cli struct {
	configFile string
	uploaders  map[string]*simpleupload.Uploader
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "presignctl",
		Short: "Issue and inspect presigned upload policies",
		Long: `presignctl builds the upload endpoints declared in a config file and
issues presigned POST policies for them from the command line.

Examples:
  presignctl endpoints --config uploads.yaml
  presignctl describe avatars --config uploads.yaml
  presignctl create avatars --name me.png --type image/png --size 2048 --caller user-1`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVarP(&c.configFile, "config", "c", os.Getenv("CONFIG_FILE"), "config file declaring disks and endpoints")

	rootCmd.AddCommand(c.endpointsCmd(), c.describeCmd(), c.createCmd())
	return rootCmd
}

func (c *cli) load(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := []config.Option{config.WithEnv()}
	if c.configFile != "" {
		opts = append(opts, config.WithFile(c.configFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}

	registry, err := cfg.BuildRegistry(ctx)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	c.uploaders, err = cfg.BuildUploaders(registry,
		simpleupload.WithLogger(logger),
		simpleupload.WithEventSink(simpleupload.NewNoopEventSink()),
	)
	return err
}

func (c *cli) uploader(name string) (*simpleupload.Uploader, error) {
	u, ok := c.uploaders[name]
	if !ok {
		return nil, fmt.Errorf("unknown endpoint %q", name)
	}
	return u, nil
}

func (c *cli) endpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "List configured endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(c.uploaders))
			for name := range c.uploaders {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				u := c.uploaders[name]
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tdisk=%s\tacl=%s\trules=%d\n", name, u.DiskName(), u.ACL(), len(u.Rules()))
			}
			return nil
		},
	}
}

func (c *cli) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <endpoint>",
		Short: "Print what an endpoint accepts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.uploader(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), u.Describe())
		},
	}
}

func (c *cli) createCmd() *cobra.Command {
	var (
		name   string
		mime   string
		size   string
		caller string
	)
	cmd := &cobra.Command{
		Use:   "create <endpoint>",
		Short: "Issue a presigned POST policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.uploader(args[0])
			if err != nil {
				return err
			}

			req := simpleupload.Request{Name: name, Type: mime, Size: size}
			if n, err := simpleupload.ParseSize(size); err == nil {
				req.Size = n
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if caller != "" {
				ctx = simpleupload.WithCaller(ctx, caller)
			}

			result, err := u.Create(ctx, req)
			u.Wait()
			if err != nil {
				var verr *simpleupload.ValidationError
				if errors.As(err, &verr) {
					for _, field := range verr.FieldNames() {
						for _, msg := range verr.Fields()[field] {
							fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, msg)
						}
					}
				}
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "client file name, e.g. photo.png")
	cmd.Flags().StringVar(&mime, "type", "", "declared MIME type")
	cmd.Flags().StringVar(&size, "size", "", "declared size in bytes, or with a unit such as 2MB")
	cmd.Flags().StringVar(&caller, "caller", "", "caller identity used by path templates")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
