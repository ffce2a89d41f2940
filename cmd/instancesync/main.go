package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hanfei1991/instancesync/config"
	"github.com/hanfei1991/instancesync/pkg/logutil"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries the state shared by the subcommands of one invocation.
type cli struct {
	cfg           *config.Config
	inventoryPath string
	metricsAddr   string
	app           *app
	metrics       *metricsServer
}

func run(ctx context.Context, args []string, out io.Writer) error {
	c := &cli{cfg: config.NewConfig()}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	err := root.ExecuteContext(ctx)
	if c.metrics != nil {
		if cerr := c.metrics.Close(); cerr != nil {
			log.L().Warn("close metrics server", zap.Error(cerr))
		}
	}
	if c.app != nil {
		if cerr := c.app.Close(); cerr != nil {
			log.L().Warn("close instance sync components", zap.Error(cerr))
		}
	}
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "instancesync",
		Short:         "Roll out and drive instance sync perpetual tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.PersistentFlags().AddFlagSet(c.cfg.FlagSet())
	root.PersistentFlags().StringVar(&c.inventoryPath, "inventory", "",
		"JSON file of infrastructure mappings and instances loaded at startup")
	root.PersistentFlags().StringVar(&c.metricsAddr, "metrics-addr", "",
		"serve prometheus metrics on this address while the command runs")

	root.AddCommand(
		c.enableCmd(),
		c.newDeploymentCmd(),
		c.canUpdateCmd(),
		c.skipIteratorCmd(),
		c.tasksCmd(),
		c.flagCmd(),
	)
	return root
}

func (c *cli) setup(ctx context.Context) error {
	if err := c.cfg.Load(); err != nil {
		return err
	}
	if err := logutil.InitLogger(&c.cfg.Log); err != nil {
		return err
	}
	log.L().Debug("instance sync config", zap.Stringer("config", c.cfg))

	if c.metricsAddr != "" {
		s, err := startMetricsServer(c.metricsAddr)
		if err != nil {
			return err
		}
		c.metrics = s
	}

	a, err := newApp(c.cfg)
	if err != nil {
		return err
	}
	c.app = a
	if c.inventoryPath != "" {
		return a.loadInventory(ctx, c.inventoryPath)
	}
	return nil
}
