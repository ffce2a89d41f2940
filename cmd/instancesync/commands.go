package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pingcap/errors"
	"github.com/spf13/cobra"

	"github.com/hanfei1991/instancesync/instancesync"
	"github.com/hanfei1991/instancesync/model"
	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
	"github.com/hanfei1991/instancesync/pkg/featureflag"
)

func infraMappingType(s string) (model.InfraMappingType, error) {
	tp := model.InfraMappingType(s)
	if !tp.Valid() {
		return "", cerrors.ErrInvalidInfraType.GenWithStackByArgs(s)
	}
	return tp, nil
}

func (c *cli) enableCmd() *cobra.Command {
	var accountID, tp string
	cmd := &cobra.Command{
		Use:   "enable",
		Short: "Create perpetual tasks for every infrastructure mapping of a type in an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mappingType, err := infraMappingType(tp)
			if err != nil {
				return err
			}
			enabled, err := c.app.Controller.EnablePerpetualTaskForAccount(cmd.Context(), accountID, mappingType)
			fmt.Fprintln(cmd.OutOrStdout(), enabled)
			return err
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().StringVar(&tp, "type", "", "infrastructure mapping type")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func (c *cli) newDeploymentCmd() *cobra.Command {
	var tp, path string
	cmd := &cobra.Command{
		Use:   "new-deployment",
		Short: "Create perpetual tasks for the deployments listed in a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mappingType, err := infraMappingType(tp)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return errors.Trace(err)
			}
			var summaries []*model.DeploymentSummary
			if err := json.Unmarshal(data, &summaries); err != nil {
				return errors.Annotatef(err, "decode deployments %s", path)
			}
			dispatched, err := c.app.Controller.CreatePerpetualTaskForNewDeployment(cmd.Context(), mappingType, summaries)
			fmt.Fprintln(cmd.OutOrStdout(), dispatched)
			return err
		},
	}
	cmd.Flags().StringVar(&tp, "type", "", "infrastructure mapping type")
	cmd.Flags().StringVar(&path, "file", "", "JSON array of deployment summaries")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) canUpdateCmd() *cobra.Command {
	var accountID, infraMappingID, flow, handler string
	cmd := &cobra.Command{
		Use:   "can-update",
		Short: "Print whether a flow may write the instances of an infrastructure mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := instancesync.InstanceSyncFlow(flow)
			if !f.Valid() {
				return cerrors.ErrInvalidArgument.GenWithStackByArgs("unknown flow " + flow)
			}
			m, err := c.app.Inventory.GetInfraMapping(cmd.Context(), accountID, infraMappingID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.app.Controller.CanUpdateDb(cmd.Context(), f, m, handler))
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().StringVar(&infraMappingID, "infra-mapping", "", "infrastructure mapping id")
	cmd.Flags().StringVar(&flow, "flow", "", "NEW_DEPLOYMENT, PERPETUAL_TASK or ITERATOR_INSTANCE_SYNC")
	cmd.Flags().StringVar(&handler, "handler", "cli", "name of the handler asking")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("infra-mapping")
	_ = cmd.MarkFlagRequired("flow")
	return cmd
}

func (c *cli) skipIteratorCmd() *cobra.Command {
	var accountID, infraMappingID string
	cmd := &cobra.Command{
		Use:   "skip-iterator",
		Short: "Print whether the iterator must skip an infrastructure mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := c.app.Inventory.GetInfraMapping(cmd.Context(), accountID, infraMappingID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.app.Controller.ShouldSkipIteratorInstanceSync(cmd.Context(), m))
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().StringVar(&infraMappingID, "infra-mapping", "", "infrastructure mapping id")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("infra-mapping")
	return cmd
}

func (c *cli) tasksCmd() *cobra.Command {
	var accountID, taskType string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the perpetual tasks of a type in an account, one JSON record per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := c.app.Tasks.ListTasks(cmd.Context(), accountID, model.PerpetualTaskType(taskType))
			if err != nil {
				return err
			}
			for _, rec := range records {
				line, err := json.Marshal(rec)
				if err != nil {
					return errors.Trace(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(line))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().StringVar(&taskType, "type", "", "perpetual task type")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func (c *cli) flagCmd() *cobra.Command {
	var name, accountID string
	var global bool
	cmd := &cobra.Command{
		Use:   "flag",
		Short: "Inspect and change feature flags",
	}
	cmd.PersistentFlags().StringVar(&name, "name", "", "feature flag name")
	cmd.PersistentFlags().StringVar(&accountID, "account", "", "account id")
	_ = cmd.MarkPersistentFlagRequired("name")

	get := &cobra.Command{
		Use:   "get",
		Short: "Print whether a flag is on for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enabled, err := c.app.Flags.IsEnabled(cmd.Context(), featureflag.FeatureName(name), accountID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), enabled)
			return nil
		},
	}
	enable := &cobra.Command{
		Use:   "enable",
		Short: "Turn a flag on for an account, or for every account with --global",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if global {
				return c.app.Flags.SetGlobal(cmd.Context(), featureflag.FeatureName(name), true)
			}
			return c.app.Flags.EnableForAccount(cmd.Context(), featureflag.FeatureName(name), accountID)
		},
	}
	enable.Flags().BoolVar(&global, "global", false, "enable for every account")
	disable := &cobra.Command{
		Use:   "disable",
		Short: "Turn a flag off for an account, or globally with --global",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if global {
				return c.app.Flags.SetGlobal(cmd.Context(), featureflag.FeatureName(name), false)
			}
			return c.app.Flags.DisableForAccount(cmd.Context(), featureflag.FeatureName(name), accountID)
		},
	}
	disable.Flags().BoolVar(&global, "global", false, "disable globally")
	cmd.AddCommand(get, enable, disable)
	return cmd
}
