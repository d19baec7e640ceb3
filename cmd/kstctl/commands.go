package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/scott-cotton/cli"
)

func MainCommand(ctx context.Context) *cli.Command {
	cfg := &MainConfig{ctx: ctx}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "kstctl").
		WithSynopsis("kstctl [opts] command [opts]").
		WithDescription("kstctl talks to a running plotting server over its script socket.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return kstctlMain(cfg, cc, args)
		}).
		WithSubs(
			SendCommand(cfg),
			ListCommand(cfg),
			ValuesCommand(cfg),
			ExportCommand(cfg),
			ClearCommand(cfg),
			HandlesCommand(cfg))
}

func kstctlMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

func SendCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SendConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Send, "send").
		WithAliases("s").
		WithSynopsis("send <command>").
		WithDescription("send one raw command, e.g. 'getVectorList()', and print the reply").
		WithRun(func(cc *cli.Context, args []string) error {
			return send(cfg, cc, args)
		})
}

func ListCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ListConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.List, "list").
		WithAliases("l", "ls").
		WithSynopsis("list <kind>").
		WithDescription("list object names of one kind: " + kindNames()).
		WithRun(func(cc *cli.Context, args []string) error {
			return list(cfg, cc, args)
		})
}

func ValuesCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ValuesConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Values, "values").
		WithAliases("v").
		WithSynopsis("values [-matrix] <name>").
		WithDescription("print the values of a vector, or of a matrix row by row").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return values(cfg, cc, args)
		})
}

func ExportCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ExportConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Export, "export").
		WithAliases("x").
		WithSynopsis("export [-format f] [-width w] [-height h] <file>").
		WithDescription("export the current view as an image").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return export(cfg, cc, args)
		})
}

func ClearCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ClearConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Clear, "clear").
		WithSynopsis("clear").
		WithDescription("remove every object from the server").
		WithRun(func(cc *cli.Context, args []string) error {
			return clearAll(cfg, cc, args)
		})
}

func HandlesCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &HandlesConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Handles, "handles").
		WithAliases("h").
		WithSynopsis("handles [-all]").
		WithDescription("list handles recorded in the local registry").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return handles(cfg, cc, args)
		})
}
