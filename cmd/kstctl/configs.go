package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	kst "github.com/g960059/kstclient"
	"github.com/g960059/kstclient/config"
	"github.com/g960059/kstclient/session"
)

type MainConfig struct {
	ConfigPath string `cli:"name=config aliases=c desc='YAML config file'"`
	Server     string `cli:"name=server aliases=s desc='server name or socket path'"`
	NoLaunch   bool   `cli:"name=no-launch desc='fail instead of starting the server'"`
	Color      bool   `cli:"name=color desc='force colored output'"`
	Verbose    bool   `cli:"name=v desc='log at debug level'"`

	Main *cli.Command

	ctx context.Context
}

// load resolves the client configuration: file, then environment, then
// flags.
func (cfg *MainConfig) load() (config.Config, error) {
	c, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Server != "" {
		c.ServerName = cfg.Server
	}
	if cfg.NoLaunch {
		c.AutoLaunch = false
	}
	if cfg.Verbose {
		c.LogLevel = "debug"
	}
	return c, c.Validate()
}

func (cfg *MainConfig) connect(c config.Config) (*kst.Client, error) {
	log := c.NewLogger(os.Stderr)
	client, err := kst.Connect(cfg.ctx, c, session.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", c.ServerName, err)
	}
	return client, nil
}

// withClient connects, runs fn and closes the client.
func (cfg *MainConfig) withClient(cc *cli.Context, fn func(ctx context.Context, c *kst.Client, p *printer) error) error {
	c, err := cfg.load()
	if err != nil {
		return err
	}
	client, err := cfg.connect(c)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Debug("close client", "err", err)
		}
	}()
	return fn(cfg.ctx, client, cfg.printer(cc.Out))
}

func (cfg *MainConfig) printer(w io.Writer) *printer {
	if cfg.Color {
		return newPrinter(w, true)
	}
	f, ok := w.(*os.File)
	if !ok {
		return newPrinter(w, false)
	}
	return newPrinter(w, isatty.IsTerminal(f.Fd()))
}

type SendConfig struct {
	*MainConfig
	Send *cli.Command
}

type ListConfig struct {
	*MainConfig
	List *cli.Command
}

type ValuesConfig struct {
	*MainConfig
	Matrix bool `cli:"name=matrix aliases=m desc='read a matrix instead of a vector'"`

	Values *cli.Command
}

type ExportConfig struct {
	*MainConfig
	Format string `cli:"name=format aliases=f desc='image format, default from the file extension'"`
	Width  int    `cli:"name=width desc='image width in pixels'"`
	Height int    `cli:"name=height desc='image height in pixels'"`

	Export *cli.Command
}

type ClearConfig struct {
	*MainConfig
	Clear *cli.Command
}

type HandlesConfig struct {
	*MainConfig
	All bool `cli:"name=all aliases=a desc='list handles for every server'"`

	Handles *cli.Command
}
