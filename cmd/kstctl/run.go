package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/scott-cotton/cli"

	kst "github.com/g960059/kstclient"
	"github.com/g960059/kstclient/internal/registry"
)

var listKinds = map[string]kst.Kind{
	"scalars":  kst.KindScalar,
	"vectors":  kst.KindVector,
	"plots":    kst.KindPlot,
	"labels":   kst.KindLabel,
	"boxes":    kst.KindBox,
	"circles":  kst.KindCircle,
	"ellipses": kst.KindEllipse,
	"lines":    kst.KindLine,
	"arrows":   kst.KindArrow,
	"pictures": kst.KindPicture,
	"svgs":     kst.KindSVG,
}

func kindNames() string {
	names := make([]string, 0, len(listKinds))
	for n := range listKinds {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func lookupKind(name string) (kst.Kind, error) {
	k, ok := listKinds[strings.ToLower(name)]
	if !ok {
		return kst.Kind{}, fmt.Errorf("%w: unknown kind %q, want one of %s", cli.ErrUsage, name, kindNames())
	}
	return k, nil
}

func send(cfg *SendConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Send.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: send requires a command", cli.ErrUsage)
	}
	text := strings.Join(args, " ")
	return cfg.withClient(cc, func(ctx context.Context, c *kst.Client, p *printer) error {
		return sendRaw(ctx, c, p, text)
	})
}

func sendRaw(ctx context.Context, c *kst.Client, p *printer, text string) error {
	reply, err := c.Session().SendRaw(ctx, text)
	if err != nil {
		return err
	}
	p.reply(reply)
	return nil
}

func list(cfg *ListConfig, cc *cli.Context, args []string) error {
	args, err := cfg.List.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: list requires one kind", cli.ErrUsage)
	}
	kind, err := lookupKind(args[0])
	if err != nil {
		return err
	}
	return cfg.withClient(cc, func(ctx context.Context, c *kst.Client, p *printer) error {
		return listNames(ctx, c, p, kind)
	})
}

func listNames(ctx context.Context, c *kst.Client, p *printer, kind kst.Kind) error {
	names, err := c.Names(ctx, kind)
	if err != nil {
		return err
	}
	p.names(names)
	return nil
}

func values(cfg *ValuesConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Values.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: values requires one object name", cli.ErrUsage)
	}
	return cfg.withClient(cc, func(ctx context.Context, c *kst.Client, p *printer) error {
		if cfg.Matrix {
			return printMatrix(ctx, c, p, args[0])
		}
		return printVector(ctx, c, p, args[0])
	})
}

func printVector(ctx context.Context, c *kst.Client, p *printer, name string) error {
	v, err := c.AttachVector(name)
	if err != nil {
		return err
	}
	vals, err := v.Values(ctx)
	if err != nil {
		return err
	}
	p.floats(vals)
	return nil
}

func printMatrix(ctx context.Context, c *kst.Client, p *printer, name string) error {
	m, err := c.AttachMatrix(name)
	if err != nil {
		return err
	}
	vals, err := m.Values(ctx)
	if err != nil {
		return err
	}
	for i := 0; i < vals.Rows; i++ {
		p.row(vals.Row(i))
	}
	return nil
}

func export(cfg *ExportConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Export.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: export requires one output file", cli.ErrUsage)
	}
	opts := kst.ExportOptions{Format: cfg.Format, Width: cfg.Width, Height: cfg.Height}
	return cfg.withClient(cc, func(ctx context.Context, c *kst.Client, _ *printer) error {
		return c.ExportGraphics(ctx, args[0], opts)
	})
}

func clearAll(cfg *ClearConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Clear.Parse(cc, args); err != nil {
		return err
	}
	return cfg.withClient(cc, func(ctx context.Context, c *kst.Client, _ *printer) error {
		return c.Clear(ctx)
	})
}

// handles reads the registry directly so it works while the server is
// down.
func handles(cfg *HandlesConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Handles.Parse(cc, args); err != nil {
		return err
	}
	c, err := cfg.load()
	if err != nil {
		return err
	}
	if c.RegistryPath == "" {
		return fmt.Errorf("handle registry disabled: set registry_path or KST_REGISTRY")
	}
	server := c.ServerName
	if cfg.All {
		server = ""
	}
	return printHandles(cfg.ctx, c.RegistryPath, server, cfg.printer(cc.Out))
}

func printHandles(ctx context.Context, path, server string, p *printer) error {
	store, err := registry.OpenMigrated(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	entries, err := store.ListHandles(ctx, server)
	if err != nil {
		return err
	}
	return p.handles(entries)
}
