package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/g960059/kstclient/internal/registry"
)

type printer struct {
	w      io.Writer
	name   func(a ...any) string
	number func(a ...any) string
	dim    func(a ...any) string
}

func newPrinter(w io.Writer, colored bool) *printer {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return &printer{
		w:      w,
		name:   mk(color.FgCyan),
		number: mk(color.FgYellow),
		dim:    mk(color.Faint),
	}
}

func (p *printer) reply(s string) {
	fmt.Fprintln(p.w, s)
}

func (p *printer) names(names []string) {
	for _, n := range names {
		fmt.Fprintln(p.w, p.name(n))
	}
}

func (p *printer) floats(vals []float64) {
	for _, v := range vals {
		fmt.Fprintln(p.w, p.number(strconv.FormatFloat(v, 'g', -1, 64)))
	}
}

func (p *printer) row(vals []float64) {
	for i, v := range vals {
		if i > 0 {
			fmt.Fprint(p.w, " ")
		}
		fmt.Fprint(p.w, p.number(strconv.FormatFloat(v, 'g', -1, 64)))
	}
	fmt.Fprintln(p.w)
}

func (p *printer) handles(entries []registry.Entry) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVER\tHANDLE\tKIND\tNAME\tCREATED")
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = p.dim("-")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.ServerName, p.name(e.Handle), e.Kind, name, e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
