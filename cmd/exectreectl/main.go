package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"github.com/weberc2/exectree/core"
	"github.com/weberc2/exectree/jobspec"
)

func loadTree(c *cli.Context) (*core.Tree, error) {
	path := c.String("spec")
	if path == "" {
		return nil, errors.New("--spec is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening spec file")
	}
	defer f.Close()

	doc, err := jobspec.Load(f)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

func specFlag() cli.Flag {
	return cli.StringFlag{
		Name:  "spec",
		Usage: "path to a jobspec document describing the tree",
	}
}

func main() {
	app := cli.NewApp()
	app.Name = "exectreectl"
	app.Usage = "build, run, and inspect exectree job trees"

	app.Commands = []cli.Command{
		{
			Name:  "validate",
			Usage: "load a tree and report structural validation errors",
			Flags: []cli.Flag{specFlag()},
			Action: func(c *cli.Context) error {
				t, err := loadTree(c)
				if err != nil {
					return err
				}
				errs := t.Validate()
				if len(errs) == 0 {
					fmt.Println("OK")
					return nil
				}
				for _, e := range errs {
					fmt.Fprintln(os.Stderr, e)
				}
				return cli.NewExitError("validation failed", 1)
			},
		},
		{
			Name:  "run",
			Usage: "load, validate, and run a tree to completion",
			Flags: []cli.Flag{
				specFlag(),
				cli.BoolFlag{Name: "arborescent", Usage: "prune transitive edges when rendering"},
			},
			Action: func(c *cli.Context) error {
				t, err := loadTree(c)
				if err != nil {
					return err
				}
				if errs := t.Validate(); len(errs) > 0 {
					for _, e := range errs {
						fmt.Fprintln(os.Stderr, e)
					}
					return cli.NewExitError("validation failed", 1)
				}

				printer := core.NewPrinter(os.Stdout, os.Stderr)
				t.Run(true, 0)
				printer.PrintStatus(t.StatusSnapshot())
				if !t.IsSuccess() {
					return cli.NewExitError("tree did not succeed", 1)
				}
				return nil
			},
		},
		{
			Name:  "status",
			Usage: "print a JSON status snapshot for a tree definition",
			Flags: []cli.Flag{specFlag()},
			Action: func(c *cli.Context) error {
				t, err := loadTree(c)
				if err != nil {
					return err
				}
				return writeJSONSnapshot(os.Stdout, t)
			},
		},
		{
			Name:  "render",
			Usage: "print a Graphviz dot document for a tree definition",
			Flags: []cli.Flag{
				specFlag(),
				cli.BoolFlag{Name: "arborescent"},
			},
			Action: func(c *cli.Context) error {
				t, err := loadTree(c)
				if err != nil {
					return err
				}
				fmt.Println(t.DotGraph(core.RenderOptions{
					Arborescent: c.Bool("arborescent"),
				}))
				return nil
			},
		},
		{
			Name:  "export",
			Usage: "bundle a tree's serialized document and job logs into a tar.gz",
			Flags: []cli.Flag{
				specFlag(),
				cli.StringFlag{Name: "out", Usage: "output tar.gz path"},
			},
			Action: func(c *cli.Context) error {
				t, err := loadTree(c)
				if err != nil {
					return err
				}
				outPath := c.String("out")
				if outPath == "" {
					return errors.New("--out is required")
				}
				out, err := os.Create(outPath)
				if err != nil {
					return errors.Wrap(err, "creating export file")
				}
				defer out.Close()
				return t.Export(out)
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func writeJSONSnapshot(w io.Writer, t *core.Tree) error {
	snap := t.StatusSnapshot()
	data, err := snap.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "marshaling status snapshot")
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
