// gridstat prints summary statistics of a grid archived in a local store.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/qri-io/gridview"
)

func main() {
	var (
		dir     = flag.String("store", ".", "Directory of the local store.")
		path    = flag.String("path", "", "Path of the grid within the store.")
		flagged = flag.Bool("flags", false, "Path holds a flagged group (data + flags).")
		threads = flag.Int("threads", 0, "Workers for the summary pass (0 = keep stored default).")
		verbose = flag.Bool("v", false, "Log bulk passes and archive reads.")
	)
	flag.Parse()

	if *path == "" {
		fatalf("usage: gridstat -store DIR -path NAME [-flags] [-threads N] [-v]")
	}
	if *verbose {
		gridview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	store, err := gridview.NewLocalStore(*dir)
	if err != nil {
		fatalf("open store: %v", err)
	}

	var g interface {
		gridview.Grid2D
		gridview.Parallel
	}
	if *flagged {
		f, err := gridview.LoadFlagged(store, *path)
		if err != nil {
			fatalf("load %s: %v", *path, err)
		}
		n, err := f.CountFlagged(gridview.AllFlags)
		if err != nil {
			fatalf("count flags: %v", err)
		}
		fmt.Printf("flagged: %d of %d cells (critical mask %#x)\n", n, f.SizeX()*f.SizeY(), f.CriticalFlags())
		g = f
	} else {
		a, err := gridview.LoadGrid(store, *path)
		if err != nil {
			fatalf("load %s: %v", *path, err)
		}
		g = a
	}
	if *threads > 0 {
		g.SetParallel(*threads)
	}

	s, err := gridview.Summarize(g)
	if err != nil {
		fatalf("summarize: %v", err)
	}
	dt := g.ElementType()
	fmt.Printf("%s (%s, %d bytes) %dx%d\n", dt, dt.BasicType.Human(), dt.ByteSize, g.SizeX(), g.SizeY())
	fmt.Println(s)
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
