// Command rtreectl is a peripheral CLI driver over a disk-backed
// rtree.Tree. It is intentionally thin: load or create an index at a
// base path, run one subcommand against it, flush, exit. It exists to
// poke the library from a shell, not as a query language.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rtreedb/rtreedb/geometry"
	"github.com/rtreedb/rtreedb/rtree"
	"github.com/rtreedb/rtreedb/storage"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	path := fs.String("path", "./rtree-data", "base path for the on-disk index")
	variant := fs.String("variant", "rstar", "split variant for a newly created index: linear, quadratic, rstar")
	fs.Parse(os.Args[2:])
	args := fs.Args()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rtreectl: logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	manager, err := storage.NewDiskManager(storage.DefaultDiskConfig(*path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "rtreectl: open storage at %s: %v\n", *path, err)
		os.Exit(1)
	}
	defer manager.Close()

	tree, err := openOrCreate(manager, *variant, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rtreectl: %v\n", err)
		os.Exit(1)
	}

	if err := run(tree, cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "rtreectl: %v\n", err)
		tree.Close()
		os.Exit(1)
	}

	if err := tree.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "rtreectl: flush: %v\n", err)
		os.Exit(1)
	}
	if err := tree.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "rtreectl: close: %v\n", err)
		os.Exit(1)
	}
}

func openOrCreate(manager storage.Manager, variant string, logger *zap.Logger) (*rtree.Tree, error) {
	if tree, err := rtree.Open(manager, logger); err == nil {
		return tree, nil
	}

	cfg := rtree.DefaultConfig()
	switch variant {
	case "linear":
		cfg.Variant = rtree.VariantLinear
	case "quadratic":
		cfg.Variant = rtree.VariantQuadratic
	case "rstar":
		cfg.Variant = rtree.VariantRStar
	default:
		return nil, fmt.Errorf("unknown variant %q (want linear, quadratic, or rstar)", variant)
	}
	return rtree.New(manager, cfg, logger)
}

func run(tree *rtree.Tree, cmd string, args []string) error {
	switch cmd {
	case "insert":
		return runInsert(tree, args)
	case "delete":
		return runDelete(tree, args)
	case "query":
		return runQuery(tree, args)
	case "nearest":
		return runNearest(tree, args)
	case "stats":
		return runStats(tree)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runInsert(tree *rtree.Tree, args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("insert requires: <id> <xlo> <ylo> <xhi> <yhi>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	region, err := parseRegion(args[1:])
	if err != nil {
		return err
	}
	if err := tree.Insert(id, region, nil); err != nil {
		return err
	}
	fmt.Printf("inserted id=%d\n", id)
	return nil
}

func runDelete(tree *rtree.Tree, args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("delete requires: <id> <xlo> <ylo> <xhi> <yhi>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	region, err := parseRegion(args[1:])
	if err != nil {
		return err
	}
	if err := tree.Delete(id, region); err != nil {
		return err
	}
	fmt.Printf("deleted id=%d\n", id)
	return nil
}

func runQuery(tree *rtree.Tree, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("query requires: <xlo> <ylo> <xhi> <yhi>")
	}
	region, err := parseRegion(args)
	if err != nil {
		return err
	}
	results, err := tree.IntersectsWithQuery(region)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%d\t%s\n", r.ID, formatRegion(r.MBR))
	}
	return nil
}

func runNearest(tree *rtree.Tree, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("nearest requires: <k> <x> <y>")
	}
	k, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("k: %w", err)
	}
	x, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("y: %w", err)
	}
	comparator := rtree.PointComparator{Query: geometry.NewPoint([2]float64{x, y})}
	results, err := tree.NearestNeighborQuery(k, comparator)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%d\t%s\t%.6f\n", r.ID, formatRegion(r.MBR), r.Distance)
	}
	return nil
}

func runStats(tree *rtree.Tree) error {
	stats := tree.Stats()
	fmt.Printf("height: %d\n", stats.Height)
	fmt.Printf("nodes: %d\n", stats.Nodes)
	fmt.Printf("data: %d\n", stats.Data)
	fmt.Printf("splits: %d\n", stats.Splits)
	fmt.Printf("reinsertions: %d\n", stats.Reinsertions)
	return nil
}

func parseRegion(args []string) (geometry.Region, error) {
	coords := make([]float64, 4)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return geometry.Region{}, fmt.Errorf("coordinate %q: %w", a, err)
		}
		coords[i] = v
	}
	return geometry.NewRegion(
		geometry.NewPoint([2]float64{coords[0], coords[1]}),
		geometry.NewPoint([2]float64{coords[2], coords[3]}),
	), nil
}

func formatRegion(r geometry.Region) string {
	return fmt.Sprintf("[%v, %v]", strings.Trim(fmt.Sprint(r.Low), "[]"), strings.Trim(fmt.Sprint(r.High), "[]"))
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: rtreectl [-path dir] [-variant linear|quadratic|rstar] <command> [args]

commands:
  insert <id> <xlo> <ylo> <xhi> <yhi>
  delete <id> <xlo> <ylo> <xhi> <yhi>
  query  <xlo> <ylo> <xhi> <yhi>
  nearest <k> <x> <y>
  stats`)
}
