package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rbindex/domain/rbtree"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "insert and delete keys and print the tree after each phase",
	RunE: func(cmd *cobra.Command, args []string) error {
		inserts, err := cmd.Flags().GetInt64Slice("insert")
		if err != nil {
			return err
		}
		deletes, err := cmd.Flags().GetInt64Slice("delete")
		if err != nil {
			return err
		}
		plain, err := cmd.Flags().GetBool("no-color")
		if err != nil {
			return err
		}
		return runDemo(cmd.OutOrStdout(), inserts, deletes, !plain)
	},
}

func init() {
	demoCmd.Flags().Int64Slice("insert", []int64{10, 20, 30, 15, 25, 5, 35}, "keys to insert, in order")
	demoCmd.Flags().Int64Slice("delete", []int64{20, 10}, "keys to delete afterwards, in order")
	demoCmd.Flags().Bool("no-color", false, "print without ANSI colors")
	RootCmd.AddCommand(demoCmd)
}

func runDemo(w io.Writer, inserts, deletes []int64, colored bool) error {
	tree := rbtree.New[int64]()

	for _, k := range inserts {
		if err := tree.Insert(k); err != nil {
			return err
		}
	}
	if err := dump(w, tree, "after insert", colored); err != nil {
		return err
	}

	for _, k := range deletes {
		if err := tree.Delete(k); err != nil {
			fmt.Fprintf(w, "delete %d: %v\n", k, err)
		}
	}
	return dump(w, tree, "after delete", colored)
}

func dump(w io.Writer, tree *rbtree.Tree[int64], title string, colored bool) error {
	red := color.New(color.FgRed)
	black := color.New(color.FgHiBlack)
	if !colored {
		red.DisableColor()
		black.DisableColor()
	}

	fmt.Fprintf(w, "== %s (%d keys, height %d)\n", title, tree.Len(), tree.Height())
	var parts []string
	for k, c := range tree.InOrder() {
		p := black
		if c == rbtree.Red {
			p = red
		}
		parts = append(parts, p.Sprintf("%d(%s)", k, c))
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
	tree.Fprint(w)
	return tree.Check()
}
