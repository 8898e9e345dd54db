package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"rbindex/domain/huffman"
)

var huffmanCmd = &cobra.Command{
	Use:   "huffman",
	Short: "build prefix codes from symbol frequencies",
}

var huffmanCodesCmd = &cobra.Command{
	Use:   "codes TEXT",
	Short: "print the code table derived from TEXT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := huffman.Build(huffman.FrequencyOf(args[0]))
		if err != nil {
			return err
		}
		printCodes(cmd.OutOrStdout(), code)
		return nil
	},
}

var huffmanEncodeCmd = &cobra.Command{
	Use:   "encode TEXT",
	Short: "encode TEXT with a code built from its own frequencies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := huffman.Build(huffman.FrequencyOf(args[0]))
		if err != nil {
			return err
		}
		bits, err := code.Encode(args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, bits)
		fmt.Fprintf(w, "%d bits, %.1f%% saved\n", len(bits), huffman.CompressionRatio(args[0], bits))
		return nil
	},
}

var huffmanDecodeCmd = &cobra.Command{
	Use:   "decode BITS",
	Short: "decode BITS with the code built from --from",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := cmd.Flags().GetString("from")
		if err != nil {
			return err
		}
		code, err := huffman.Build(huffman.FrequencyOf(from))
		if err != nil {
			return err
		}
		text, err := code.Decode(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	huffmanDecodeCmd.Flags().String("from", "", "text whose frequencies define the code")
	_ = huffmanDecodeCmd.MarkFlagRequired("from")

	huffmanCmd.AddCommand(huffmanCodesCmd, huffmanEncodeCmd, huffmanDecodeCmd)
	RootCmd.AddCommand(huffmanCmd)
}

func printCodes(w io.Writer, code *huffman.Code) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Symbol", "Freq", "Code"})
	for _, e := range code.Codes() {
		t.AppendRow(table.Row{strconv.QuoteRune(e.Symbol), e.Freq, e.Bits})
	}
	t.Render()
}
