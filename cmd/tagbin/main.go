// Copyright (c) 2025 Neomantra Corp

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	"github.com/codezerg/tagbin"
	"github.com/codezerg/tagbin/internal/parquetbridge"
)

///////////////////////////////////////////////////////////////////////////////

var (
	forceZstdInput  = false
	forceZstdOutput = false
)

func requireNoError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

func requireNoErrorWithoutPrint(err error) {
	if err != nil {
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////

func main() {
	cobra.OnInitialize()

	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVarP(&forceZstdInput, "zstd", "z", false, "Input is zstd (useful for handling zstd on stdin)")

	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().BoolVarP(&forceZstdInput, "zstd", "z", false, "Input is zstd (useful for handling zstd on stdin)")
	decodeCmd.Flags().Bool("json", false, "Print the decoded value as JSON")

	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().BoolVarP(&forceZstdOutput, "zstd", "z", false, "Compress output with zstd")

	rootCmd.AddCommand(exportParquetCmd)
	exportParquetCmd.Flags().BoolVarP(&forceZstdInput, "zstd", "z", false, "Input is zstd")

	err := rootCmd.Execute()
	requireNoErrorWithoutPrint(err)
}

///////////////////////////////////////////////////////////////////////////////

var rootCmd = &cobra.Command{
	Use:   "tagbin",
	Short: "tagbin inspects and converts self-describing tagbin streams",
	Long:  "tagbin inspects and converts self-describing tagbin streams",
}

///////////////////////////////////////////////////////////////////////////////

var inspectCmd = &cobra.Command{
	Use:   "inspect file...",
	Short: "Prints a token-by-token trace of a tagbin stream",
	Long:  "Prints a token-by-token trace of a tagbin stream",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, sourceFile := range args {
			if err := inspectFile(sourceFile, forceZstdInput); err != nil {
				fmt.Fprintf(os.Stderr, "error: inspecting %s: %s\n", sourceFile, err.Error())
			}
		}
	},
}

func inspectFile(sourceFile string, forceZstd bool) error {
	rd, err := tagbin.OpenReader(sourceFile, forceZstd)
	if err != nil {
		return err
	}
	defer rd.Close()

	v := &inspectVisitor{}
	for i := 0; ; i++ {
		if err := rd.SkipClearCommands(); err != nil {
			return err
		}
		tt, err := rd.PeekType()
		if err != nil {
			return err
		}
		if tt == tagbin.TokenEndOfStream {
			break
		}
		fmt.Printf("--- value %d ---\n", i)
		if err := rd.Walk(v); err != nil {
			return err
		}
	}
	return nil
}

// inspectVisitor prints an indented trace of every event Walk emits,
// formatting binary/string sizes with go-humanize the way dbn-go-hist
// reports download sizes.
type inspectVisitor struct {
	depth int
}

func (v *inspectVisitor) indent() string { return strings.Repeat("  ", v.depth) }

func (v *inspectVisitor) OnNil() error {
	fmt.Printf("%snil\n", v.indent())
	return nil
}
func (v *inspectVisitor) OnBool(b bool) error {
	fmt.Printf("%sbool: %v\n", v.indent(), b)
	return nil
}
func (v *inspectVisitor) OnInt(n int64) error {
	fmt.Printf("%sint: %d\n", v.indent(), n)
	return nil
}
func (v *inspectVisitor) OnFloat(f float64) error {
	fmt.Printf("%sfloat: %g\n", v.indent(), f)
	return nil
}
func (v *inspectVisitor) OnString(s string) error {
	fmt.Printf("%sstring(%s): %q\n", v.indent(), humanize.Bytes(uint64(len(s))), s)
	return nil
}
func (v *inspectVisitor) OnBinary(b []byte) error {
	fmt.Printf("%sbinary: %s\n", v.indent(), humanize.Bytes(uint64(len(b))))
	return nil
}
func (v *inspectVisitor) OnArrayBegin(n int) error {
	if n < 0 {
		fmt.Printf("%sarray (unbounded)\n", v.indent())
	} else {
		fmt.Printf("%sarray[%d]\n", v.indent(), n)
	}
	v.depth++
	return nil
}
func (v *inspectVisitor) OnArrayEnd() error {
	v.depth--
	return nil
}
func (v *inspectVisitor) OnMapBegin(n int) error {
	if n < 0 {
		fmt.Printf("%smap (unbounded)\n", v.indent())
	} else {
		fmt.Printf("%smap[%d]\n", v.indent(), n)
	}
	v.depth++
	return nil
}
func (v *inspectVisitor) OnKey(key string) error {
	fmt.Printf("%skey: %s\n", v.indent(), key)
	return nil
}
func (v *inspectVisitor) OnMapEnd() error {
	v.depth--
	return nil
}

///////////////////////////////////////////////////////////////////////////////

var decodeCmd = &cobra.Command{
	Use:   "decode file...",
	Short: "Decodes the top-level dynamic value(s) of a tagbin stream as JSON",
	Long:  "Decodes the top-level dynamic value(s) of a tagbin stream as JSON",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, sourceFile := range args {
			if err := decodeFileAsJSON(sourceFile, forceZstdInput); err != nil {
				fmt.Fprintf(os.Stderr, "error: decoding %s: %s\n", sourceFile, err.Error())
			}
		}
	},
}

func decodeFileAsJSON(sourceFile string, forceZstd bool) error {
	rd, err := tagbin.OpenReader(sourceFile, forceZstd)
	if err != nil {
		return err
	}
	defer rd.Close()

	for {
		if err := rd.SkipClearCommands(); err != nil {
			return err
		}
		tt, err := rd.PeekType()
		if err != nil {
			return err
		}
		if tt == tagbin.TokenEndOfStream {
			return nil
		}
		val, err := rd.ReadAny()
		if err != nil {
			return err
		}
		jstr, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
		fmt.Printf("%s\n", jstr)
	}
}

///////////////////////////////////////////////////////////////////////////////

var encodeCmd = &cobra.Command{
	Use:   "encode file.json out",
	Short: "Reads a JSON value and re-encodes it as a dynamic tagbin stream",
	Long:  "Reads a JSON value and re-encodes it as a dynamic tagbin stream",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		requireNoError(encodeJSONFile(args[0], args[1], forceZstdOutput))
	},
}

func encodeJSONFile(sourceFile, destFile string, useZstd bool) error {
	raw, err := os.ReadFile(sourceFile)
	if err != nil {
		return err
	}
	var val any
	if err := json.Unmarshal(raw, &val); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", sourceFile, err)
	}

	wr, err := tagbin.OpenWriter(destFile, useZstd)
	if err != nil {
		return err
	}
	if err := wr.WriteAny(val); err != nil {
		wr.Close()
		return err
	}
	return wr.Close()
}

///////////////////////////////////////////////////////////////////////////////

var exportParquetCmd = &cobra.Command{
	Use:   "export-parquet file out.parquet",
	Short: "Decodes a tabular stream and writes it out as Parquet",
	Long:  "Decodes a tabular stream and writes it out as Parquet",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		requireNoError(exportTableAsParquet(args[0], args[1], forceZstdInput))
	},
}

func exportTableAsParquet(sourceFile, destFile string, forceZstd bool) error {
	rd, err := tagbin.OpenReader(sourceFile, forceZstd)
	if err != nil {
		return err
	}
	defer rd.Close()

	table, _, err := tagbin.ReadTable(rd)
	if err != nil {
		return fmt.Errorf("failed to read table: %w", err)
	}
	return parquetbridge.ExportTable(table, destFile)
}
