package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"table-manager/core/codec"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	inspectCharset string
	inspectRows    int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the schema, record count and first rows of a binary table file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectCharset, "charset", "", "Legacy charset of strings (e.g. euc-kr)")
	inspectCmd.Flags().IntVar(&inspectRows, "rows", 5, "Number of rows to print")
	RootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	count, err := codec.PeekRecordCount(bytes.NewReader(data))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s, %d records\n", path, humanize.Bytes(uint64(len(data))), count)

	c, err := codec.New(codec.Options{Charset: inspectCharset})
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	f, err := c.Decode(name, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "tag %d, %d columns\n\n", f.Metadata.Format.Tag, len(f.Columns))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tTYPE\tCODE\tLENGTH")
	for i, col := range f.Columns {
		code := "-"
		if col.SourceTypeCode != nil {
			code = fmt.Sprint(*col.SourceTypeCode)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", i, col.Name, col.Type, code, col.Length)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	n := min(inspectRows, len(f.Rows))
	if n <= 0 {
		return nil
	}
	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(f.ColumnNames(), "\t"))
	for _, row := range f.Rows[:n] {
		cells := make([]string, len(f.Columns))
		for i, col := range f.Columns {
			cells[i] = row.Get(col.Name).String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
