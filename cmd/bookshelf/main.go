// Command bookshelf exports the marked listings of a Bookpedia catalog.
//
//	bookshelf export --store Bookpedia.db --output books.html
//	bookshelf history --state failed
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/goliatone/go-bookshelf"
	"github.com/goliatone/go-bookshelf/adapters/logging"
	bookcmd "github.com/goliatone/go-bookshelf/command"
	"github.com/goliatone/go-bookshelf/config"
	"github.com/goliatone/go-bookshelf/export"
	bookqry "github.com/goliatone/go-bookshelf/query"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

type CLI struct {
	Marker    string `help:"Inclusion marker looked up in private notes." placeholder:"LIST"`
	Table     string `help:"Listing table in the catalog store." placeholder:"Listing"`
	HistoryDB string `name:"history-db" help:"SQLite file that records export history." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFormat string `help:"Log format (text, json)."`
	DebugSQL  bool   `name:"debug-sql" help:"Log catalog queries."`

	Export  exportCmd  `cmd:"" help:"Export the marked listings to a file."`
	Batch   batchCmd   `cmd:"" help:"Run every export listed in a JSON batch file."`
	History historyCmd `cmd:"" help:"Show recorded exports, newest first."`
	Formats formatsCmd `cmd:"" help:"List the available output formats."`
}

type app struct {
	ctx context.Context
	out io.Writer
}

type exportCmd struct {
	Store      string `required:"" help:"Catalog store (SQLite file)." type:"path"`
	Output     string `required:"" short:"o" help:"Destination file; replaced if it exists."`
	Format     string `short:"f" help:"Output format; inferred from the output extension when empty."`
	MaxBytes   int64  `name:"max-bytes" help:"Reject documents larger than this many bytes."`
	MaxEntries int    `name:"max-entries" help:"Reject reports with more than this many entries."`
}

func (c *exportCmd) Run(a *app) error {
	msg := bookcmd.ExportReport{
		StorePath:  c.Store,
		OutputPath: c.Output,
		Format:     export.Format(c.Format),
		Options: export.RenderOptions{
			MaxBytes: c.MaxBytes,
			Template: export.TemplateOptions{MaxEntries: c.MaxEntries},
		},
	}
	result, err := dispatcher.DispatchWithResult[bookcmd.ExportReport, export.ExportResult](a.ctx, msg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "exported %d %s to %s (%s, %s)\n",
		result.Rows, plural(result.Rows, "entry", "entries"), result.OutputPath,
		result.Format, humanize.Bytes(uint64(result.Bytes)))
	return nil
}

type batchCmd struct {
	From string `arg:"" help:"JSON file listing {store, output, format} items." type:"path"`
}

func (c *batchCmd) Run(a *app) error {
	count, err := dispatcher.DispatchWithResult[bookcmd.BatchExport, int](a.ctx, bookcmd.BatchExport{From: c.From})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "completed %d %s\n", count, plural(int64(count), "export", "exports"))
	return nil
}

type historyCmd struct {
	State string `help:"Only show exports in this state."`
	Limit int    `short:"n" help:"Maximum number of exports to show." default:"20"`
}

func (c *historyCmd) Run(a *app) error {
	records, err := dispatcher.Query[bookqry.ExportHistory, []export.ExportRecord](a.ctx, bookqry.ExportHistory{
		Filter: export.ProgressFilter{State: export.ExportState(c.State), Limit: c.Limit},
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(a.out, "no exports recorded")
		return nil
	}

	table := tablewriter.NewWriter(a.out)
	table.SetHeader([]string{"ID", "State", "Format", "Rows", "Size", "Output", "Started"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, record := range records {
		table.Append([]string{
			shortID(record.ID),
			stateLabel(record.State),
			string(record.Format),
			strconv.FormatInt(record.Rows, 10),
			humanize.Bytes(uint64(record.Bytes)),
			record.OutputPath,
			humanize.Time(record.CreatedAt),
		})
	}
	table.Render()
	return nil
}

type formatsCmd struct{}

func (formatsCmd) Run(a *app) error {
	formats, err := dispatcher.Query[bookqry.Formats, []export.Format](a.ctx, bookqry.Formats{})
	if err != nil {
		return err
	}
	for _, format := range formats {
		fmt.Fprintf(a.out, "%-8s %s\n", format, export.ContentType(format))
	}
	return nil
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	loadEnvFiles()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("bookshelf"),
		kong.Description("Export marked catalog listings as a book report."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		printError(stderr, err)
		return 1
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	cfg := config.Load()
	cli.apply(&cfg)

	logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		printError(stderr, err)
		return 1
	}
	defer closeLog()

	runner, cleanup, err := bookshelf.NewRunner(cfg, logging.NewAdapter(logger))
	if err != nil {
		printError(stderr, err)
		return 1
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Error("cleanup failed", "error", err)
		}
	}()

	subs, err := bookshelf.RegisterHandlers(nil, runner)
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()
	if err != nil {
		printError(stderr, err)
		return 1
	}

	if err := kctx.Run(&app{ctx: ctx, out: stdout}); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

// apply overrides cfg with flags that were set.
func (c CLI) apply(cfg *config.Config) {
	if c.Marker != "" {
		cfg.Marker = c.Marker
	}
	if c.Table != "" {
		cfg.Table = c.Table
	}
	if c.HistoryDB != "" {
		cfg.HistoryDB = c.HistoryDB
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.LogFormat = c.LogFormat
	}
	if c.DebugSQL {
		cfg.DebugSQL = true
	}
}

func loadEnvFiles() {
	// Values already in the environment win.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

func printError(w io.Writer, err error) {
	// Report the export kind even when a dispatcher wrapped the error.
	var exportErr *export.ExportError
	mapped := err
	if errors.As(err, &exportErr) {
		mapped = exportErr
	}
	ge := export.AsGoError(mapped)
	if ge == nil {
		return
	}
	code := ge.TextCode
	if exportErr == nil {
		if origin := export.OriginTextCode(err); origin != "" {
			code = origin
		}
	}
	red := color.New(color.FgRed, color.Bold)
	if code != "" {
		red.Fprintf(w, "error [%s/%s]: ", ge.Category, code)
	} else {
		red.Fprintf(w, "error [%s]: ", ge.Category)
	}
	fmt.Fprintln(w, err.Error())
}

func stateLabel(state export.ExportState) string {
	switch state {
	case export.StateCompleted:
		return color.GreenString(string(state))
	case export.StateFailed:
		return color.RedString(string(state))
	default:
		return color.YellowString(string(state))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
