package command

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-bookshelf/export"
	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
)

// BatchItem describes one export in a batch file.
type BatchItem struct {
	StorePath  string        `json:"store"`
	OutputPath string        `json:"output"`
	Format     export.Format `json:"format,omitempty"`
}

// BatchLoader loads batch items from a source.
type BatchLoader func(ctx context.Context) ([]BatchItem, error)

// BatchCommand wires CLI/Cron execution for batch exports.
type BatchCommand struct {
	exporter   Exporter
	loader     BatchLoader
	cliConfig  gcmd.CLIConfig
	cronConfig gcmd.HandlerConfig
	limits     BatchLimits
	sleep      func(time.Duration)
}

// BatchOption customizes batch commands.
type BatchOption func(*BatchCommand)

// BatchLimits bounds batch execution throughput.
type BatchLimits struct {
	MaxItems    int
	MinInterval time.Duration
}

// WithBatchCLIConfig overrides CLI configuration.
func WithBatchCLIConfig(cfg gcmd.CLIConfig) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.cliConfig = cfg
	}
}

// WithBatchCronConfig overrides cron configuration.
func WithBatchCronConfig(cfg gcmd.HandlerConfig) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.cronConfig = cfg
	}
}

// WithBatchLimits overrides batch execution limits.
func WithBatchLimits(limits BatchLimits) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.limits = limits
	}
}

// WithBatchLoader sets the loader used when no batch file is given.
func WithBatchLoader(loader BatchLoader) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.loader = loader
	}
}

// NewBatchCommand creates a batch export CLI/Cron command.
func NewBatchCommand(exporter Exporter, opts ...BatchOption) *BatchCommand {
	cmd := &BatchCommand{
		exporter: exporter,
		cliConfig: gcmd.CLIConfig{
			Path:        []string{"batch"},
			Description: "Run every export listed in a batch file",
			Group:       "exports",
		},
		cronConfig: gcmd.HandlerConfig{Expression: "0 2 * * *"},
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cmd)
		}
	}
	return cmd
}

// CronHandler executes the loader-provided batch.
func (c *BatchCommand) CronHandler() func() error {
	return func() error {
		_, err := c.run(context.Background(), "")
		return err
	}
}

// CronOptions returns cron configuration.
func (c *BatchCommand) CronOptions() gcmd.HandlerConfig {
	if c == nil {
		return gcmd.HandlerConfig{}
	}
	return c.cronConfig
}

// CLIHandler exposes the CLI handler.
func (c *BatchCommand) CLIHandler() any {
	return &batchCLI{cmd: c}
}

// CLIOptions returns CLI configuration.
func (c *BatchCommand) CLIOptions() gcmd.CLIConfig {
	if c == nil {
		return gcmd.CLIConfig{}
	}
	return c.cliConfig
}

// Run executes the batch found at from, or the loader batch when from is empty.
func (c *BatchCommand) Run(ctx context.Context, from string) (int, error) {
	return c.run(ctx, from)
}

func (c *BatchCommand) run(ctx context.Context, from string) (int, error) {
	if c == nil {
		return 0, export.KeepTextCode(errors.New("batch command is nil", errors.CategoryInternal).
			WithTextCode("BATCH_CMD_NIL"))
	}
	if c.exporter == nil {
		return 0, export.KeepTextCode(errors.New("batch exporter is required", errors.CategoryValidation).
			WithTextCode("EXPORTER_REQUIRED"))
	}

	items, err := c.loadItems(ctx, from)
	if err != nil {
		return 0, err
	}

	count := 0
	for i, item := range items {
		if c.limits.MaxItems > 0 && count >= c.limits.MaxItems {
			break
		}
		msg := ExportReport{StorePath: item.StorePath, OutputPath: item.OutputPath, Format: item.Format}
		if err := msg.Validate(); err != nil {
			return count, export.KeepTextCode(errors.Wrap(err, errors.CategoryValidation, "batch item "+itemLabel(i, item)+" invalid").
				WithTextCode("BATCH_ITEM_INVALID"))
		}
		if _, err := c.exporter.Run(ctx, msg.Request()); err != nil {
			return count, err
		}
		count++
		if c.limits.MinInterval > 0 && c.sleep != nil {
			c.sleep(c.limits.MinInterval)
		}
	}
	return count, nil
}

func (c *BatchCommand) loadItems(ctx context.Context, from string) ([]BatchItem, error) {
	if strings.TrimSpace(from) != "" {
		return loadBatchFile(from)
	}
	if c.loader == nil {
		return nil, export.KeepTextCode(errors.New("batch loader not configured", errors.CategoryValidation).
			WithTextCode("LOADER_REQUIRED"))
	}
	return c.loader(ctx)
}

type batchCLI struct {
	cmd  *BatchCommand
	From string `kong:"name='from',required,help='Path to JSON batch export file'"`
}

func (c *batchCLI) Run() error {
	if c == nil || c.cmd == nil {
		return export.KeepTextCode(errors.New("batch command is required", errors.CategoryInternal).
			WithTextCode("BATCH_CMD_NIL"))
	}
	_, err := c.cmd.run(context.Background(), c.From)
	return err
}

func loadBatchFile(path string) ([]BatchItem, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, export.KeepTextCode(errors.Wrap(err, errors.CategoryExternal, "read batch file failed").
			WithTextCode("BATCH_FILE_READ"))
	}

	var items []BatchItem
	if err := json.Unmarshal(content, &items); err != nil {
		return nil, export.KeepTextCode(errors.Wrap(err, errors.CategoryValidation, "batch file invalid JSON").
			WithTextCode("BATCH_FILE_INVALID"))
	}
	return items, nil
}

func itemLabel(index int, item BatchItem) string {
	if item.OutputPath != "" {
		return item.OutputPath
	}
	return "#" + strconv.Itoa(index)
}
