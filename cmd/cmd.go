// Package cmd provides CLI command implementations for nlvr-graph.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/Benny93/nlvr-graph/internal/config"
	"github.com/Benny93/nlvr-graph/internal/graph"
	"github.com/Benny93/nlvr-graph/internal/ingestion"
	"github.com/Benny93/nlvr-graph/internal/scene"
	"github.com/Benny93/nlvr-graph/internal/storage"
	"github.com/Benny93/nlvr-graph/internal/vocab"
	"github.com/Benny93/nlvr-graph/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Globals are the flags shared by every command.
type Globals struct {
	Config    string `help:"Config file (default .nlvr/config.yaml)" type:"path"`
	PanelSize int    `help:"Panel side length used for object distances" env:"NLVR_PANEL_SIZE"`
	DataDir   string `help:"Directory holding the scene store" env:"NLVR_DATA_DIR"`
	Verbose   bool   `short:"v" help:"Enable verbose output"`
	Quiet     bool   `short:"q" help:"Suppress non-essential output"`

	// Out receives command output; nil means stdout.
	Out io.Writer `kong:"-"`
}

func (g *Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Globals) configPath() string {
	if g.Config == "" {
		return config.DefaultPath(".")
	}
	return g.Config
}

// settings loads the config file and applies flag overrides.
func (g *Globals) settings() (*config.Config, error) {
	cfg, err := config.Load(g.configPath())
	if err != nil {
		return nil, err
	}
	if g.PanelSize != 0 {
		cfg.PanelSize = g.PanelSize
	}
	if g.DataDir != "" {
		cfg.DataDir = g.DataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logger returns a stderr logger honouring -v and -q.
func (g *Globals) logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	switch {
	case g.Verbose:
		log.SetLevel(logrus.DebugLevel)
	case g.Quiet:
		log.SetLevel(logrus.WarnLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// LoadCmd loads dataset files into the scene store.
type LoadCmd struct {
	Paths []string `arg:"" help:"Dataset files or directories" type:"path"`
}

// Run executes the load command.
func (c *LoadCmd) Run(g *Globals) error {
	ctx := context.Background()
	cfg, err := g.settings()
	if err != nil {
		return err
	}

	store, err := openStorage(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var progress ingestion.ProgressCallback
	if !g.Quiet && isTerminal(g.out()) {
		progress = func(phase string, pct float64) {
			fmt.Fprintf(g.out(), "\r\033[K%s (%.0f%%)", phase, pct*100)
		}
	}

	loader := ingestion.NewLoader(store, g.logger(), ingestion.WithLoaderPanelSize(cfg.PanelSize))
	result, err := loader.Load(ctx, c.Paths, progress)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	if progress != nil {
		fmt.Fprintln(g.out())
	}

	if err := writeMeta(cfg, result, store.RecordCount()); err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintln(g.out(), "✓ Load complete")
	fmt.Fprintf(g.out(), "  Files:          %d\n", result.Files)
	fmt.Fprintf(g.out(), "  Records:        %d\n", result.Records)
	fmt.Fprintf(g.out(), "  Stored:         %d\n", result.Stored)
	if result.Invalid > 0 {
		color.New(color.FgYellow).Fprintf(g.out(), "  Invalid:        %d\n", result.Invalid)
	}
	fmt.Fprintf(g.out(), "  Duration:       %.2fs\n", result.DurationSecs)

	return nil
}

// WatchCmd reloads dataset files as they change.
type WatchCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Dataset directory or file" type:"path"`
}

// Run executes the watch command.
func (c *WatchCmd) Run(g *Globals) error {
	cfg, err := g.settings()
	if err != nil {
		return err
	}

	store, err := openStorage(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-osSignalChannel()
		fmt.Fprintln(g.out(), "\nStopping watch mode...")
		cancel()
	}()

	fmt.Fprintln(g.out(), "## Watch Mode")
	fmt.Fprintf(g.out(), "Watching %s for changes (Ctrl+C to stop)\n\n", c.Path)

	loader := ingestion.NewLoader(store, g.logger(), ingestion.WithLoaderPanelSize(cfg.PanelSize))
	err = ingestion.WatchDataset(ctx, c.Path, loader, cfg.WatchDebounce)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Fprintln(g.out(), "Watch mode stopped.")
	return nil
}

// MCPCmd starts the MCP server over stdio.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run(g *Globals) error {
	cfg, err := g.settings()
	if err != nil {
		return err
	}

	store, err := openStorage(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-osSignalChannel()
		cancel()
	}()

	// stdout carries JSON-RPC only; logs go to stderr.
	server := mcp.NewServer(store, g.logger(), cfg.PanelSize)
	err = server.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SchemaCmd prints the scene graph vocabulary.
type SchemaCmd struct{}

// Run executes the schema command.
func (c *SchemaCmd) Run(g *Globals) error {
	w := g.out()
	fmt.Fprintln(w, "Entity types:")
	for _, name := range []string{vocab.BoxTypeName, vocab.ObjectTypeName, vocab.ColorTypeName, vocab.ShapeTypeName, vocab.IntTypeName} {
		fmt.Fprintf(w, "  %s\n", name)
	}

	fmt.Fprintln(w, "\nRelations:")
	for _, rel := range vocab.Relations() {
		spec, err := rel.Spec()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-22s %s\n", rel, spec.Type())
	}

	fmt.Fprintln(w, "\nValues:")
	for _, col := range scene.Colors() {
		fmt.Fprintf(w, "  %s\n", col.ValueName())
	}
	for _, sh := range scene.Shapes() {
		fmt.Fprintf(w, "  %s\n", sh.ValueName())
	}
	return nil
}

// InitCmd writes a config file holding the current settings.
type InitCmd struct {
	Force bool `short:"f" help:"Overwrite an existing config file"`
}

// Run executes the init command.
func (c *InitCmd) Run(g *Globals) error {
	path := g.configPath()
	if _, err := os.Stat(path); err == nil && !c.Force {
		return fmt.Errorf("config file %s already exists. Use -f to overwrite", path)
	}

	cfg, err := g.settings()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(g.out(), "✓ Wrote %s\n", path)
	return nil
}

// ListCmd lists the identifiers of stored scenes.
type ListCmd struct{}

// Run executes the list command.
func (c *ListCmd) Run(g *Globals) error {
	cfg, err := g.settings()
	if err != nil {
		return err
	}

	store, err := openStorage(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ids, err := store.ListIdentifiers(context.Background())
	if err != nil {
		return fmt.Errorf("listing scenes: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(g.out(), "No scenes stored")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(g.out(), id)
	}
	return nil
}

// StatusCmd shows the state of the scene store.
type StatusCmd struct{}

// Run executes the status command.
func (c *StatusCmd) Run(g *Globals) error {
	cfg, err := g.settings()
	if err != nil {
		return err
	}

	store, err := openStorage(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fmt.Fprintf(g.out(), "Scene store at %s\n", cfg.DataDir)
	fmt.Fprintf(g.out(), "  Scenes:         %d\n", store.RecordCount())
	fmt.Fprintf(g.out(), "  Panel size:     %d\n", cfg.PanelSize)

	meta, err := readMeta(cfg)
	if err != nil {
		return err
	}
	if meta != nil {
		fmt.Fprintf(g.out(), "  Version:        %s\n", meta.Version)
		fmt.Fprintf(g.out(), "  Last loaded:    %s\n", meta.LoadedAt)
		fmt.Fprintf(g.out(), "  Last run:       %d stored, %d invalid\n", meta.Stats.Stored, meta.Stats.Invalid)
	}
	return nil
}

// CleanCmd deletes the scene store.
type CleanCmd struct {
	Force bool `short:"f" help:"Skip confirmation"`
}

// Run executes the clean command.
func (c *CleanCmd) Run(g *Globals) error {
	cfg, err := g.settings()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.DataDir); os.IsNotExist(err) {
		return fmt.Errorf("no scene store found at %s. Nothing to clean", cfg.DataDir)
	}

	if !c.Force {
		fmt.Fprintf(g.out(), "Delete scene store at %s? [y/N] ", cfg.DataDir)
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(g.out(), "Aborted")
			return nil
		}
	}

	if err := os.RemoveAll(cfg.DataDir); err != nil {
		return fmt.Errorf("deleting scene store: %w", err)
	}

	color.New(color.FgGreen).Fprintf(g.out(), "Deleted %s\n", cfg.DataDir)
	return nil
}

// Helper functions

// isTerminal reports whether w is an interactive terminal. Progress lines
// rewrite themselves with escape codes and are only shown there.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// osSignalChannel returns a channel that receives OS signals for graceful shutdown.
func osSignalChannel() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

// openStorage opens the Badger store. Read-only opens require an existing
// store.
func openStorage(cfg *config.Config, readOnly bool) (*storage.BadgerBackend, error) {
	dbPath := cfg.StorePath()
	if readOnly {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("no scene store found at %s. Run 'nlvr-graph load' first", cfg.DataDir)
		}
	} else if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating scene store directory: %w", err)
	}

	store := storage.NewBadgerBackend()
	if err := store.Initialize(dbPath, readOnly); err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// storeMeta is written next to the store after every load.
type storeMeta struct {
	Version  string                `json:"version"`
	LoadedAt string                `json:"loaded_at"`
	Scenes   int                   `json:"scenes"`
	Stats    *ingestion.LoadResult `json:"stats"`
}

func writeMeta(cfg *config.Config, result *ingestion.LoadResult, scenes int) error {
	meta := storeMeta{
		Version:  Version,
		LoadedAt: time.Now().UTC().Format(time.RFC3339),
		Scenes:   scenes,
		Stats:    result,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling meta.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.DataDir, "meta.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing meta.json: %w", err)
	}
	return nil
}

// readMeta returns nil when no load has written meta.json yet.
func readMeta(cfg *config.Config) (*storeMeta, error) {
	data, err := os.ReadFile(filepath.Join(cfg.DataDir, "meta.json"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading meta.json: %w", err)
	}
	var meta storeMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing meta.json: %w", err)
	}
	if meta.Stats == nil {
		meta.Stats = &ingestion.LoadResult{}
	}
	return &meta, nil
}

// buildGraph builds the graph of a stored or freshly read record.
func buildGraph(rec storage.SceneRecord, cfg *config.Config) (*graph.SceneGraph, error) {
	g, err := graph.Build(rec.StructuredRep, rec.Identifier, graph.WithPanelSize(cfg.PanelSize))
	if err != nil {
		return nil, fmt.Errorf("building scene %s: %w", rec.Identifier, err)
	}
	return g, nil
}

// CLI is the root command structure.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version information"`

	// Commands
	Init     InitCmd     `cmd:"" help:"Write a config file with the current settings"`
	Build    BuildCmd    `cmd:"" help:"Build scene graphs from a file without storing them"`
	Load     LoadCmd     `cmd:"" help:"Load dataset files into the scene store"`
	List     ListCmd     `cmd:"" help:"List stored scene identifiers"`
	Show     ShowCmd     `cmd:"" help:"Show the boxes and objects of a stored scene"`
	Formulas FormulasCmd `cmd:"" help:"List the formulas of a stored scene"`
	Match    MatchCmd    `cmd:"" help:"Match a phrase against a scene's color and shape formulas"`
	Join     JoinCmd     `cmd:"" help:"Join or filter a relation of a stored scene"`
	Search   SearchCmd   `cmd:"" help:"Search stored scenes by utterance"`
	Watch    WatchCmd    `cmd:"" help:"Watch a dataset directory and reload changes"`
	Schema   SchemaCmd   `cmd:"" help:"Print the scene graph vocabulary"`
	MCP      MCPCmd      `cmd:"" help:"Start MCP server (stdio transport)"`
	Status   StatusCmd   `cmd:"" help:"Show scene store status"`
	Clean    CleanCmd    `cmd:"" help:"Delete the scene store"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("nlvr-graph"),
		kong.Description("Typed entity graphs and formulas for NLVR scenes"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	return kongCtx.Run(&c.Globals)
}
