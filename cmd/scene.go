package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/Benny93/nlvr-graph/internal/formula"
	"github.com/Benny93/nlvr-graph/internal/graph"
	"github.com/Benny93/nlvr-graph/internal/ingestion"
	"github.com/Benny93/nlvr-graph/internal/storage"
	"github.com/Benny93/nlvr-graph/internal/vocab"
)

// BuildCmd builds graphs straight from a file.
type BuildCmd struct {
	File string `arg:"" help:"Dataset file or bare structured representation" type:"existingfile"`
	JSON bool   `help:"Print objects as JSON"`
}

// Run executes the build command.
func (c *BuildCmd) Run(g *Globals) error {
	cfg, err := g.settings()
	if err != nil {
		return err
	}

	records, err := ingestion.ReadFile(c.File)
	if err != nil {
		return err
	}

	for _, rec := range records {
		sg, err := buildGraph(rec, cfg)
		if err != nil {
			return err
		}

		if c.JSON {
			data, err := json.MarshalIndent(map[string]any{
				"identifier": sg.Identifier(),
				"boxes":      sg.Boxes(),
				"formulas":   formulaStrings(sg.AllUnaryFormulas()),
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling scene: %w", err)
			}
			fmt.Fprintln(g.out(), string(data))
			continue
		}

		printScene(g.out(), sg, rec)
		fmt.Fprintln(g.out())
	}
	return nil
}

// ShowCmd prints a stored scene.
type ShowCmd struct {
	Identifier string `arg:"" help:"Scene identifier"`
}

// Run executes the show command.
func (c *ShowCmd) Run(g *Globals) error {
	sg, rec, err := loadScene(g, c.Identifier)
	if err != nil {
		return err
	}
	printScene(g.out(), sg, rec)
	return nil
}

// FormulasCmd prints the formulas of a stored scene.
type FormulasCmd struct {
	Identifier string `arg:"" help:"Scene identifier"`
	Entities   bool   `short:"e" help:"Also list an entity formula for every box and object"`
}

// Run executes the formulas command.
func (c *FormulasCmd) Run(g *Globals) error {
	sg, _, err := loadScene(g, c.Identifier)
	if err != nil {
		return err
	}

	if c.Entities {
		for _, b := range sg.Boxes() {
			sg.AddEntityFormula(formula.Entity(b.ID))
		}
		for _, o := range sg.Objects() {
			sg.AddEntityFormula(formula.Entity(o.ID))
		}
	}

	for _, f := range sg.AllFormulas() {
		fmt.Fprintln(g.out(), f)
	}
	return nil
}

// MatchCmd matches a phrase against a stored scene.
type MatchCmd struct {
	Identifier string   `arg:"" help:"Scene identifier"`
	Phrase     []string `arg:"" help:"Phrase to match"`
}

// Run executes the match command.
func (c *MatchCmd) Run(g *Globals) error {
	sg, _, err := loadScene(g, c.Identifier)
	if err != nil {
		return err
	}

	matched := sg.FuzzyMatchedFormulas(strings.Join(c.Phrase, " "))
	if len(matched) == 0 {
		fmt.Fprintln(g.out(), "No formulas matched")
		return nil
	}
	for _, f := range matched {
		fmt.Fprintln(g.out(), f)
	}
	return nil
}

// JoinCmd joins or filters a relation of a stored scene.
type JoinCmd struct {
	Identifier string   `arg:"" help:"Scene identifier"`
	Relation   string   `arg:"" help:"Relation name, e.g. nlvr:color.object"`
	Values     []string `arg:"" optional:"" help:"Entity names or integers"`
	Reverse    bool     `short:"r" help:"Flip the relation's direction (!r becomes r)"`
	Filter     bool     `help:"Print matching pairs instead of the other side"`
	Second     bool     `help:"Match values against the second element"`
}

// Run executes the join command.
func (c *JoinCmd) Run(g *Globals) error {
	sg, _, err := loadScene(g, c.Identifier)
	if err != nil {
		return err
	}

	relation := c.Relation
	if c.Reverse {
		relation = vocab.FlipDirection(relation)
	}

	values := make([]formula.Value, len(c.Values))
	for i, v := range c.Values {
		values[i] = formula.ParseValue(v)
	}

	if c.Filter {
		filter := sg.FilterFirst
		if c.Second {
			filter = sg.FilterSecond
		}
		pairs, err := filter(relation, values)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			fmt.Fprintf(g.out(), "%s\t%s\n", p.First, p.Second)
		}
		return nil
	}

	join := sg.JoinFirst
	if c.Second {
		join = sg.JoinSecond
	}
	result, err := join(relation, values)
	if err != nil {
		return err
	}
	for _, v := range result {
		fmt.Fprintln(g.out(), v)
	}
	return nil
}

// SearchCmd searches stored utterances.
type SearchCmd struct {
	Query []string `arg:"" help:"Search query"`
	Limit int      `short:"n" help:"Maximum results (default from config)"`
}

// Run executes the search command.
func (c *SearchCmd) Run(g *Globals) error {
	ctx := context.Background()
	cfg, err := g.settings()
	if err != nil {
		return err
	}

	store, err := openStorage(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	limit := c.Limit
	if limit <= 0 {
		limit = cfg.SearchLimit
	}

	results, err := storage.SearchSentences(ctx, store, strings.Join(c.Query, " "), limit)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if len(results) == 0 {
		fmt.Fprintln(g.out(), "No results found")
		return nil
	}

	for i, r := range results {
		fmt.Fprintf(g.out(), "\n%d. %s (%s)\n", i+1, r.Identifier, r.Label)
		fmt.Fprintf(g.out(), "   %s\n", r.Sentence)
		fmt.Fprintf(g.out(), "   Score: %.4f\n", r.Score)
	}
	return nil
}

// loadScene fetches a stored record and builds its graph.
func loadScene(g *Globals, identifier string) (*graph.SceneGraph, storage.SceneRecord, error) {
	cfg, err := g.settings()
	if err != nil {
		return nil, storage.SceneRecord{}, err
	}

	store, err := openStorage(cfg, true)
	if err != nil {
		return nil, storage.SceneRecord{}, err
	}
	defer func() { _ = store.Close() }()

	rec, err := store.GetRecord(context.Background(), identifier)
	if err != nil {
		return nil, storage.SceneRecord{}, fmt.Errorf("scene %s: %w", identifier, err)
	}

	sg, err := buildGraph(rec, cfg)
	if err != nil {
		return nil, storage.SceneRecord{}, err
	}
	return sg, rec, nil
}

func printScene(w io.Writer, sg *graph.SceneGraph, rec storage.SceneRecord) {
	color.New(color.FgGreen).Fprintf(w, "Scene %s\n", sg.Identifier())
	if rec.Sentence != "" {
		fmt.Fprintf(w, "  Sentence: %s\n", rec.Sentence)
	}
	if rec.Label != "" {
		fmt.Fprintf(w, "  Label:    %s\n", rec.Label)
	}
	fmt.Fprintf(w, "  %d boxes, %d objects\n", sg.BoxCount(), sg.ObjectCount())

	for _, b := range sg.Boxes() {
		fmt.Fprintf(w, "\n  %s\n", b.ID)
		if len(b.Objects) == 0 {
			fmt.Fprintln(w, "    (empty)")
		}
		for _, o := range b.Objects {
			fmt.Fprintf(w, "    %-18s %-7s %-9s size %-3d at (%d, %d)  right %d  bottom %d\n",
				o.ID, o.Color, o.Shape, o.Size, o.X, o.Y, o.DistanceToRight, o.DistanceToBottom)
		}
	}
}

func formulaStrings(fs []formula.Formula) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.String()
	}
	return out
}
