// Package mcp exposes stored NLVR scenes to MCP clients: scene inspection,
// formula synthesis, relation joins and utterance search.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/Benny93/nlvr-graph/internal/formula"
	"github.com/Benny93/nlvr-graph/internal/graph"
	"github.com/Benny93/nlvr-graph/internal/scene"
	"github.com/Benny93/nlvr-graph/internal/storage"
	"github.com/Benny93/nlvr-graph/internal/vocab"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// SceneStore is the read side of storage.SceneStore used by the server.
type SceneStore interface {
	GetRecord(ctx context.Context, identifier string) (storage.SceneRecord, error)
	ListRecords(ctx context.Context) ([]storage.SceneRecord, error)
	ListIdentifiers(ctx context.Context) ([]string, error)
	RecordCount() int
}

// Server represents the MCP server.
type Server struct {
	store     SceneStore
	log       *logrus.Logger
	panelSize int
	server    *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// Tool inputs.

type SceneInput struct {
	Identifier string `json:"identifier"`
}

type JoinInput struct {
	Identifier string   `json:"identifier"`
	Relation   string   `json:"relation"`
	Values     []string `json:"values"`
	Reverse    bool     `json:"reverse,omitempty"`
	Filter     bool     `json:"filter,omitempty"`
	Side       string   `json:"side,omitempty"`
}

type MatchInput struct {
	Identifier string `json:"identifier"`
	Phrase     string `json:"phrase"`
}

type DenoteInput struct {
	Identifier string `json:"identifier"`
	Color      string `json:"color,omitempty"`
	Shape      string `json:"shape,omitempty"`
}

type SearchInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// NewServer creates a new MCP server. A nil log discards output.
func NewServer(store SceneStore, log *logrus.Logger, panelSize int) *Server {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	if panelSize <= 0 {
		panelSize = scene.DefaultPanelSize
	}

	s := &Server{store: store, log: log, panelSize: panelSize}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "nlvr-graph",
		Version: Version,
	}, nil)

	s.registerTools()
	s.registerResources()

	return s
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func identifierSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: "Scene identifier, e.g. 1304-0"}
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "nlvr_scene",
			Description: "Describe a stored scene: its boxes and the objects inside each box with shape, color, size and position.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"identifier": identifierSchema(),
				},
				Required: []string{"identifier"},
			},
		},
		{
			Name:        "nlvr_formulas",
			Description: "List the unary color and shape formulas of a scene, one per value present in it.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"identifier": identifierSchema(),
				},
				Required: []string{"identifier"},
			},
		},
		{
			Name:        "nlvr_join",
			Description: "Join or filter a scene relation against a list of values. Join returns the other side; filter returns matching pairs.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"identifier": identifierSchema(),
					"relation":   {Type: "string", Description: "Relation name, e.g. nlvr:color.object; prefix with ! to reverse"},
					"values":     {Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "Entity names or integers"},
					"reverse":    {Type: "boolean", Description: "Flip the relation's direction; a relation already starting with ! is traversed forward"},
					"filter":     {Type: "boolean", Description: "Return matching pairs instead of the other side"},
					"side":       {Type: "string", Enum: []any{"first", "second"}, Description: "Which side the values are matched against (default first)"},
				},
				Required: []string{"identifier", "relation", "values"},
			},
		},
		{
			Name:        "nlvr_match",
			Description: "Return the scene's unary formulas whose color or shape is mentioned in a phrase.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"identifier": identifierSchema(),
					"phrase":     {Type: "string", Description: "Natural language phrase"},
				},
				Required: []string{"identifier", "phrase"},
			},
		},
		{
			Name:        "nlvr_denote",
			Description: "List the objects of a scene with the given color and/or shape.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"identifier": identifierSchema(),
					"color":      {Type: "string", Enum: []any{"blue", "black", "yellow"}},
					"shape":      {Type: "string", Enum: []any{"circle", "triangle", "square"}},
				},
				Required: []string{"identifier"},
			},
		},
		{
			Name:        "nlvr_search",
			Description: "Search stored scenes by their utterance. Returns ranked identifiers.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {Type: "string", Description: "Search query text"},
					"limit": {Type: "integer", Description: "Maximum number of results"},
				},
				Required: []string{"query"},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "nlvr://overview",
			Name:        "Dataset Overview",
			Description: "Number of stored scenes",
			MimeType:    "text/plain",
		},
		{
			URI:         "nlvr://schema",
			Name:        "Scene Graph Schema",
			Description: "Entity types, relations and naming of the scene graph",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	s.log.WithField("tool", name).Debug("tool call")

	switch name {
	case "nlvr_scene":
		return dispatch(ctx, args, s.handleScene)
	case "nlvr_formulas":
		return dispatch(ctx, args, s.handleFormulas)
	case "nlvr_join":
		return dispatch(ctx, args, s.handleJoin)
	case "nlvr_match":
		return dispatch(ctx, args, s.handleMatch)
	case "nlvr_denote":
		return dispatch(ctx, args, s.handleDenote)
	case "nlvr_search":
		return dispatch(ctx, args, s.handleSearch)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "nlvr://overview":
		return getOverview(ctx, s.store)
	case "nlvr://schema":
		return getSchema(), nil
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// dispatch decodes loosely typed arguments into In and runs h.
func dispatch[In any](ctx context.Context, args map[string]any, h func(context.Context, In) (string, error)) (string, error) {
	var in In
	data, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encoding arguments: %w", err)
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	return h(ctx, in)
}

// sceneGraph loads a record and builds its graph.
func (s *Server) sceneGraph(ctx context.Context, identifier string) (*graph.SceneGraph, error) {
	if identifier == "" {
		return nil, errors.New("identifier is required")
	}
	rec, err := s.store.GetRecord(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("loading scene %s: %w", identifier, err)
	}
	g, err := graph.Build(rec.StructuredRep, rec.Identifier, graph.WithPanelSize(s.panelSize))
	if err != nil {
		return nil, fmt.Errorf("building scene %s: %w", identifier, err)
	}
	return g, nil
}

func (s *Server) handleScene(ctx context.Context, in SceneInput) (string, error) {
	g, err := s.sceneGraph(ctx, in.Identifier)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Scene %s\n\n", g.Identifier())
	fmt.Fprintf(&sb, "%d boxes, %d objects\n", g.BoxCount(), g.ObjectCount())
	for _, box := range g.Boxes() {
		fmt.Fprintf(&sb, "\n### %s (%d objects)\n\n", box.ID, len(box.Objects))
		for _, o := range box.Objects {
			fmt.Fprintf(&sb, "- %s: %s %s, size %d at (%d, %d), %d from right, %d from bottom\n",
				o.ID, o.Color, o.Shape, o.Size, o.X, o.Y, o.DistanceToRight, o.DistanceToBottom)
		}
	}
	return sb.String(), nil
}

func (s *Server) handleFormulas(ctx context.Context, in SceneInput) (string, error) {
	g, err := s.sceneGraph(ctx, in.Identifier)
	if err != nil {
		return "", err
	}
	return formatFormulas(g.AllUnaryFormulas(), fmt.Sprintf("unary formulas of %s", g.Identifier())), nil
}

func (s *Server) handleJoin(ctx context.Context, in JoinInput) (string, error) {
	g, err := s.sceneGraph(ctx, in.Identifier)
	if err != nil {
		return "", err
	}

	relation := in.Relation
	if in.Reverse {
		relation = vocab.FlipDirection(relation)
	}

	values := make([]formula.Value, len(in.Values))
	for i, v := range in.Values {
		values[i] = formula.ParseValue(v)
	}

	second := in.Side == "second"
	if in.Side != "" && in.Side != "first" && !second {
		return "", fmt.Errorf("side must be first or second, got %q", in.Side)
	}

	if in.Filter {
		var pairs []formula.Pair
		if second {
			pairs, err = g.FilterSecond(relation, values)
		} else {
			pairs, err = g.FilterFirst(relation, values)
		}
		if err != nil {
			return "", err
		}
		return formatPairs(relation, pairs), nil
	}

	var result []formula.Value
	if second {
		result, err = g.JoinSecond(relation, values)
	} else {
		result, err = g.JoinFirst(relation, values)
	}
	if err != nil {
		return "", err
	}
	return formatValues(relation, result), nil
}

func (s *Server) handleMatch(ctx context.Context, in MatchInput) (string, error) {
	g, err := s.sceneGraph(ctx, in.Identifier)
	if err != nil {
		return "", err
	}
	return formatFormulas(g.FuzzyMatchedFormulas(in.Phrase), fmt.Sprintf("formulas matching %q", in.Phrase)), nil
}

func (s *Server) handleDenote(ctx context.Context, in DenoteInput) (string, error) {
	var predicates []formula.Formula
	if in.Color != "" {
		c, err := scene.ParseColor(in.Color)
		if err != nil {
			return "", err
		}
		predicates = append(predicates, formula.ColorPredicate(c))
	}
	if in.Shape != "" {
		sh, err := scene.ParseShape(in.Shape)
		if err != nil {
			return "", err
		}
		predicates = append(predicates, formula.ShapePredicate(sh))
	}
	if len(predicates) == 0 {
		return "", errors.New("color or shape is required")
	}

	g, err := s.sceneGraph(ctx, in.Identifier)
	if err != nil {
		return "", err
	}

	var objects []formula.Value
	for i, p := range predicates {
		denotation, err := g.Denotation(p)
		if err != nil {
			return "", err
		}
		if i == 0 {
			objects = denotation
		} else {
			objects = intersect(objects, denotation)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Objects (%d)\n\n", len(objects))
	for _, v := range objects {
		o, _ := g.ObjectByID(v.String())
		fmt.Fprintf(&sb, "- %s in %s: %s %s\n", o.ID, vocab.BoxName(o.Box), o.Color, o.Shape)
	}
	return sb.String(), nil
}

func (s *Server) handleSearch(ctx context.Context, in SearchInput) (string, error) {
	if in.Query == "" {
		return "No query provided", nil
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 10
	}

	results, err := storage.SearchSentences(ctx, s.store, in.Query, limit)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No scenes found for %q", in.Query), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Scenes matching %q\n\n", in.Query)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s [%s] %s (score %.4f)\n", i+1, r.Identifier, r.Label, r.Sentence, r.Score)
	}
	return sb.String(), nil
}

// intersect keeps the values of a that also appear in b, in a's order.
func intersect(a, b []formula.Value) []formula.Value {
	keep := make(map[string]bool, len(b))
	for _, v := range b {
		keep[v.String()] = true
	}
	out := make([]formula.Value, 0, len(a))
	for _, v := range a {
		if keep[v.String()] {
			out = append(out, v)
		}
	}
	return out
}

func formatFormulas(fs []formula.Formula, title string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %d %s\n\n", len(fs), title)
	for _, f := range fs {
		fmt.Fprintf(&sb, "- %s\n", f)
	}
	return sb.String()
}

func formatValues(relation string, values []formula.Value) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s: %d values\n\n", relation, len(values))
	for _, v := range values {
		fmt.Fprintf(&sb, "- %s\n", v)
	}
	return sb.String()
}

func formatPairs(relation string, pairs []formula.Pair) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s: %d pairs\n\n", relation, len(pairs))
	for _, p := range pairs {
		fmt.Fprintf(&sb, "- (%s, %s)\n", p.First, p.Second)
	}
	return sb.String()
}

// Resource Handlers

// overviewLimit caps the identifiers listed by the overview resource.
const overviewLimit = 50

func getOverview(ctx context.Context, store SceneStore) (string, error) {
	ids, err := store.ListIdentifiers(ctx)
	if err != nil {
		return "", fmt.Errorf("listing scenes: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# NLVR Scene Store Overview\n\n")
	fmt.Fprintf(&sb, "**Scenes:** %d\n", len(ids))
	if len(ids) > 0 {
		sb.WriteString("\n## Identifiers\n\n")
		for i, id := range ids {
			if i == overviewLimit {
				fmt.Fprintf(&sb, "- ... and %d more\n", len(ids)-overviewLimit)
				break
			}
			fmt.Fprintf(&sb, "- %s\n", id)
		}
	}
	sb.WriteString("\nEach scene is rebuilt into a typed graph of boxes and objects on request.\n")
	return sb.String(), nil
}

func getSchema() string {
	var sb strings.Builder
	sb.WriteString("# NLVR Scene Graph Schema\n\n")
	sb.WriteString("## Entity Types\n\n")
	sb.WriteString("| Type | Entities |\n")
	sb.WriteString("|------|----------|\n")
	fmt.Fprintf(&sb, "| `%s` | %s, %s, ... |\n", vocab.BoxTypeName, vocab.BoxName(0), vocab.BoxName(1))
	fmt.Fprintf(&sb, "| `%s` | %s, %s, ... |\n", vocab.ObjectTypeName, vocab.ObjectName(0), vocab.ObjectName(1))

	colors := make([]string, 0, len(scene.Colors()))
	for _, c := range scene.Colors() {
		colors = append(colors, c.ValueName())
	}
	fmt.Fprintf(&sb, "| `%s` | %s |\n", vocab.ColorTypeName, strings.Join(colors, ", "))

	shapes := make([]string, 0, len(scene.Shapes()))
	for _, sh := range scene.Shapes() {
		shapes = append(shapes, sh.ValueName())
	}
	fmt.Fprintf(&sb, "| `%s` | %s |\n", vocab.ShapeTypeName, strings.Join(shapes, ", "))
	fmt.Fprintf(&sb, "| `%s` | integers |\n", vocab.IntTypeName)

	sb.WriteString("\n## Relations\n\n")
	sb.WriteString("| Relation | Domain → Range |\n")
	sb.WriteString("|----------|----------------|\n")
	for _, rel := range vocab.Relations() {
		spec, _ := rel.Spec()
		fmt.Fprintf(&sb, "| `%s` | %s → %s |\n", rel, spec.Domain, spec.Range)
	}
	sb.WriteString("\nPrefix a relation with `!` to reverse it.\n")
	return sb.String()
}

// registerTools registers every tool with the SDK server.
func (s *Server) registerTools() {
	tools := make(map[string]Tool)
	for _, t := range s.ListTools() {
		tools[t.Name] = t
	}

	addTool(s, tools["nlvr_scene"], s.handleScene)
	addTool(s, tools["nlvr_formulas"], s.handleFormulas)
	addTool(s, tools["nlvr_join"], s.handleJoin)
	addTool(s, tools["nlvr_match"], s.handleMatch)
	addTool(s, tools["nlvr_denote"], s.handleDenote)
	addTool(s, tools["nlvr_search"], s.handleSearch)
}

// addTool adapts a text handler to an SDK tool. Handler errors become
// error results rather than protocol errors.
func addTool[In any](s *Server, tool Tool, h func(context.Context, In) (string, error)) {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: tool.InputSchema,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		s.log.WithField("tool", tool.Name).Debug("tool call")
		text, err := h(ctx, in)
		if err != nil {
			s.log.WithField("tool", tool.Name).WithError(err).Debug("tool failed")
			return toolError("%v", err), nil, nil
		}
		return toolText(text), nil, nil
	})
}

// registerResources registers every resource with the SDK server.
func (s *Server) registerResources() {
	for _, r := range s.ListResources() {
		s.server.AddResource(&mcp.Resource{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MimeType,
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			text, err := s.ReadResource(ctx, req.Params.URI)
			if err != nil {
				return nil, err
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{URI: req.Params.URI, MIMEType: "text/plain", Text: text}},
			}, nil
		})
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
