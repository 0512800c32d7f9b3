package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gocondition/pkg/compiler"
	"github.com/sandrolain/gocondition/pkg/types"
	"github.com/sandrolain/gocondition/pkg/world"
)

func newEvalCmd(env *environment) *cobra.Command {
	var (
		vars   []string
		mode   string
		result string
	)
	cmd := &cobra.Command{
		Use:   "eval [condition]",
		Short: "Compile and evaluate a condition against sample Things",
		Long: `eval binds every --var to a sample Thing of the given type, compiles the
condition and prints its value. Site variables are bound to "Town"
(Health 5, Fear 23, Strength 1), Person variables to "Ada" who lives there and
Square variables to a forest square.`,
		Example: `  condcheck eval --var Subject=Site '(Subject.Health + Subject.Fear) / 2' --result int
  condcheck eval --var Subject=Site --mode text '{Subject.Name} has {Subject.Health} health'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := env.session()
			if err != nil {
				return err
			}
			decl := make(map[string]string, len(vars))
			order := make([]string, 0, len(vars))
			for _, v := range vars {
				name, typ, ok := strings.Cut(v, "=")
				if !ok {
					return fmt.Errorf("invalid --var %q, expected Name=Type", v)
				}
				if _, dup := decl[name]; !dup {
					order = append(order, name)
				}
				decl[name] = typ
			}
			res, err := s.evaluate(request{Mode: mode, Result: result, Text: args[0], Variables: decl, order: order})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", res.Result)
			s.log.Info("evaluated", "program", res.Program)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&vars, "var", nil, "declare a variable as Name=Type (repeatable)")
	f.StringVar(&mode, "mode", "simple", "compilation mode (simple, complex, text)")
	f.StringVar(&result, "result", "", "result type (default bool, string for text mode)")
	return cmd
}

// request is one evaluation read by the pipe command.
type request struct {
	Mode      string            `json:"mode"`
	Result    string            `json:"result"`
	Text      string            `json:"text"`
	Variables map[string]string `json:"variables"`

	// order fixes the signature order; names not listed follow sorted.
	order []string
}

type response struct {
	Result  any    `json:"result"`
	Program string `json:"program,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func newPipeCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "pipe",
		Short: "Evaluate JSON requests read from stdin, one response per line",
		Long: `pipe reads a stream of JSON objects from stdin:

  {"mode": "simple", "result": "int", "text": "...", "variables": {"Subject": "Site"}}

and writes one JSON object per request to stdout, either {"result": ...} or
{"error": "...", "code": "..."}. Conditions repeated in the stream are compiled
once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := env.session()
			if err != nil {
				return err
			}
			return runPipe(s, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runPipe(s *session, in io.Reader, out io.Writer) error {
	dec := json.NewDecoder(in)
	enc := json.NewEncoder(out)
	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("invalid request JSON: %w", err)
		}
		res, err := s.evaluate(req)
		if err != nil {
			res = response{Error: err.Error()}
			var ce *types.ConditionError
			if errors.As(err, &ce) {
				res.Code = string(ce.Code())
			}
		}
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
}

func (s *session) evaluate(req request) (response, error) {
	mode, err := types.ParseMode(req.Mode)
	if err != nil {
		return response{}, err
	}
	resultName := req.Result
	if resultName == "" {
		resultName = "bool"
		if mode == types.ModeFormattedText {
			resultName = "string"
		}
	}
	result, ok := s.reg.Lookup(resultName)
	if !ok {
		return response{}, fmt.Errorf("unknown result type %q", resultName)
	}

	names := signatureOrder(req)
	sample := newSamples()
	vars := make([]types.Variable, 0, len(names))
	ctx := make(types.VariableContext, len(names))
	for _, name := range names {
		t, ok := s.reg.Lookup(req.Variables[name])
		if !ok {
			return response{}, fmt.Errorf("variable %s: unknown type %q", name, req.Variables[name])
		}
		v, ok := sample.of(s.types, t)
		if !ok {
			return response{}, fmt.Errorf("variable %s: no sample value for type %s", name, t)
		}
		vars = append(vars, types.Var(name, t))
		ctx[name] = v
	}

	cond, err := compiler.Compile(s.compiler, mode, req.Text, vars, result)
	if err != nil {
		return response{}, err
	}
	rng := rand.New(rand.NewPCG(s.cfg.Seed, s.cfg.Seed))
	v, err := cond.Evaluate(rng, ctx)
	if err != nil {
		return response{}, err
	}
	if th, ok := v.(world.Thing); ok {
		v = th.ThingName()
	}
	return response{Result: v, Program: cond.Program().ID().String()}, nil
}

func signatureOrder(req request) []string {
	seen := make(map[string]bool, len(req.Variables))
	names := make([]string, 0, len(req.Variables))
	for _, n := range req.order {
		if _, ok := req.Variables[n]; ok && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	var rest []string
	for n := range req.Variables {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}

// samples are the fixed Things eval binds variables to.
type samples struct {
	town   *world.Site
	ada    *world.Person
	forest *world.Square
}

func newSamples() *samples {
	town := world.NewSite("Town", 120, map[string]int64{"Health": 5, "Fear": 23, "Strength": 1, "Wealth": 40})
	return &samples{
		town:   town,
		ada:    world.NewPerson("Ada", 34, town, map[string]int64{"Health": 12, "Fear": 3, "Strength": 7, "Wealth": 2}),
		forest: world.NewSquare(3, 4, "forest", map[string]int64{"Health": 50, "Fear": 10, "Strength": 0, "Wealth": 5}),
	}
}

func (s *samples) of(wt *world.Types, t *types.Type) (any, bool) {
	switch t {
	case wt.Site, wt.Thing:
		return s.town, true
	case wt.Person:
		return s.ada, true
	case wt.Square:
		return s.forest, true
	case types.Int:
		return int64(1), true
	case types.Float:
		return 1.0, true
	case types.Bool:
		return true, true
	case types.String:
		return "sample", true
	}
	return nil, false
}
