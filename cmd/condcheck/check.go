package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sandrolain/gocondition/pkg/definition"
	"github.com/sandrolain/gocondition/pkg/types"
)

var errCheckFailed = errors.New("some definitions failed to compile")

func newCheckCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "check [definition files...]",
		Short: "Compile every condition of the given definition files",
		Long: `check loads each definition file, compiles all of its conditions and
reports every failure. The command fails when any definition is unusable.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := env.session()
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), s, cmd, args)
		},
	}
}

type checkResult struct {
	file       string
	definition string
	conditions int
	err        error
}

func runCheck(ctx context.Context, s *session, cmd *cobra.Command, files []string) error {
	var (
		mu      sync.Mutex
		results []checkResult
	)
	record := func(r checkResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, path := range files {
		f, err := definition.LoadFile(path)
		if err != nil {
			record(checkResult{file: path, err: err})
			continue
		}
		for _, def := range f.Definitions {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				_, err := definition.Bind(s.compiler, def)
				record(checkResult{file: path, definition: def.Name, conditions: len(def.Conditions), err: err})
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range sortResults(results) {
		if r.err == nil {
			fmt.Fprintf(out, "ok    %s: %s (%d conditions)\n", r.file, r.definition, r.conditions)
			continue
		}
		failed++
		if r.definition == "" {
			fmt.Fprintf(out, "FAIL  %s: %v\n", r.file, r.err)
			continue
		}
		fmt.Fprintf(out, "FAIL  %s: %s\n", r.file, r.definition)
		for _, e := range unjoin(r.err) {
			fmt.Fprintf(out, "      %s\n", describeFailure(e))
		}
	}

	st := s.compiler.Cache().Stats()
	fmt.Fprintf(out, "cache: %d programs, %d builds, %d hits, %d misses\n",
		s.compiler.Cache().Len(), st.Builds, st.Hits, st.Misses)

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errCheckFailed, failed, len(results))
	}
	return nil
}

func describeFailure(err error) string {
	var ce *types.ConditionError
	if errors.As(err, &ce) {
		var de *types.Error
		if errors.As(ce.Err, &de) {
			return fmt.Sprintf("%s [%s %s] %s", ce.Condition, de.Code.Category(), de.Code, de.Message)
		}
		return fmt.Sprintf("%s: %v", ce.Condition, ce.Err)
	}
	return err.Error()
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func sortResults(rs []checkResult) []checkResult {
	slices.SortFunc(rs, func(a, b checkResult) int {
		return cmp.Or(cmp.Compare(a.file, b.file), cmp.Compare(a.definition, b.definition))
	})
	return rs
}
