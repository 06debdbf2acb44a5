package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/SAWGraph/public/internal/core/config"
	"github.com/SAWGraph/public/internal/logger"
	"github.com/SAWGraph/public/internal/sparql/client"
	"github.com/SAWGraph/public/internal/sparql/query"
	"github.com/SAWGraph/public/internal/sparql/results"
	"github.com/SAWGraph/public/internal/vocabulary"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

type job struct {
	name string
	text string
}

func run(args []string, out io.Writer) int {
	cfg := config.FromEnv()

	fs := flag.NewFlagSet("sparql-debug", flag.ContinueOnError)
	fs.SetOutput(out)
	endpoint := fs.String("endpoint", cfg.SPARQL.Endpoint, "SPARQL endpoint URL")
	probe := fs.String("probe", "", "canned probe id, or \"all\"")
	file := fs.String("file", "", "file holding a SPARQL query to run")
	shape := fs.String("shape", "", "application query shape (q1..q4, sample-points) built with every vocabulary label")
	depth := fs.String("depth", "full", "depth for -shape: full or fast")
	limit := fs.Int("limit", 10, "limit for -shape")
	size := fs.Bool("size", false, "query the repository statement count")
	list := fs.Bool("list", false, "list canned probes and exit")
	printOnly := fs.Bool("print", false, "print the query text without executing it")
	timeout := fs.Duration("timeout", 60*time.Second, "per query timeout")
	rows := fs.Int("rows", 3, "rows to print per result")
	raw := fs.Bool("raw", false, "decode the plain results.bindings JSON instead of typed bindings")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *list {
		for _, p := range query.Probes() {
			fmt.Fprintf(out, "%-15s %s\n", p.ID, p.Description)
		}
		return 0
	}

	jobs, err := collectJobs(*probe, *file, *shape, *depth, *limit)
	if err != nil {
		fmt.Fprintln(out, "error:", err)
		return 2
	}
	if len(jobs) == 0 && !*size {
		fmt.Fprintln(out, "nothing to do: pass -probe, -file, -shape or -size")
		return 2
	}
	if *printOnly {
		for _, j := range jobs {
			fmt.Fprintf(out, "# %s\n%s\n", j.name, j.text)
		}
		return 0
	}

	zl := logger.Build(logger.Config{Level: cfg.LogLevel, Console: true, Service: "sparql-debug"}, os.Stderr)
	sc, err := client.New(logger.NewSlog(&zl), client.Config{
		Endpoint: *endpoint,
		Username: cfg.SPARQL.User,
		Password: cfg.SPARQL.Password,
		Method:   cfg.SPARQL.Method,
		Timeout:  *timeout,
	})
	if err != nil {
		fmt.Fprintln(out, "error:", err)
		return 2
	}

	ctx := context.Background()
	failed := false
	if *size {
		start := time.Now()
		n, err := sc.RepositorySize(ctx)
		if err != nil {
			report(out, "size", time.Since(start), err)
			failed = true
		} else {
			fmt.Fprintf(out, "OK   size  %d statements in %s\n", n, time.Since(start).Round(time.Millisecond))
		}
	}
	execute := sc.Execute
	if *raw {
		execute = sc.ExecuteJSON
	}
	for _, j := range jobs {
		if !runJob(ctx, out, execute, j, *rows) {
			failed = true
		}
	}
	if failed {
		return 1
	}
	return 0
}

func collectJobs(probe, file, shape, depth string, limit int) ([]job, error) {
	var jobs []job
	switch probe {
	case "":
	case "all":
		for _, p := range query.Probes() {
			jobs = append(jobs, job{name: p.ID, text: p.Text})
		}
	default:
		p, err := query.LookupProbe(probe)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job{name: p.ID, text: p.Text})
	}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read query file: %w", err)
		}
		jobs = append(jobs, job{name: file, text: string(b)})
	}
	if shape != "" {
		sh, err := query.ParseShape(shape)
		if err != nil {
			return nil, err
		}
		d, err := query.ParseDepth(depth)
		if err != nil {
			return nil, err
		}
		v := vocabulary.Default()
		q, err := query.Build(query.Spec{
			Shape:      sh,
			Industries: v.Labels(vocabulary.Industry),
			Counties:   v.Labels(vocabulary.County),
			Limit:      limit,
			Depth:      d,
		}, v)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job{name: string(sh) + " " + q.Hash, text: q.Text})
	}
	return jobs, nil
}

type executeFunc func(ctx context.Context, query string) (results.Raw, error)

func runJob(ctx context.Context, out io.Writer, execute executeFunc, j job, maxRows int) bool {
	start := time.Now()
	raw, err := execute(ctx, j.text)
	var t results.Table
	if err == nil {
		t, err = results.Normalize(raw)
	}
	dur := time.Since(start)
	if err != nil {
		report(out, j.name, dur, err)
		return false
	}
	fmt.Fprintf(out, "OK   %s  %d rows in %s\n", j.name, t.Len(), dur.Round(time.Millisecond))
	for i, rec := range t.Rows {
		if i >= maxRows {
			break
		}
		fmt.Fprintf(out, "  row %d:\n", i+1)
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "    ?%s = %s\n", k, results.TruncateDisplay(results.AsString(rec[k]), 5))
		}
	}
	return true
}

func report(out io.Writer, name string, dur time.Duration, err error) {
	fmt.Fprintf(out, "FAIL %s  after %s\n", name, dur.Round(time.Millisecond))
	fmt.Fprintf(out, "  error: %v\n", err)
	if hint := hintFor(err); hint != "" {
		fmt.Fprintf(out, "  hint: %s\n", hint)
	}
}

func hintFor(err error) string {
	switch client.KindOf(err) {
	case client.KindConnectivity:
		return "network, firewall or TLS problem; check the endpoint URL"
	case client.KindAuthentication:
		return "check SPARQL_USER and SPARQL_PASSWORD"
	case client.KindTimeout:
		return "endpoint is slow or overloaded; raise -timeout or add a LIMIT"
	case client.KindMalformed:
		var me *client.MalformedResponseError
		if errors.As(err, &me) && strings.Contains(strings.ToUpper(me.Body), "MALFORMED") {
			return "the endpoint rejected the query syntax"
		}
		return "the endpoint did not return SPARQL JSON results"
	}
	return ""
}
