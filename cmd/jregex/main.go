package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/auvred/jregex"
	"github.com/auvred/jregex/internal/config"
)

var groupColors = []*color.Color{
	color.New(color.FgRed),
	color.New(color.FgGreen),
	color.New(color.FgYellow),
	color.New(color.FgBlue),
	color.New(color.FgMagenta),
	color.New(color.FgCyan),
}

var cli struct {
	Config   string        `name:"config" help:"YAML settings file" type:"path" default:"jregex.yaml"`
	Flags    []string      `name:"flag" short:"f" help:"Pattern flag (i, m, s, x, literal, bounded_lookbehind); repeatable"`
	MaxSteps int64         `name:"max-steps" help:"Abort a search after this many steps (0: no limit)"`
	Timeout  time.Duration `name:"timeout" help:"Abort a search after this long (0: no limit)"`
	NoColor  bool          `name:"no-color" help:"Disable highlighting"`

	Match     matchCmd     `cmd:"" help:"Report whether each input matches the whole pattern"`
	Find      findCmd      `cmd:"" help:"Highlight every match in each input line"`
	Replace   replaceCmd   `cmd:"" help:"Replace matches using a replacement template"`
	Split     splitCmd     `cmd:"" help:"Split input around matches"`
	Backtrack backtrackCmd `cmd:"" help:"Time n copies of a? followed by n copies of a against n a's to show catastrophic backtracking"`
}

type env struct {
	cache  *jregex.Cache
	flags  jregex.Flag
	limits jregex.Limits
	out    io.Writer
}

func (e *env) compile(pattern string) (*jregex.Regexp, error) {
	re, err := e.cache.Compile(pattern, e.flags)
	if err != nil {
		return nil, err
	}
	return re.WithLimits(e.limits), nil
}

type matchCmd struct {
	Prefix  bool     `help:"Only require a prefix of the input to match"`
	Pattern string   `arg:"" name:"pattern" help:"Pattern to use"`
	Inputs  []string `arg:"" name:"input" help:"Inputs to test"`
}

func (c *matchCmd) Run(e *env) error {
	re, err := e.compile(c.Pattern)
	if err != nil {
		return err
	}
	for _, input := range c.Inputs {
		var m *jregex.Match
		if c.Prefix {
			m, err = re.MatchPrefix(input)
		} else {
			m, err = re.MatchFully(input)
		}
		if err != nil {
			return err
		}
		if m == nil {
			fmt.Fprintf(e.out, "%q: false\n", input)
			continue
		}
		fmt.Fprintf(e.out, "%q: true\n", input)
		for i := 1; i < len(m.Groups); i++ {
			fmt.Fprintf(e.out, "  %s\n", describeGroup(i, m.Groups[i]))
		}
	}
	return nil
}

func describeGroup(i int, g jregex.Group) string {
	label := fmt.Sprint(i)
	if g.Name != "" {
		label += "<" + g.Name + ">"
	}
	if !g.Matched() {
		return label + ": (no match)"
	}
	return fmt.Sprintf("%s: %q [%d,%d)", label, g.Text(), g.Start, g.End)
}

type findCmd struct {
	Pattern string   `arg:"" name:"pattern" help:"Pattern to use"`
	Inputs  []string `arg:"" optional:"" name:"input" help:"Inputs to search; standard input lines when omitted"`
}

func (c *findCmd) Run(e *env) error {
	re, err := e.compile(c.Pattern)
	if err != nil {
		return err
	}
	return eachInput(c.Inputs, func(i int, line string) error {
		matches, err := re.FindAll(line, -1)
		if err != nil || len(matches) == 0 {
			return err
		}
		out := strings.Builder{}
		lastMatchEnd := 0
		for _, m := range matches {
			out.WriteString(line[lastMatchEnd:m.Start()])
			out.WriteString(formatMatch(m))
			lastMatchEnd = m.End()
		}
		out.WriteString(line[lastMatchEnd:])
		fmt.Fprintf(e.out, "%d:%s\n", i+1, out.String())
		return nil
	})
}

// formatMatch colours the whole match with the first colour and each
// top-level group with its own, as long as groups do not overlap.
func formatMatch(m *jregex.Match) string {
	full := m.String()
	if len(m.Groups) == 1 || len(m.Groups) > len(groupColors) {
		return groupColors[0].Sprint(full)
	}

	out := strings.Builder{}
	matchOff := 0
	for i, g := range m.Groups[1:] {
		// Lookarounds can capture outside the match.
		if !g.Matched() || g.Start < m.Start() || g.End > m.End() || g.Start-m.Start() < matchOff {
			continue
		}
		offRelativeToMatch := g.Start - m.Start()
		groupColors[0].Fprint(&out, full[matchOff:offRelativeToMatch])
		groupColors[i+1].Fprint(&out, g.Text())
		matchOff = offRelativeToMatch + len(g.Text())
	}
	groupColors[0].Fprint(&out, full[matchOff:])
	return out.String()
}

type replaceCmd struct {
	First    bool     `help:"Replace only the first match"`
	Pattern  string   `arg:"" name:"pattern" help:"Pattern to use"`
	Template string   `arg:"" name:"template" help:"Replacement template"`
	Inputs   []string `arg:"" optional:"" name:"input" help:"Inputs; standard input lines when omitted"`
}

func (c *replaceCmd) Run(e *env) error {
	re, err := e.compile(c.Pattern)
	if err != nil {
		return err
	}
	return eachInput(c.Inputs, func(_ int, line string) error {
		var res string
		if c.First {
			res, err = re.ReplaceFirst(line, c.Template)
		} else {
			res, err = re.ReplaceAll(line, c.Template)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, res)
		return nil
	})
}

type splitCmd struct {
	Limit   int      `help:"Maximum number of pieces (0: drop trailing empty pieces, <0: keep all)"`
	Pattern string   `arg:"" name:"pattern" help:"Delimiter pattern"`
	Inputs  []string `arg:"" optional:"" name:"input" help:"Inputs; standard input lines when omitted"`
}

func (c *splitCmd) Run(e *env) error {
	re, err := e.compile(c.Pattern)
	if err != nil {
		return err
	}
	return eachInput(c.Inputs, func(_ int, line string) error {
		pieces, err := re.Split(line, c.Limit)
		if err != nil {
			return err
		}
		for _, p := range pieces {
			fmt.Fprintf(e.out, "%q\n", p)
		}
		return nil
	})
}

type backtrackCmd struct {
	Max int `help:"Largest n to try" default:"25"`
}

func (c *backtrackCmd) Run(e *env) error {
	for n := 1; n <= c.Max; n++ {
		input := strings.Repeat("a", n)
		pattern := "^" + strings.Repeat("a?", n) + input + "$"
		re, err := jregex.Compile(pattern, 0)
		if err != nil {
			return err
		}
		re = re.WithLimits(e.limits)
		start := time.Now()
		ok, err := re.MatchesFully(input)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(e.out, "%d:: gave up after %v: %v\n", n, elapsed, err)
			return nil
		}
		fmt.Fprintf(e.out, "%d:: ( %v ) :: Pattern <%s>, Input <%s>, matched %v\n", n, elapsed, pattern, input, ok)
	}
	return nil
}

// eachInput calls fn for each argument, or for each line of standard input
// when there are no arguments.
func eachInput(inputs []string, fn func(i int, line string) error) error {
	if len(inputs) > 0 {
		for i, input := range inputs {
			if err := fn(i, input); err != nil {
				return err
			}
		}
		return nil
	}
	sc := bufio.NewScanner(os.Stdin)
	for i := 0; sc.Scan(); i++ {
		if err := fn(i, sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("jregex"),
		kong.Description("Matches, finds, replaces and splits with Java-flavoured regular expressions."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatalf("failed to load %s: %v", cli.Config, err)
	}

	flags, err := cfg.PatternFlags()
	if err != nil {
		log.Fatalf("%v", err)
	}
	extra, err := config.ParseFlags(cli.Flags)
	if err != nil {
		log.Fatalf("%v", err)
	}
	limits, err := cfg.Limits()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cli.MaxSteps != 0 {
		limits.MaxSteps = cli.MaxSteps
	}
	if cli.Timeout != 0 {
		limits.Timeout = cli.Timeout
	}
	color.NoColor = color.NoColor || cli.NoColor || !cfg.Color

	err = ctx.Run(&env{
		cache:  jregex.NewCache(cfg.CacheSize),
		flags:  flags | extra,
		limits: limits,
		out:    os.Stdout,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
}
