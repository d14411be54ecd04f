package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/dryack/dndice/core/dsl"
	"github.com/dryack/dndice/core/logging"
	"github.com/dryack/dndice/core/scores"
)

const version = "1.0.0"

var (
	errNoDice         = errors.New("No dice or command provided")
	errNoMethod       = errors.New("No statistics generation method provided")
	errTooManyMethods = errors.New("Too many statistics generation methods provided")
)

type cli struct {
	Number  string           `short:"n" default:"1" help:"Roll or generate N times."`
	Quiet   bool             `short:"q" help:"Print only the results."`
	Seed    int64            `hidden:"" help:"Seed the dice for reproducible rolls."`
	Debug   bool             `hidden:"" help:"Log parser debug output to stderr."`
	Version kong.VersionFlag `help:"Print version information and quit."`

	Roll  rollCmd  `cmd:"" help:"Roll a dice expression such as 3d6+2. Used when no command is named."`
	Stats statsCmd `cmd:"" help:"Generate six ability scores: std, d20 or 4d6."`
}

// output is what every command needs from the parsed global flags.
type output struct {
	w      io.Writer
	number int
	quiet  bool
	src    dsl.Source
}

type rollCmd struct {
	Dice []string `arg:"" optional:"" help:"Dice expression; separate arguments are joined."`
}

func (r *rollCmd) Run(o *output) error {
	if len(r.Dice) == 0 {
		return errNoDice
	}
	dice, err := dsl.FromString(strings.Join(r.Dice, ""))
	if err != nil {
		return err
	}
	dice.SetSource(o.src)

	for i := 0; i < o.number; i++ {
		value := dice.Roll()
		if o.quiet {
			fmt.Fprintln(o.w, value)
			continue
		}
		fmt.Fprintln(o.w, strings.TrimSpace(dice.String()+" "+dice.Last().Log()))
		fmt.Fprintf(o.w, "Result: %d\n", value)
	}
	return nil
}

type statsCmd struct {
	Methods []string `arg:"" optional:"" help:"Generation method."`
}

func (s *statsCmd) Run(o *output) error {
	switch {
	case len(s.Methods) == 0:
		return errNoMethod
	case len(s.Methods) > 1:
		return errTooManyMethods
	}

	for i := 0; i < o.number; i++ {
		set, err := scores.FromMethod(s.Methods[0], o.src)
		if errors.Is(err, scores.ErrUnknownMethod) {
			return fmt.Errorf("Unknown statistics generation method '%s'", s.Methods[0])
		}
		if err != nil {
			return err
		}
		if !o.quiet {
			fmt.Fprintln(o.w, "Stats:")
		}
		fmt.Fprintln(o.w, set)
	}
	return nil
}

// exitCode carries a kong-requested exit (help, version) out of Parse.
type exitCode int

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	var c cli
	parser, err := kong.New(&c,
		kong.Name("dndice"),
		kong.Description("Roll dice expressions like 3d6+2*-1d4-5."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { panic(exitCode(code)) }),
		kong.Vars{"version": "DnDice version " + version},
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	ctx, err := parser.Parse(withDefaultCommand(protectNegativeTerms(args)))
	if err != nil {
		fmt.Fprintf(stderr, "Invalid option: %v\n", err)
		return 1
	}

	level := "warn"
	if c.Debug {
		level = "debug"
	}
	if err := logging.Setup(stderr, level, true); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	number, err := strconv.Atoi(strings.TrimSpace(c.Number))
	if err != nil || number < 1 {
		fmt.Fprintf(stderr, "Invalid number '%s'\n", strings.TrimSpace(c.Number))
		return 1
	}

	o := &output{w: stdout, number: number, quiet: c.Quiet, src: dsl.SourceFromSeed(c.Seed)}
	if err := ctx.Run(o); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// protectNegativeTerms prefixes arguments such as -1 or -d4 with a space so
// they reach the dice expression instead of being read as flags. The parser
// ignores the space.
func protectNegativeTerms(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = arg
		if len(arg) < 2 || arg[0] != '-' {
			continue
		}
		switch next := arg[1]; {
		case next >= '0' && next <= '9', next == 'd', next == 'D':
			out[i] = " " + arg
		}
	}
	return out
}

var commands = map[string]bool{"roll": true, "stats": true}

// withDefaultCommand names the roll command when args do not name one. A help
// request without a command is reduced to the bare flag so the application
// help, listing every command, is shown.
func withDefaultCommand(args []string) []string {
	first := -1
	help := false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			help = true
		case arg == "-n" || arg == "--number" || arg == "--seed":
			i++
		case strings.HasPrefix(arg, "--"):
		case strings.HasPrefix(arg, "-"):
			// A short flag cluster ending in n takes the next argument as its value.
			if strings.HasSuffix(arg, "n") {
				i++
			}
			if strings.ContainsRune(arg, 'h') {
				help = true
			}
		case first < 0:
			first = i
		}
	}

	switch {
	case first >= 0 && commands[args[first]]:
		return args
	case help:
		return []string{"--help"}
	case first < 0:
		return append(append([]string(nil), args...), "roll")
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[:first]...)
	out = append(out, "roll")
	return append(out, args[first:]...)
}
