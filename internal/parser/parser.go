package parser

import (
	"fmt"
	"strings"
)

// Command is a non-empty, ordered argument vector.
type Command struct {
	Args []string
}

// Redirection is the pipeline-wide I/O redirection set. It applies to
// the pipeline as a whole, not per-command: Stdin feeds the first
// command, Stdout/Stderr drain the last.
type Redirection struct {
	Stdin     string
	Stdout    string
	AppendOut bool
	Stderr    string
	AppendErr bool
}

// Pipeline is an ordered sequence of one or more Commands plus the
// redirection set, background flag, and the original line (kept as the
// displayable job label). PGID and PIDs are populated once the Executor
// has launched it.
type Pipeline struct {
	Commands   []Command
	Redir      Redirection
	Background bool
	Raw        string
	PGID       int
	PIDs       []int
}

// Parse tokenizes and parses a single input line into a Pipeline.
//
// An empty line, or a line whose first command has an empty argument
// vector, yields (nil, nil): the empty-line behaviour of spec.md §4.2
// rule 5 is silent discard, not an error.
func Parse(line string) (*Pipeline, error) {
	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return nil, nil
	}

	background := false
	if tokens[len(tokens)-1] == TokBg {
		background = true
		tokens = tokens[:len(tokens)-1]
		if len(tokens) == 0 {
			return nil, nil
		}
	}

	segments := splitPipe(tokens)
	pl := &Pipeline{Raw: line, Background: background}

	for i, seg := range segments {
		if len(seg) == 0 {
			return nil, fmt.Errorf("parse: empty command in pipeline")
		}
		cmd, err := scanSegment(seg, &pl.Redir)
		if err != nil {
			return nil, err
		}
		if len(cmd.Args) == 0 && i > 0 {
			return nil, fmt.Errorf("parse: empty command in pipeline")
		}
		pl.Commands = append(pl.Commands, cmd)
	}

	if len(pl.Commands) == 0 || len(pl.Commands[0].Args) == 0 {
		return nil, nil
	}
	return pl, nil
}

// splitPipe splits tokens on "|" into command segments.
func splitPipe(tokens []string) [][]string {
	segs := [][]string{{}}
	for _, t := range tokens {
		if t == TokPipe {
			segs = append(segs, []string{})
			continue
		}
		segs[len(segs)-1] = append(segs[len(segs)-1], t)
	}
	return segs
}

// scanSegment consumes one command segment left to right, folding any
// redirection operator it finds into r (pipeline-wide — last occurrence
// wins across the whole pipeline) and returning the remaining argument
// vector as a Command.
func scanSegment(tokens []string, r *Redirection) (Command, error) {
	var args []string
	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case TokRedIn:
			if i+1 >= len(tokens) {
				return Command{}, fmt.Errorf("parse: %q with no target", TokRedIn)
			}
			i++
			r.Stdin = tokens[i]
		case TokRedOut:
			if i+1 >= len(tokens) {
				return Command{}, fmt.Errorf("parse: %q with no target", TokRedOut)
			}
			i++
			r.Stdout, r.AppendOut = tokens[i], false
		case TokAppend:
			if i+1 >= len(tokens) {
				return Command{}, fmt.Errorf("parse: %q with no target", TokAppend)
			}
			i++
			r.Stdout, r.AppendOut = tokens[i], true
		case TokRedErr:
			if i+1 >= len(tokens) {
				return Command{}, fmt.Errorf("parse: %q with no target", TokRedErr)
			}
			i++
			r.Stderr, r.AppendErr = tokens[i], false
		case TokAppErr:
			if i+1 >= len(tokens) {
				return Command{}, fmt.Errorf("parse: %q with no target", TokAppErr)
			}
			i++
			r.Stderr, r.AppendErr = tokens[i], true
		default:
			args = append(args, tokens[i])
		}
	}
	return Command{Args: args}, nil
}

// String renders a canonical single-line form of the Pipeline: enough to
// satisfy the round-trip law of spec.md §8 for unquoted-word inputs.
func (p *Pipeline) String() string {
	var segs []string
	for _, c := range p.Commands {
		segs = append(segs, strings.Join(c.Args, " "))
	}
	out := strings.Join(segs, " | ")
	if p.Redir.Stdin != "" {
		out += " < " + p.Redir.Stdin
	}
	if p.Redir.Stdout != "" {
		if p.Redir.AppendOut {
			out += " >> " + p.Redir.Stdout
		} else {
			out += " > " + p.Redir.Stdout
		}
	}
	if p.Redir.Stderr != "" {
		if p.Redir.AppendErr {
			out += " 2>> " + p.Redir.Stderr
		} else {
			out += " 2> " + p.Redir.Stderr
		}
	}
	if p.Background {
		out += " &"
	}
	return out
}
