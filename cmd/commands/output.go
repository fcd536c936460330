package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/dohr-michael/taskdeck/internal/api"
)

func outputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output format: table, json or yaml",
		Value:   "table",
		Validator: func(v string) error {
			switch v {
			case "table", "json", "yaml":
				return nil
			}
			return fmt.Errorf("unknown output format %q", v)
		},
	}
}

// render writes v as JSON or YAML, or calls table for the default format.
func render(w io.Writer, format string, v any, table func(w *tabwriter.Writer)) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// Round-trip through JSON so YAML keys follow the wire names.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

func taskTable(tasks []api.Task) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tDUE\tFLAGS\tTITLE")
		for _, t := range tasks {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				t.ID,
				t.Status,
				t.Priority,
				dashIfEmpty(dueString(t)),
				dashIfEmpty(flags(t)),
				t.Title,
			)
		}
	}
}

func dueString(t api.Task) string {
	if t.DueDate == nil {
		return ""
	}
	s := t.DueDate.String()
	if t.DueTime != nil {
		s += " " + t.DueTime.String()[:5]
	}
	return s
}

func flags(t api.Task) string {
	var f []string
	if t.Important {
		f = append(f, "important")
	}
	if t.Overdue && !t.Completed {
		f = append(f, "overdue")
	}
	return strings.Join(f, ",")
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// readPassword prompts on stderr and reads without echo when stdin is a
// terminal; otherwise it reads one line.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// passwordFrom returns the flag value or prompts for it.
func passwordFrom(cmd *cli.Command, flag, prompt string) (string, error) {
	if v := cmd.String(flag); v != "" {
		return v, nil
	}
	return readPassword(prompt)
}

// confirm asks a yes/no question on stderr; anything but y/yes is no.
func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
