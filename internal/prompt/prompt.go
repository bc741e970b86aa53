// Package prompt reads inventory updates from an interactive terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cmenning/asu-calculator/internal/inventory"
)

// ErrAborted is returned when input ends before the session is complete.
var ErrAborted = errors.New("input closed")

type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	p   *message.Printer
	now func() time.Time
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
		p:   message.NewPrinter(language.English),
		now: time.Now,
	}
}

// UpdateInventory asks for every field in order, then for a start date if
// none is recorded yet. inv is modified in place.
func (pr *Prompter) UpdateInventory(inv *inventory.Inventory, fields []inventory.Field) error {
	fmt.Fprintln(pr.out, "\nUPDATE INVENTORY")
	fmt.Fprintln(pr.out, "Enter current amounts (press Enter to keep existing value):")

	for _, f := range fields {
		v, err := pr.Count(f.Label, inv.Get(f.Key))
		if err != nil {
			return err
		}
		inv.Set(f.Key, v)
	}

	if inv.StartDate == nil {
		start, err := pr.StartDate()
		if err != nil {
			return err
		}
		inv.StartDate = &start
	}
	return nil
}

// Count prompts for a non-negative integer until the answer parses. A blank
// answer keeps current.
func (pr *Prompter) Count(label string, current int64) (int64, error) {
	for {
		pr.p.Fprintf(pr.out, "%s (current: %d): ", label, current)
		line, err := pr.readLine()
		if err != nil {
			return 0, err
		}
		if line == "" {
			return current, nil
		}
		v, err := ParseCount(line)
		if err != nil {
			fmt.Fprintln(pr.out, "Please enter a valid number")
			continue
		}
		return v, nil
	}
}

// StartDate prompts for a YYYY-MM-DD date; blank means now.
func (pr *Prompter) StartDate() (time.Time, error) {
	for {
		fmt.Fprint(pr.out, "\nStart date for tracking (YYYY-MM-DD) or press Enter for today: ")
		line, err := pr.readLine()
		if err != nil {
			return time.Time{}, err
		}
		if line == "" {
			return pr.now(), nil
		}
		t, err := time.ParseInLocation(time.DateOnly, line, time.Local)
		if err != nil {
			fmt.Fprintln(pr.out, "Please enter date in YYYY-MM-DD format")
			continue
		}
		return t, nil
	}
}

// ParseCount accepts digits with optional `,`, `_` or space separators.
func ParseCount(s string) (int64, error) {
	clean := strings.NewReplacer(",", "", "_", "", " ", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return 0, fmt.Errorf("empty number")
	}
	v, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative count %d", v)
	}
	return v, nil
}

func (pr *Prompter) readLine() (string, error) {
	line, err := pr.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
