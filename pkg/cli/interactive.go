package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/goax/pkg/action"
	"github.com/dshills/goax/pkg/domain/element"
	"github.com/dshills/goax/pkg/domain/types"
	axerrors "github.com/dshills/goax/pkg/errors"
	"github.com/dshills/goax/pkg/registry"
	"github.com/dshills/goax/pkg/tui"
	"github.com/dshills/goax/pkg/walker"
)

const navigatorHelp = `  r            refresh and list elements
  t            refresh and show the tree
  s <id>, <id> select an element
  i [id]       details for an element (default: selected)
  c [id]       click an element (default: selected)
  f [id]       focus an element (default: selected)
  type <text>  type into the selected element, or the focus when none is selected
  at <x> <y>   select the element at a point
  ?            select the focused element
  q            quit`

// NewInteractiveCommand creates the interactive command
func NewInteractiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"nav"},
		Short:   "Explore and act on the frontmost application from a prompt",
		Long: `Start an interactive navigator over the frontmost application.

Commands:
` + navigatorHelp + `

The prompt shows the selected element id. Element ids refer to the last
capture; queries capture once when nothing has been captured yet, and actions
make the next query capture again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			w, err := e.walker(walkerOptions())
			if err != nil {
				return err
			}
			x, err := e.executor()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, paint(colorBold, "Interactive navigator"))
			fmt.Fprintln(out, "Type 'help' for commands.")

			n := &navigator{lineReader: newLineReader(cmd.InOrStdin(), out), w: w, x: x}
			return n.run()
		},
	}
}

// navigator is the read-select-act loop behind `ax interactive`.
type navigator struct {
	lineReader
	w   *walker.Walker
	x   *action.Executor
	reg *registry.Registry

	selected *types.ElementID
}

func (n *navigator) run() error {
	for {
		p := "> "
		if n.selected != nil {
			p = fmt.Sprintf("[%d] > ", *n.selected)
		}
		line, ok := n.prompt(paint(colorCyan, p))
		if !ok {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		var err error
		cmd, args := strings.ToLower(fields[0]), fields[1:]
		switch cmd {
		case "q", "quit", "exit":
			return nil
		case "h", "help":
			fmt.Fprintln(n.out, navigatorHelp)
		case "r", "refresh", "list":
			err = n.list()
		case "t", "tree":
			err = n.tree()
		case "s", "select":
			err = n.selectArg(args)
		case "i", "info":
			err = n.info(args)
		case "c", "click":
			err = n.act(element.ActionClick, args)
		case "f", "focus":
			err = n.act(element.ActionFocus, args)
		case "type":
			err = n.typeText(line[len(fields[0]):])
		case "at":
			err = n.at(args)
		case "?", "focused":
			err = n.focused()
		default:
			if _, convErr := strconv.Atoi(cmd); convErr == nil {
				err = n.selectArg(fields)
				break
			}
			fmt.Fprintf(n.out, "%s %q, type 'help' for commands\n", paint(colorYellow, "Unknown command"), fields[0])
		}

		if err := n.report(err); err != nil {
			return err
		}
	}
}

// capture replaces the current registry with a fresh snapshot.
func (n *navigator) capture() (*registry.Registry, error) {
	snap, err := n.w.CaptureFrontmost()
	if err != nil {
		return nil, err
	}
	reg, err := registry.New(snap)
	if err != nil {
		return nil, err
	}
	n.reg = reg
	return reg, nil
}

// registry returns the current registry, capturing when there is none.
func (n *navigator) registry() (*registry.Registry, error) {
	if n.reg != nil {
		return n.reg, nil
	}
	return n.capture()
}

func (n *navigator) list() error {
	reg, err := n.capture()
	if err != nil {
		return err
	}
	elems := n.w.View(reg.Snapshot())
	printSnapshotHeader(n.out, reg.Snapshot(), len(elems))
	for _, e := range elems {
		marker := "  "
		if n.selected != nil && *n.selected == e.ID {
			marker = paint(colorGreen, "→ ")
		}
		line := tui.FormatElement(e)
		if !e.Enabled {
			line = paint(colorGray, line)
		}
		fmt.Fprintln(n.out, marker+line)
	}
	return nil
}

func (n *navigator) tree() error {
	reg, err := n.capture()
	if err != nil {
		return err
	}
	printSnapshotHeader(n.out, reg.Snapshot(), reg.Len())
	printTree(n.out, reg.Snapshot().Elements)
	return nil
}

// target resolves an optional id argument, defaulting to the selection.
func (n *navigator) target(args []string) (element.Element, error) {
	var id types.ElementID
	switch {
	case len(args) > 1:
		return element.Element{}, axerrors.New(axerrors.Invalid, "target", "expected at most one element id")
	case len(args) == 1:
		parsed, err := parseElementID(args[0])
		if err != nil {
			return element.Element{}, err
		}
		id = parsed
	case n.selected != nil:
		id = *n.selected
	default:
		return element.Element{}, axerrors.New(axerrors.Invalid, "target", "give an element id or select one first")
	}

	reg, err := n.registry()
	if err != nil {
		return element.Element{}, err
	}
	return reg.Get(id)
}

func (n *navigator) selectArg(args []string) error {
	if len(args) != 1 {
		return axerrors.New(axerrors.Invalid, "select", "expected one element id")
	}
	e, err := n.target(args)
	if err != nil {
		return err
	}
	n.selected = &e.ID
	fmt.Fprintf(n.out, "Selected: %s\n", paint(colorCyan, tui.FormatElement(e)))
	return nil
}

func (n *navigator) info(args []string) error {
	e, err := n.target(args)
	if err != nil {
		return err
	}
	printElementDetail(n.out, "Element details:", e)
	if parent, err := n.reg.Parent(e.ID); err == nil {
		fmt.Fprintf(n.out, "  Parent: [%d] %s %q\n", parent.ID, parent.Role, parent.Label)
	}
	kids, err := n.reg.Children(e.ID)
	if err != nil {
		return err
	}
	if len(kids) > 0 {
		fmt.Fprintf(n.out, "  Children: %d\n", len(kids))
	}
	return nil
}

func (n *navigator) at(args []string) error {
	if len(args) != 2 {
		return axerrors.New(axerrors.Invalid, "at", "expected <x> <y>")
	}
	x, errX := strconv.Atoi(args[0])
	y, errY := strconv.Atoi(args[1])
	if errX != nil || errY != nil {
		return axerrors.New(axerrors.Invalid, "at", "invalid coordinates %q %q", args[0], args[1])
	}
	reg, err := n.registry()
	if err != nil {
		return err
	}
	e, err := reg.At(x, y)
	if err != nil {
		if axerrors.Is(err, axerrors.NotFound) {
			fmt.Fprintln(n.out, paint(colorYellow, fmt.Sprintf("No element at (%d, %d)", x, y)))
			return nil
		}
		return err
	}
	n.selected = &e.ID
	printElementDetail(n.out, fmt.Sprintf("Element at (%d, %d):", x, y), e)
	return nil
}

func (n *navigator) focused() error {
	reg, err := n.registry()
	if err != nil {
		return err
	}
	e, err := reg.Focused()
	if err != nil {
		if axerrors.Is(err, axerrors.NotFound) {
			fmt.Fprintln(n.out, paint(colorYellow, "No focused element"))
			return nil
		}
		return err
	}
	n.selected = &e.ID
	printElementDetail(n.out, "Focused element:", e)
	return nil
}

func (n *navigator) act(kind element.ActionKind, args []string) error {
	e, err := n.target(args)
	if err != nil {
		return err
	}
	return n.dispatch(element.Action{Kind: kind}, &e)
}

func (n *navigator) typeText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return axerrors.New(axerrors.Invalid, "type", "expected text to type")
	}
	var target *element.Element
	if n.selected != nil {
		e, err := n.target(nil)
		if err != nil {
			return err
		}
		target = &e
	}
	return n.dispatch(element.Action{Kind: element.ActionTypeText, Text: text}, target)
}

// dispatch performs a and drops the capture, which the action may have
// invalidated.
func (n *navigator) dispatch(a element.Action, target *element.Element) error {
	out, err := n.x.Dispatch(a, target)
	n.reg = nil
	if err != nil {
		return err
	}
	current.logger.Info("action performed", "kind", a.Kind, "target", out.Target != nil)
	return reportOutcome(n.out, out)
}
