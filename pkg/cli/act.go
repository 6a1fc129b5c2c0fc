package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/goax/pkg/action"
	"github.com/dshills/goax/pkg/domain/element"
	"github.com/dshills/goax/pkg/domain/types"
	axerrors "github.com/dshills/goax/pkg/errors"
	"github.com/dshills/goax/pkg/query"
)

// TargetFlags select an element by predicate when no id is given.
type TargetFlags struct {
	Label string
	Role  string
	Where string
}

func (f *TargetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Label, "label", "l", "", "Select the first element whose label contains this text")
	cmd.Flags().StringVarP(&f.Role, "role", "r", "", "Restrict --label or --where to this role")
	cmd.Flags().StringVar(&f.Where, "where", "", "Select the first element satisfying this expression")
}

// selector builds a selector from an optional id argument and the flags.
func (f *TargetFlags) selector(idArg string) (element.Selector, error) {
	if idArg != "" {
		id, err := parseElementID(idArg)
		if err != nil {
			return element.Selector{}, err
		}
		return element.ByID(id), nil
	}

	sel := element.Selector{Label: f.Label, Expr: f.Where}
	if f.Role != "" {
		r, err := element.ParseRole(f.Role)
		if err != nil {
			return sel, axerrors.Wrap(axerrors.Invalid, "--role", err)
		}
		sel.Role = r
	}
	if f.Where != "" {
		pred, err := query.CompilePredicate(f.Where)
		if err != nil {
			return sel, axerrors.Wrap(axerrors.Invalid, "--where", err)
		}
		sel.Where = pred
	}
	if err := sel.Validate(); err != nil {
		return sel, axerrors.New(axerrors.Invalid, "select", "provide an element id or --label, --role, --where")
	}
	return sel, nil
}

func parseElementID(s string) (types.ElementID, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, axerrors.New(axerrors.Invalid, "element id", "invalid element id %q", s)
	}
	return types.ElementID(n), nil
}

// perform captures once, resolves a against that capture and dispatches it.
func perform(a element.Action) (action.Outcome, error) {
	e, err := openEnv()
	if err != nil {
		return action.Outcome{}, err
	}
	snap, err := e.capture()
	if err != nil {
		return action.Outcome{}, err
	}
	x, err := e.executor()
	if err != nil {
		return action.Outcome{}, err
	}
	out, err := x.Run(a, snap)
	if err != nil {
		return out, err
	}
	current.logger.Info("action performed", "kind", a.Kind, "app", snap.FocusedApp, "generation", snap.Generation)
	return out, nil
}

// NewClickCommand creates the click command
func NewClickCommand() *cobra.Command {
	target := &TargetFlags{}
	var double, right bool

	cmd := &cobra.Command{
		Use:   "click [id]",
		Short: "Click an element by id or label",
		Long: `Click the center of an element's bounding box.

Examples:
  ax click 12
  ax click --label Save
  ax click --label OK --role button --double`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if double && right {
				return axerrors.New(axerrors.Invalid, "click", "--double and --right are mutually exclusive")
			}
			sel, err := target.selector(firstArg(args))
			if err != nil {
				return err
			}
			kind := element.ActionClick
			switch {
			case double:
				kind = element.ActionDoubleClick
			case right:
				kind = element.ActionRightClick
			}

			out, err := perform(element.Action{Kind: kind, Target: &sel})
			if err != nil {
				return err
			}
			return reportOutcome(cmd.OutOrStdout(), out)
		},
	}

	target.register(cmd)
	cmd.Flags().BoolVar(&double, "double", false, "Double-click")
	cmd.Flags().BoolVar(&right, "right", false, "Right-click")

	return cmd
}

// NewTypeCommand creates the type command
func NewTypeCommand() *cobra.Command {
	var elementID string

	cmd := &cobra.Command{
		Use:   "type <text>",
		Short: "Type text into the focused element or a given element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := element.Action{Kind: element.ActionTypeText, Text: args[0]}
			if elementID != "" {
				id, err := parseElementID(elementID)
				if err != nil {
					return err
				}
				sel := element.ByID(id)
				a.Target = &sel
			}

			out, err := perform(a)
			if err != nil {
				return err
			}
			return reportOutcome(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&elementID, "element", "e", "", "Focus this element id before typing")

	return cmd
}

// NewDoCommand creates the do command
func NewDoCommand() *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "do <action> <id>",
		Short: "Perform an action on an element",
		Long: `Perform one action on an element.

Actions: click (press), double-click, right-click, focus, set-value (value), type-text (type)

Examples:
  ax do press 4
  ax do focus 7
  ax do value 7 --value "hello"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := element.ParseActionKind(args[0])
			if err != nil {
				return axerrors.Wrap(axerrors.Invalid, "do", err)
			}
			if kind == element.ActionTypeText && value == "" {
				return axerrors.New(axerrors.Invalid, "do", "%s requires --value", kind)
			}
			if kind == element.ActionSetValue && !cmd.Flags().Changed("value") {
				return axerrors.New(axerrors.Invalid, "do", "%s requires --value", kind)
			}
			id, err := parseElementID(args[1])
			if err != nil {
				return err
			}
			sel := element.ByID(id)

			out, err := perform(element.Action{Kind: kind, Text: value, Target: &sel})
			if err != nil {
				return err
			}
			return reportOutcome(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&value, "value", "v", "", "Text for set-value and type-text")

	return cmd
}

func reportOutcome(w io.Writer, out action.Outcome) error {
	if GlobalConfig.JSON {
		return printJSON(w, out)
	}

	what := "focused element"
	if out.Target != nil {
		what = fmt.Sprintf("%s %q (id %d)", out.Target.Role, out.Target.Label, out.Target.ID)
	}
	verb := map[element.ActionKind]string{
		element.ActionClick:       "Clicked",
		element.ActionDoubleClick: "Double-clicked",
		element.ActionRightClick:  "Right-clicked",
		element.ActionFocus:       "Focused",
		element.ActionSetValue:    "Set value of",
		element.ActionTypeText:    "Typed into",
	}[out.Kind]

	line := fmt.Sprintf("%s %s", verb, what)
	if out.Pointer {
		line += fmt.Sprintf(" at (%d, %d)", out.X, out.Y)
	}
	if out.Fallback {
		line += paint(colorGray, " (synthetic input)")
	}
	fmt.Fprintln(w, paint(colorGreen, "✓")+" "+line)
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
