package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/goax/pkg/domain/element"
	axerrors "github.com/dshills/goax/pkg/errors"
	"github.com/dshills/goax/pkg/query"
)

// ListFlags holds the flags for the list command
type ListFlags struct {
	Role        string
	Label       string
	EnabledOnly bool
	Depth       int
	All         bool
	Where       string
}

// NewListCommand creates the list command
func NewListCommand() *cobra.Command {
	flags := &ListFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accessible elements in the frontmost application",
		Long: `List the elements of the frontmost application with their identifiers.

Identifiers are only valid for the capture they were printed from.

Examples:
  ax list --role button
  ax list --label save --enabled-only
  ax list --where 'width > 50 && "AXPress" in actions'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Role, "role", "r", "", "Filter by role (button, link, textfield, ...)")
	cmd.Flags().StringVarP(&flags.Label, "label", "l", "", "Filter by label (case-insensitive substring)")
	cmd.Flags().BoolVar(&flags.EnabledOnly, "enabled-only", false, "Show only enabled elements")
	cmd.Flags().IntVarP(&flags.Depth, "depth", "d", 0, "Maximum depth to traverse (default from config)")
	cmd.Flags().BoolVar(&flags.All, "all", false, "Include non-interactive, unlabeled elements")
	cmd.Flags().StringVar(&flags.Where, "where", "", "Expression every listed element must satisfy")

	return cmd
}

func runList(cmd *cobra.Command, flags *ListFlags) error {
	out := cmd.OutOrStdout()

	filter, err := parseFilter(flags.Role, flags.Label, flags.EnabledOnly)
	if err != nil {
		return err
	}
	var where element.Predicate
	if flags.Where != "" {
		where, err = query.CompilePredicate(flags.Where)
		if err != nil {
			return axerrors.Wrap(axerrors.Invalid, "--where", err)
		}
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	opts := walkerOptions()
	if flags.Depth > 0 {
		opts.MaxDepth = flags.Depth
	}
	opts.IncludeAll = opts.IncludeAll || flags.All
	opts.Role, opts.Label, opts.EnabledOnly = filter.Role, filter.Label, filter.EnabledOnly

	w, err := e.walker(opts)
	if err != nil {
		return err
	}
	snap, err := w.CaptureFrontmost()
	if err != nil {
		return err
	}

	elems := w.View(snap)
	if where != nil {
		kept := elems[:0]
		for _, el := range elems {
			if where(el) {
				kept = append(kept, el)
			}
		}
		elems = kept
	}

	if GlobalConfig.JSON {
		return printJSON(out, listOutput{
			FocusedApp:   snap.FocusedApp,
			Generation:   uint64(snap.Generation),
			ScreenWidth:  snap.ScreenWidth,
			ScreenHeight: snap.ScreenHeight,
			Total:        snap.Len(),
			Skipped:      snap.SkippedCount,
			Elements:     elems,
		})
	}

	printSnapshotHeader(out, snap, len(elems))
	printElements(out, elems)
	if snap.SkippedCount > 0 {
		fmt.Fprintln(out, paint(colorYellow, fmt.Sprintf("%d subtrees skipped", snap.SkippedCount)))
	}
	return nil
}

type listOutput struct {
	FocusedApp   string            `json:"focused_app"`
	Generation   uint64            `json:"generation"`
	ScreenWidth  int               `json:"screen_width"`
	ScreenHeight int               `json:"screen_height"`
	Total        int               `json:"total"`
	Skipped      int               `json:"skipped"`
	Elements     []element.Element `json:"elements"`
}

func parseFilter(role, label string, enabledOnly bool) (element.Filter, error) {
	f := element.Filter{Label: label, EnabledOnly: enabledOnly}
	if role != "" {
		r, err := element.ParseRole(role)
		if err != nil {
			return f, axerrors.Wrap(axerrors.Invalid, "--role", err)
		}
		f.Role = r
	}
	return f, nil
}

// NewTreeCommand creates the tree command
func NewTreeCommand() *cobra.Command {
	var depth int
	var all bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the element hierarchy of the frontmost application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			opts := walkerOptions()
			opts.MaxDepth = depth
			opts.IncludeAll = opts.IncludeAll || all

			w, err := e.walker(opts)
			if err != nil {
				return err
			}
			snap, err := w.CaptureFrontmost()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if GlobalConfig.JSON {
				return printJSON(out, snap)
			}
			printSnapshotHeader(out, snap, snap.Len())
			printTree(out, snap.Elements)
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 5, "Maximum depth to show")
	cmd.Flags().BoolVar(&all, "all", false, "Show all elements, not just interactive or labeled ones")

	return cmd
}

// NewFocusCommand creates the focus command
func NewFocusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "focus",
		Short: "Show the element holding keyboard focus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			reg, err := e.registry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			focused, err := reg.Focused()
			if err != nil {
				if !axerrors.Is(err, axerrors.NotFound) {
					return err
				}
				if GlobalConfig.JSON {
					return printJSON(out, nil)
				}
				fmt.Fprintln(out, paint(colorYellow, "No focused element"))
				return nil
			}

			if GlobalConfig.JSON {
				return printJSON(out, focused)
			}
			printElementDetail(out, "Focused element:", focused)
			return nil
		},
	}
}

// NewAtCommand creates the at command
func NewAtCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "at <x> <y>",
		Short: "Show the smallest element containing a screen point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.Atoi(args[0])
			if err != nil {
				return axerrors.New(axerrors.Invalid, "at", "invalid x coordinate %q", args[0])
			}
			y, err := strconv.Atoi(args[1])
			if err != nil {
				return axerrors.New(axerrors.Invalid, "at", "invalid y coordinate %q", args[1])
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			reg, err := e.registry()
			if err != nil {
				return err
			}
			found, err := reg.At(x, y)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if GlobalConfig.JSON {
				return printJSON(out, found)
			}
			printElementDetail(out, fmt.Sprintf("Element at (%d, %d):", x, y), found)
			return nil
		},
	}
}
