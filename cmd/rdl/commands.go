package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Neumenon/rdl2/dso"
	"github.com/Neumenon/rdl2/rdl"
	"github.com/Neumenon/rdl2/rdla"
	"github.com/Neumenon/rdl2/rdlb"
)

// ============================================================
// convert
// ============================================================

func (a *app) convertCmd() *cobra.Command {
	var (
		skipDefaults    bool
		elementsPerLine int
		compress        bool
		split           int
		transient       bool
		strict          bool
	)
	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Convert a scene between .rdla and .rdlb",
		Long: `Reads IN and writes OUT, choosing each format from the file extension.
Writer flags override the [text] and [binary] sections of the config file.

Examples:
  rdl convert scene.rdla scene.rdlb --compress
  rdl convert scene.rdlb scene.rdla --skip-defaults=false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a.readScene(cmd.Context(), args[0], strict, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			var over codecOptions
			flags := cmd.Flags()
			if flags.Changed("skip-defaults") {
				over.text = append(over.text, rdla.SkipDefaults(skipDefaults))
				over.binary = append(over.binary, rdlb.SkipDefaults(skipDefaults))
			}
			if flags.Changed("elements-per-line") {
				over.text = append(over.text, rdla.ElementsPerLine(elementsPerLine))
			}
			if flags.Changed("compress") {
				over.binary = append(over.binary, rdlb.Compress(compress))
			}
			if flags.Changed("split") {
				over.binary = append(over.binary, rdlb.SplitMode(split))
			}
			if flags.Changed("transient") {
				over.binary = append(over.binary, rdlb.Transient(transient))
			}
			if err := a.writeScene(sc, args[1], over); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d objects)\n",
				args[0], args[1], len(sc.SceneObjects()))
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&skipDefaults, "skip-defaults", true, "omit attributes that hold their default")
	f.IntVar(&elementsPerLine, "elements-per-line", 0, "wrap rdla vectors after n elements (0 keeps one line)")
	f.BoolVar(&compress, "compress", false, "zstd-compress rdlb chunks")
	f.IntVar(&split, "split", 0, "cut the rdlb payload into chunks of at most n bytes")
	f.BoolVar(&transient, "transient", false, "write rdlb chunks without checksums")
	f.BoolVar(&strict, "strict", false, "fail on reader warnings")
	return cmd
}

// ============================================================
// show / manifest
// ============================================================

func (a *app) showCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print a scene as rdla text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a.readScene(cmd.Context(), args[0], false, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts := append(a.cfg.TextWriterOptions(), rdla.SkipDefaults(!all))
			_, err = rdla.NewWriter(sc, opts...).WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include attributes that hold their default")
	return cmd
}

func (a *app) manifestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manifest FILE.rdlb",
		Short: "Summarize the manifest of a binary scene",
		Long:  "Prints the object table and chunk table of an rdlb file. No classes are needed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			manifest, _, err := rdlb.SplitFile(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			summary, err := rdlb.ShowManifest(manifest)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), summary)
			return err
		},
	}
}

// ============================================================
// get
// ============================================================

func (a *app) getCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "get FILE OBJECT [ATTR...]",
		Short: "Print attribute values of one object",
		Long: `Prints the named attributes of OBJECT, or every attribute that differs
from its default when none is named. Blurred values print as "begin .. end".`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a.readScene(cmd.Context(), args[0], false, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			o, err := sc.SceneObject(args[1])
			if err != nil {
				return err
			}
			var attrs []*rdl.Attribute
			if len(args) > 2 {
				for _, name := range args[2:] {
					attr, err := o.SceneClass().Attribute(name)
					if err != nil {
						return err
					}
					attrs = append(attrs, attr)
				}
			} else {
				for _, attr := range o.SceneClass().Attributes() {
					if def, _ := o.IsDefaultAndUnbound(attr.Name()); all || !def {
						attrs = append(attrs, attr)
					}
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", headingStyle.Render(o.ClassName()), nameStyle.Render(strconv.Quote(o.Name())))
			for _, attr := range attrs {
				fmt.Fprintf(out, "  %s = %s\n", attr.Name(), describeAttribute(o, attr))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every attribute")
	return cmd
}

func describeAttribute(o *rdl.SceneObject, attr *rdl.Attribute) string {
	v0, _ := o.Get(attr.Name(), rdl.TimestepBegin)
	s := v0.String()
	if attr.IsBlurrable() {
		if v1, _ := o.Get(attr.Name(), rdl.TimestepEnd); !v0.Equal(v1) {
			s += " .. " + v1.String()
		}
	}
	if attr.IsEnumerable() {
		if n, err := v0.AsInt(); err == nil {
			if label, ok := attr.EnumLabel(n); ok {
				s += dimStyle.Render(" (" + label + ")")
			}
		}
	}
	if attr.IsBindable() {
		if b, _ := o.Binding(attr.Name()); b != nil {
			s += " bound to " + strconv.Quote(b.Name())
		}
	}
	return s
}

// ============================================================
// classes
// ============================================================

func (a *app) classesCmd() *cobra.Command {
	var (
		attributes bool
		watch      bool
	)
	cmd := &cobra.Command{
		Use:   "classes [NAME...]",
		Short: "List the classes of the dso path",
		Long: `Lists every class definition found on the dso path, or only the named ones.
With --watch the list is printed again whenever a class file changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			src := dso.NewSource(dso.WithLogger(a.logger))
			classes, err := src.LoadClasses(cmd.Context(), a.cfg.DsoPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := printClasses(out, classes, args, attributes); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return src.Watch(cmd.Context(), a.cfg.DsoPath, dso.DefaultDebounce, func(classes []*rdl.SceneClass, err error) {
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("reload failed:"), err)
					return
				}
				fmt.Fprintln(out)
				_ = printClasses(out, classes, args, attributes)
			})
		},
	}
	cmd.Flags().BoolVarP(&attributes, "attributes", "a", false, "list the attributes of every class")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "print again when a class file changes")
	return cmd
}

func printClasses(out io.Writer, classes []*rdl.SceneClass, names []string, attributes bool) error {
	byName := make(map[string]*rdl.SceneClass, len(classes))
	for _, c := range classes {
		byName[c.Name()] = c
	}
	if len(names) == 0 {
		names = dso.ClassNames(classes)
	}
	for _, n := range names {
		if _, ok := byName[n]; !ok {
			return fmt.Errorf("%w: unknown scene class %q", rdl.ErrSchema, n)
		}
	}

	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("%d classes", len(names))))
	for _, n := range names {
		c := byName[n]
		fmt.Fprintf(out, "%s %s %s\n", nameStyle.Render(c.Name()),
			c.Interface(), dimStyle.Render(fmt.Sprintf("(%d attributes, %s)", c.NumAttributes(), c.SourcePath())))
		if !attributes {
			continue
		}
		for _, attr := range c.Attributes() {
			var extra []string
			if f := attr.Flags(); f != rdl.FlagsNone {
				extra = append(extra, f.String())
			}
			if aliases := attr.Aliases(); len(aliases) > 0 {
				extra = append(extra, "aka "+strings.Join(aliases, ","))
			}
			if enums := attr.EnumValues(); len(enums) > 0 {
				labels := make([]string, len(enums))
				for i, e := range enums {
					labels[i] = fmt.Sprintf("%d=%s", e.Value, e.Label)
				}
				extra = append(extra, strings.Join(labels, " "))
			}
			line := fmt.Sprintf("    %-28s %-20s default %s", attr.Name(), attr.Type(), attr.Default())
			if len(extra) > 0 {
				line += dimStyle.Render("  [" + strings.Join(extra, "; ") + "]")
			}
			fmt.Fprintln(out, line)
		}
	}
	return nil
}
