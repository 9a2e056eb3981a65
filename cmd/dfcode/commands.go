package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"dfcode.dev/internal/codeclient"
	"dfcode.dev/internal/itemnbt"
	"dfcode.dev/internal/recode"
	"dfcode.dev/internal/template"
	"dfcode.dev/internal/transcript"
)

var commands = []command{
	{"scopes", "scopes", "show the scopes the companion has authorized", cmdScopes},
	{"auth", "auth <scope...>", "ask the player to grant scopes", cmdAuth},
	{"token", "token [token]", "print a token, or authenticate with one", cmdToken},
	{"size", "size", "print the plot size", cmdSize},
	{"mode", "mode [spawn|play|dev|build]", "print or switch the player mode", cmdMode},
	{"spawn", "spawn", "teleport to the codespace spawn", cmdSpawn},
	{"inv", "inv", "print the inventory, one item per line", cmdInv},
	{"clear", "clear", "remove all code from the plot", cmdClear},
	{"pull", "pull [--prefix p]", "scan the plot into the library", cmdPull},
	{"push", "push [--mode m] <ref...>", "place library templates on the plot", cmdPush},
	{"place", "place [--mode m] <file...>", "place template files on the plot", cmdPlace},
	{"give", "give <file|ref>", "give the player a template item", cmdGive},
	{"recode", "recode [--source s] <file|ref>", "give a template item through Recode", cmdRecode},
	{"list", "list", "list library templates", cmdList},
	{"show", "show <ref>", "print a library template as JSON", cmdShow},
	{"import", "import [--name n] <file...>", "add template files to the library", cmdImport},
	{"rm", "rm <ref...>", "delete library templates", cmdRemove},
	{"validate", "validate <file...>", "check template files offline", cmdValidate},
	{"schema", "schema", "print the template document JSON Schema", cmdSchema},
	{"transcript", "transcript <file>", "print a recorded session", cmdTranscript},
}

func noArgs(name string, args []string) error {
	if len(args) != 0 {
		return usagef("%s takes no arguments", name)
	}
	return nil
}

func cmdScopes(ctx context.Context, a *app, args []string) error {
	if err := noArgs("scopes", args); err != nil {
		return err
	}
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	got, err := s.QueryScopes(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, got.String())
	return nil
}

func cmdAuth(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return usagef("auth needs at least one scope (%s)", strings.Join(codeclient.ScopeAll.Names(), ", "))
	}
	var want codeclient.Scope
	for _, name := range args {
		if name == "all" {
			want |= codeclient.ScopeAll
			continue
		}
		sc, ok := codeclient.ScopeByName(name)
		if !ok {
			return usagef("unknown scope %q", name)
		}
		want |= sc
	}
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "waiting for the player to approve: %s\n", want.String())
	ok, err := s.RequestScopes(ctx, want, a.cfg.RequestTimeout())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("scopes not granted (current: %s)", s.Authorized().String())
	}
	fmt.Fprintln(a.out, s.Authorized().String())
	return nil
}

func cmdToken(ctx context.Context, a *app, args []string) error {
	if len(args) > 1 {
		return usagef("token takes at most one argument")
	}
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		tok, err := s.Token(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, tok)
		return nil
	}
	if err := s.Authenticate(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, s.Authorized().String())
	return nil
}

func cmdSize(ctx context.Context, a *app, args []string) error {
	if err := noArgs("size", args); err != nil {
		return err
	}
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	size, err := s.PlotSize(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, size)
	return nil
}

func cmdMode(ctx context.Context, a *app, args []string) error {
	if len(args) > 1 {
		return usagef("mode takes at most one argument")
	}
	var target codeclient.Mode
	if len(args) == 1 {
		m, err := codeclient.ParseMode(args[0])
		if err != nil {
			return usagef("unknown mode %q", args[0])
		}
		target = m
	}
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	if target != "" {
		return s.SetMode(ctx, target)
	}
	m, err := s.Mode(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, m)
	return nil
}

func cmdSpawn(ctx context.Context, a *app, args []string) error {
	if err := noArgs("spawn", args); err != nil {
		return err
	}
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	return s.Spawn(ctx)
}

func cmdInv(ctx context.Context, a *app, args []string) error {
	if err := noArgs("inv", args); err != nil {
		return err
	}
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	items, err := s.Inventory(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Fprintln(a.out, it)
	}
	return nil
}

func cmdClear(ctx context.Context, a *app, args []string) error {
	if err := noArgs("clear", args); err != nil {
		return err
	}
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	return s.Clear(ctx)
}

func cmdPull(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("pull", pflag.ContinueOnError)
	prefix := fs.String("prefix", "plot", "library name prefix for scanned templates")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := noArgs("pull", fs.Args()); err != nil {
		return err
	}
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	lib, err := a.library()
	if err != nil {
		return err
	}
	templates, err := s.PlotTemplates(ctx, a.cfg.ScanTimeout())
	if err != nil {
		return err
	}
	for i, t := range templates {
		e, err := lib.Put(ctx, fmt.Sprintf("%s-%d", *prefix, i+1), t)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s %s (%d blocks)\n", e.Hash[:12], e.Name, e.Blocks)
	}
	a.logger.Printf("pulled templates=%d", len(templates))
	return nil
}

func placeMode(fs *pflag.FlagSet, def codeclient.PlaceMode) *string {
	return fs.String("mode", string(def), "placement mode: compact or swap")
}

func cmdPush(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("push", pflag.ContinueOnError)
	mode := placeMode(fs, codeclient.PlaceCompact)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usagef("push needs at least one library reference")
	}
	lib, err := a.library()
	if err != nil {
		return err
	}
	var templates []template.Template
	for _, ref := range fs.Args() {
		t, _, err := lib.Get(ctx, ref)
		if err != nil {
			return err
		}
		templates = append(templates, t)
	}
	return a.place(ctx, codeclient.PlaceMode(*mode), templates)
}

func cmdPlace(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("place", pflag.ContinueOnError)
	mode := placeMode(fs, codeclient.PlaceSwap)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usagef("place needs at least one template file")
	}
	templates, err := readTemplateFiles(fs.Args())
	if err != nil {
		return err
	}
	return a.place(ctx, codeclient.PlaceMode(*mode), templates)
}

func (a *app) place(ctx context.Context, mode codeclient.PlaceMode, templates []template.Template) error {
	if mode != codeclient.PlaceCompact && mode != codeclient.PlaceSwap {
		return usagef("unknown placement mode %q", mode)
	}
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	if err := s.PlaceAll(ctx, mode, templates...); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "placed %d templates (%s)\n", len(templates), mode)
	return nil
}

// resolveTemplate reads ref as a file if one exists, otherwise as a library
// reference.
func (a *app) resolveTemplate(ctx context.Context, ref string) (template.Template, error) {
	if t, _, err := readTemplateFile(ref); err == nil {
		return t, nil
	} else if !isNotExist(err) {
		return template.Template{}, err
	}
	lib, err := a.library()
	if err != nil {
		return template.Template{}, err
	}
	t, _, err := lib.Get(ctx, ref)
	return t, err
}

func cmdGive(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return usagef("give takes one template file or library reference")
	}
	t, err := a.resolveTemplate(ctx, args[0])
	if err != nil {
		return err
	}
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	return s.GiveTemplate(ctx, t, a.cfg.Author)
}

func cmdRecode(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("recode", pflag.ContinueOnError)
	source := fs.String("source", recode.DefaultSource, "program name shown in the game toast")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("recode takes one template file or library reference")
	}
	t, err := a.resolveTemplate(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	item, err := itemnbt.TemplateItem(t, a.cfg.Author)
	if err != nil {
		return err
	}
	return recode.Send(ctx, a.cfg.RecodeAddr, item, *source)
}

func cmdList(ctx context.Context, a *app, args []string) error {
	if err := noArgs("list", args); err != nil {
		return err
	}
	lib, err := a.library()
	if err != nil {
		return err
	}
	entries, err := lib.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HASH\tNAME\tBLOCKS\tSIZE\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", e.Hash[:12], e.Name, e.Blocks, e.Size, e.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func cmdShow(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return usagef("show takes one library reference")
	}
	lib, err := a.library()
	if err != nil {
		return err
	}
	t, _, err := lib.Get(ctx, args[0])
	if err != nil {
		return err
	}
	doc, err := t.Document()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = a.out.Write(buf.Bytes())
	return err
}

func cmdImport(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("import", pflag.ContinueOnError)
	name := fs.String("name", "", "library name (default: file name; only with a single file)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usagef("import needs at least one template file")
	}
	if *name != "" && fs.NArg() > 1 {
		return usagef("--name only applies to a single file")
	}
	lib, err := a.library()
	if err != nil {
		return err
	}
	for _, path := range fs.Args() {
		_, doc, err := readTemplateFile(path)
		if err != nil {
			return err
		}
		n := *name
		if n == "" {
			n = templateName(path)
		}
		e, err := lib.Import(ctx, n, doc)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(a.out, "%s %s (%d blocks)\n", e.Hash[:12], e.Name, e.Blocks)
	}
	return nil
}

func cmdRemove(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return usagef("rm needs at least one library reference")
	}
	lib, err := a.library()
	if err != nil {
		return err
	}
	for _, ref := range args {
		e, err := lib.Delete(ctx, ref)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "removed %s %s\n", e.Hash[:12], e.Name)
	}
	return nil
}

func cmdValidate(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return usagef("validate needs at least one template file")
	}
	var failed int
	for _, path := range args {
		t, _, err := readTemplateFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(a.out, "FAIL %v\n", err)
			continue
		}
		env, err := t.Compress()
		if err != nil {
			failed++
			fmt.Fprintf(a.out, "FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(a.out, "ok   %s: %d blocks, envelope %d/%d\n", path, len(t.Blocks), len(env), template.MaxEnvelopeLen)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files invalid", failed, len(args))
	}
	return nil
}

func cmdSchema(ctx context.Context, a *app, args []string) error {
	if err := noArgs("schema", args); err != nil {
		return err
	}
	_, err := fmt.Fprintln(a.out, template.SchemaText())
	return err
}

func cmdTranscript(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return usagef("transcript takes one file")
	}
	recs, err := transcript.ReadFile(args[0])
	if err != nil {
		return err
	}
	for _, r := range recs {
		arrow := ">>"
		if r.Dir == "recv" {
			arrow = "<<"
		}
		fmt.Fprintf(a.out, "%s %s %s %s\n", r.Time.Format("15:04:05.000"), r.Session, arrow, r.Line)
	}
	return nil
}
