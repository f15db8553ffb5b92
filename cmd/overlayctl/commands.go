package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/editor"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/gateway"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/geometry"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/render"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

var errUsage = errors.New("usage")

// Watcher streams remote overlay changes of a screen.
type Watcher interface {
	Watch(ctx context.Context, screenID int, handler func(gateway.RemoteChange)) error
}

// CLI runs one overlayctl command against Gateway. Watcher is only needed
// by the watch command.
type CLI struct {
	Gateway editor.Gateway
	Watcher Watcher
	In      io.Reader
	Out     io.Writer
}

func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "screens":
		return c.screens(ctx)
	case "overlays":
		return c.overlays(ctx, rest)
	case "render":
		return c.render(ctx, rest)
	case "drag":
		return c.drag(ctx, rest)
	case "create":
		return c.create(ctx, rest)
	case "set":
		return c.set(ctx, rest)
	case "delete":
		return c.delete(ctx, rest)
	case "watch":
		return c.watch(ctx, rest)
	case "help", "-h", "--help":
		return errUsage
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// open starts an editor session on screenID.
func (c *CLI) open(ctx context.Context, screenID int) (*editor.Session, error) {
	if screenID <= 0 {
		return nil, fmt.Errorf("%w: -screen is required", errUsage)
	}
	renderer, err := render.New(render.DefaultOptions())
	if err != nil {
		return nil, err
	}
	sess := editor.New(c.Gateway, renderer)
	screens, err := sess.Screens(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range screens {
		if s.ID == screenID {
			return sess, sess.SelectScreen(ctx, s)
		}
	}
	return nil, fmt.Errorf("screen %d not found", screenID)
}

func (c *CLI) screens(ctx context.Context) error {
	screens, err := c.Gateway.FetchScreens(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRESOLUTION\tORIENTATION\tPAIRED")
	for _, s := range screens {
		fmt.Fprintf(tw, "%d\t%s\t%dx%d\t%s\t%t\n", s.ID, s.Name, s.Width, s.Height, s.Orientation, s.Paired)
	}
	return tw.Flush()
}

func (c *CLI) overlays(ctx context.Context, args []string) error {
	fs := newFlagSet("overlays")
	screenID := fs.Int("screen", 0, "screen id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	sess, err := c.open(ctx, *screenID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tX\tY\tW\tH\tZ\tOPACITY\tROTATION\tSTATUS")
	for _, o := range render.PaintOrder(sess.Store().Overlays()) {
		fmt.Fprintf(tw, "%d\t%s\t%g\t%g\t%g\t%g\t%d\t%g\t%g\t%s\n",
			o.ID, o.Name, o.PositionX, o.PositionY, o.Width, o.Height, o.ZIndex, o.Opacity, o.Rotation, o.Status)
	}
	return tw.Flush()
}

func (c *CLI) render(ctx context.Context, args []string) error {
	fs := newFlagSet("render")
	screenID := fs.Int("screen", 0, "screen id")
	zoom := fs.Float64("zoom", 1, "zoom factor")
	selected := fs.Int("select", 0, "overlay id to highlight")
	out := fs.String("o", "", "output PNG path")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *out == "" {
		return fmt.Errorf("%w: -o is required", errUsage)
	}
	sess, err := c.open(ctx, *screenID)
	if err != nil {
		return err
	}
	sess.SetZoom(*zoom)
	if *selected != 0 && !sess.Select(*selected) {
		return fmt.Errorf("overlay %d is not on screen %d", *selected, *screenID)
	}

	frame := sess.Frame()
	if err := writeFrame(*out, frame); err != nil {
		return err
	}
	b := frame.Image.Bounds()
	fmt.Fprintf(c.Out, "wrote %s (%dx%d, zoom %g)\n", *out, b.Dx(), b.Dy(), frame.Zoom)
	return nil
}

func writeFrame(path string, frame editor.Frame) error {
	if frame.Image == nil {
		return errors.New("nothing rendered")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.EncodePNG(f, frame.Image); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func parsePoint(v string) (geometry.Point, error) {
	xs, ys, ok := strings.Cut(v, ",")
	if !ok {
		return geometry.Point{}, fmt.Errorf("%w: point %q must be X,Y", errUsage, v)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("%w: bad x in %q", errUsage, v)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("%w: bad y in %q", errUsage, v)
	}
	return geometry.Point{X: x, Y: y}, nil
}

func (c *CLI) drag(ctx context.Context, args []string) error {
	fs := newFlagSet("drag")
	screenID := fs.Int("screen", 0, "screen id")
	zoom := fs.Float64("zoom", 1, "zoom factor the pixel coordinates refer to")
	from := fs.String("from", "", "pointer down X,Y in canvas pixels")
	to := fs.String("to", "", "pointer up X,Y in canvas pixels")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	start, err := parsePoint(*from)
	if err != nil {
		return err
	}
	end, err := parsePoint(*to)
	if err != nil {
		return err
	}
	sess, err := c.open(ctx, *screenID)
	if err != nil {
		return err
	}
	sess.SetZoom(*zoom)

	sess.PointerDown(start)
	o, ok := sess.Selected()
	if !ok {
		return fmt.Errorf("no overlay at %g,%g", start.X, start.Y)
	}
	sess.PointerMove(end)
	if err := sess.PointerUp(ctx); err != nil {
		return err
	}
	moved, _ := sess.Selected()
	fmt.Fprintf(c.Out, "moved overlay %d (%s) from %g,%g to %g,%g\n",
		o.ID, o.Name, o.PositionX, o.PositionY, moved.PositionX, moved.PositionY)
	return nil
}

func (c *CLI) create(ctx context.Context, args []string) error {
	fs := newFlagSet("create")
	screenID := fs.Int("screen", 0, "screen id")
	name := fs.String("name", "", "overlay name")
	contentID := fs.Int("content", 0, "content id to show in the overlay")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	sess, err := c.open(ctx, *screenID)
	if err != nil {
		return err
	}
	var content *int
	if *contentID > 0 {
		content = contentID
	}
	created, err := sess.CreateOverlay(ctx, *name, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "created overlay %d on screen %d\n", created.ID, created.ScreenID)
	return nil
}

func (c *CLI) set(ctx context.Context, args []string) error {
	fs := newFlagSet("set")
	screenID := fs.Int("screen", 0, "screen id")
	id := fs.Int("id", 0, "overlay id")
	name := fs.String("name", "", "name")
	x := fs.Float64("x", 0, "position x")
	y := fs.Float64("y", 0, "position y")
	w := fs.Float64("w", 0, "width")
	h := fs.Float64("h", 0, "height")
	z := fs.Int("z", 0, "z-index")
	opacity := fs.Float64("opacity", 1, "opacity 0..1")
	rotation := fs.Float64("rotation", 0, "rotation in degrees")
	status := fs.String("status", "", "draft, active, scheduled, expired or paused")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *id <= 0 {
		return fmt.Errorf("%w: -id is required", errUsage)
	}

	var patch model.OverlayPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			patch.Name = name
		case "x":
			patch.PositionX = x
		case "y":
			patch.PositionY = y
		case "w":
			patch.Width = w
		case "h":
			patch.Height = h
		case "z":
			patch.ZIndex = z
		case "opacity":
			patch.Opacity = opacity
		case "rotation":
			patch.Rotation = rotation
		case "status":
			st := model.OverlayStatus(*status)
			patch.Status = &st
		}
	})
	if patch == (model.OverlayPatch{}) {
		return fmt.Errorf("%w: nothing to set", errUsage)
	}

	sess, err := c.open(ctx, *screenID)
	if err != nil {
		return err
	}
	if !sess.Select(*id) {
		return fmt.Errorf("overlay %d is not on screen %d", *id, *screenID)
	}
	if err := sess.EditSelected(ctx, patch); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "updated overlay %d\n", *id)
	return nil
}

func (c *CLI) delete(ctx context.Context, args []string) error {
	fs := newFlagSet("delete")
	screenID := fs.Int("screen", 0, "screen id")
	id := fs.Int("id", 0, "overlay id")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *id <= 0 {
		return fmt.Errorf("%w: -id is required", errUsage)
	}
	sess, err := c.open(ctx, *screenID)
	if err != nil {
		return err
	}
	if !sess.Select(*id) {
		return fmt.Errorf("overlay %d is not on screen %d", *id, *screenID)
	}

	deleted, err := sess.DeleteSelected(ctx, func(o model.Overlay) bool {
		if *yes {
			return true
		}
		fmt.Fprintf(c.Out, "delete overlay %d (%s)? [y/N] ", o.ID, o.Name)
		answer, _ := bufio.NewReader(c.In).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	})
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintln(c.Out, "cancelled")
		return nil
	}
	fmt.Fprintf(c.Out, "deleted overlay %d\n", *id)
	return nil
}

// watch prints remote changes and, with -render, re-renders the layout
// after each one.
func (c *CLI) watch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch")
	screenID := fs.Int("screen", 0, "screen id")
	out := fs.String("render", "", "PNG path re-rendered after every change")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if c.Watcher == nil {
		return errors.New("live updates are not available")
	}
	sess, err := c.open(ctx, *screenID)
	if err != nil {
		return err
	}

	err = c.Watcher.Watch(ctx, *screenID, func(ch gateway.RemoteChange) {
		fmt.Fprintf(c.Out, "%s overlay %d\n", ch.Operation, ch.OverlayID)
		if *out == "" {
			return
		}
		if err := sess.Refresh(ctx); err != nil {
			fmt.Fprintf(c.Out, "refresh failed: %v\n", err)
			return
		}
		if err := writeFrame(*out, sess.Frame()); err != nil {
			fmt.Fprintf(c.Out, "render failed: %v\n", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
