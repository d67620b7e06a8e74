package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/dmitrijs2005/facegate/internal/common"
	"github.com/dmitrijs2005/facegate/internal/filex"
	"github.com/dmitrijs2005/facegate/internal/landmark"
	"github.com/dmitrijs2005/facegate/internal/workflow"
)

var (
	ErrUsage    = errors.New("wrong arguments")
	ErrDisabled = errors.New("command is not configured")
)

func usage(format string) error {
	return fmt.Errorf("%w, usage: %s", ErrUsage, format)
}

// await waits for the single outcome of an async workflow. When ctx ends
// first the outcome is abandoned; the buffered channel lets the worker finish.
func await(ctx context.Context, ch <-chan workflow.Outcome) (workflow.Outcome, error) {
	select {
	case out := <-ch:
		return out, nil
	case <-ctx.Done():
		return workflow.Outcome{}, ctx.Err()
	}
}

func (a *App) Register(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("register <image> [name]")
	}
	img, err := loadImage(args[0])
	if err != nil {
		return err
	}

	name := strings.Join(args[1:], " ")
	if name == "" {
		if name, err = GetSimpleText(a.reader, "Enter user name", a.out); err != nil {
			return err
		}
	}

	pw, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	req := workflow.RegisterRequest{Name: name, Password: string(pw), Image: img}
	fmt.Fprintln(a.out, "Registering...")
	out, err := await(ctx, a.deps.Workflows.RegisterAsync(ctx, req))
	if err != nil {
		return err
	}

	if out.Kind == workflow.Rejected && errors.Is(out.Err, workflow.ErrOverwriteNotConfirmed) {
		ok, err := Confirm(a.reader, fmt.Sprintf("%q is already registered. Replace the stored face?", out.Name), a.out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Registration cancelled.")
			return nil
		}
		newPw, err := GetPassword("New password (empty keeps the current one)", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(newPw)

		req.ConfirmOverwrite = true
		req.NewPassword = string(newPw)
		if out, err = await(ctx, a.deps.Workflows.RegisterAsync(ctx, req)); err != nil {
			return err
		}
	}

	renderOutcome(a.out, "register", out)
	return nil
}

func (a *App) Authorize(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("authorize <image>")
	}
	img, err := loadImage(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Identifying...")
	out, err := await(ctx, a.deps.Workflows.AuthorizeAsync(ctx, workflow.AuthorizeRequest{Image: img}))
	if err != nil {
		return err
	}
	renderOutcome(a.out, "authorize", out)
	return nil
}

// Preview writes the preprocessed capture with the detected landmarks drawn
// on it as a PNG file.
func (a *App) Preview(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("preview <image> <out.png>")
	}
	img, err := loadImage(args[0])
	if err != nil {
		return err
	}

	d, gray, err := a.deps.Detector.Detect(ctx, img)
	if err != nil {
		fmt.Fprintln(a.out, faultMessage(err))
		return nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, landmark.Annotate(gray, d)); err != nil {
		return err
	}
	if err := filex.EnsureParentDir(args[1]); err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(args[1], buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Landmarks written to %s\n", args[1])
	return nil
}

func (a *App) List(ctx context.Context) error {
	users, err := a.deps.Records.AllRecords(ctx)
	if err != nil {
		return err
	}
	renderUsers(a.out, users)
	return nil
}

func (a *App) Backup(ctx context.Context) error {
	if a.deps.Backup == nil {
		return ErrDisabled
	}
	key, err := a.deps.Backup.Upload(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Backup uploaded: %s\n", key)
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	if a.deps.Metrics == nil {
		return ErrDisabled
	}
	return a.deps.Metrics.WriteText(a.out)
}
