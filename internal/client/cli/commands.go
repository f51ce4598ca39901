package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

func (a *App) register(ctx context.Context) {
	userName, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	if err := a.api.Register(ctx, userName, string(password)); err != nil {
		fmt.Fprintf(a.out, "Registration unsuccessful: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "Registered. You can now log in.")
}

func (a *App) login(ctx context.Context) {
	userName, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		fmt.Fprintf(a.out, "Login unsuccessful: %v\n", err)
		return
	}
	a.userName = userName
	fmt.Fprintln(a.out, "Login successful")
}

func (a *App) logout(ctx context.Context) {
	if err := a.api.Logout(ctx); err != nil {
		fmt.Fprintf(a.out, "Logout: %v\n", err)
	} else {
		fmt.Fprintln(a.out, "Logged out")
	}
	a.userName = ""
}

// upload reads a local file and stores it under its base name.
func (a *App) upload(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(a.out, "error reading %s: %v\n", path, err)
		return
	}

	filename := filepath.Base(path)
	if err := a.api.Upload(ctx, filename, data); err != nil {
		fmt.Fprintf(a.out, "Upload unsuccessful: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Uploaded %s (%d bytes)\n", filename, len(data))
}

// download fetches a file and writes it to dest (or the working directory
// under the same name when dest is empty).
func (a *App) download(ctx context.Context, filename, dest string) {
	data, err := a.api.Download(ctx, filename)
	if err != nil {
		fmt.Fprintf(a.out, "Download unsuccessful: %v\n", err)
		return
	}

	if dest == "" {
		dest = filename
	}
	if err := os.WriteFile(dest, data, 0o660); err != nil {
		fmt.Fprintf(a.out, "error writing %s: %v\n", dest, err)
		return
	}
	fmt.Fprintf(a.out, "Downloaded %s (%d bytes)\n", dest, len(data))
}

func (a *App) rename(ctx context.Context, oldFilename, newFilename string) {
	if err := a.api.Rename(ctx, oldFilename, newFilename); err != nil {
		fmt.Fprintf(a.out, "Rename unsuccessful: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Renamed %s to %s\n", oldFilename, newFilename)
}

func (a *App) delete(ctx context.Context, filename string) {
	if err := a.api.Delete(ctx, filename); err != nil {
		fmt.Fprintf(a.out, "Delete unsuccessful: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Deleted %s\n", filename)
}

// list prints the file listing; limitArg is the optional raw argument.
func (a *App) list(ctx context.Context, limitArg string) {
	limit := -1
	if limitArg != "" {
		parsed, err := strconv.Atoi(limitArg)
		if err != nil {
			fmt.Fprintln(a.out, "Usage: list [limit]")
			return
		}
		limit = parsed
	}

	items, err := a.api.List(ctx, limit)
	if err != nil {
		fmt.Fprintf(a.out, "List unsuccessful: %v\n", err)
		return
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No files")
		return
	}
	for _, item := range items {
		fmt.Fprintf(a.out, "%s\t%d\n", item.Filename, item.Size)
	}
}
