package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/desertwitch/blockfs/internal/allocation"
	"github.com/desertwitch/blockfs/internal/store"
	"github.com/desertwitch/blockfs/internal/ui"
	"github.com/desertwitch/blockfs/internal/validation"
	"github.com/dustin/go-humanize"
)

const helpText = `available commands:
  help                 show this help
  create <name>        create a file and open it
  open <name>          open an existing file
  close <fd>           close an open file
  delete <name>        delete a file and free its blocks
  write <fd> <data>    replace a file's content
  read <fd>            print an open file's content
  rawread <index>      print a file's content by inode index
  ls                   list all files
  df                   show medium utilization
  fsck                 verify medium consistency and checksums
  save [path]          save the medium to a disk image
  load [path]          restore the medium from a disk image
  quit                 leave the shell`

// dispatch parses and runs a single shell command line. Callers must hold the
// application mutex.
func (app *App) dispatch(line string) (string, error) {
	op, rest, _ := strings.Cut(strings.TrimSpace(line), " ")

	switch op {
	case "help":
		return helpText, nil
	case "create":
		return app.cmdCreate(rest)
	case "open":
		return app.cmdOpen(rest)
	case "close":
		return app.cmdClose(rest)
	case "delete":
		return app.cmdDelete(rest)
	case "write":
		return app.cmdWrite(rest)
	case "read":
		return app.cmdRead(rest)
	case "rawread":
		return app.cmdRawRead(rest)
	case "ls":
		return app.cmdLs()
	case "df":
		return app.cmdDf()
	case "fsck":
		return app.cmdFsck()
	case "save":
		return app.cmdSave(rest)
	case "load":
		return app.cmdLoad(rest)
	case "quit", "exit":
		return "", ui.ErrShellQuit
	default:
		return "", fmt.Errorf("(shell) %w: %q", ErrUnknownCommand, op)
	}
}

// parseNumber parses a numeric shell argument, such as a descriptor or an
// inode index.
func parseNumber(arg string) (int, error) {
	number, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("(shell) %w: %q", ErrBadNumber, arg)
	}

	return number, nil
}

func (app *App) cmdCreate(rest string) (string, error) {
	name := strings.TrimSpace(rest)
	if name == "" {
		return "", fmt.Errorf("(shell) %w: usage: create <name>", ErrMissingArgument)
	}

	fd, err := app.store.Create(name)
	if err != nil {
		return "", fmt.Errorf("(shell) %w", err)
	}

	return fmt.Sprintf("created %q (fd %d)", name, fd), nil
}

func (app *App) cmdOpen(rest string) (string, error) {
	name := strings.TrimSpace(rest)
	if name == "" {
		return "", fmt.Errorf("(shell) %w: usage: open <name>", ErrMissingArgument)
	}

	fd, err := app.store.Open(name)
	if err != nil {
		return "", fmt.Errorf("(shell) %w", err)
	}

	if fd == store.DescriptorNotFound {
		return fmt.Sprintf("file not found: %q", name), nil
	}

	return fmt.Sprintf("opened %q (fd %d)", name, fd), nil
}

func (app *App) cmdClose(rest string) (string, error) {
	fd, err := parseNumber(rest)
	if err != nil {
		return "", err
	}

	if err := app.store.Close(fd); err != nil {
		return "", fmt.Errorf("(shell) %w", err)
	}

	return fmt.Sprintf("closed fd %d", fd), nil
}

func (app *App) cmdDelete(rest string) (string, error) {
	name := strings.TrimSpace(rest)
	if name == "" {
		return "", fmt.Errorf("(shell) %w: usage: delete <name>", ErrMissingArgument)
	}

	if err := app.store.Delete(name); err != nil {
		return "", fmt.Errorf("(shell) %w", err)
	}

	return fmt.Sprintf("deleted %q", name), nil
}

func (app *App) cmdWrite(rest string) (string, error) {
	fdArg, data, ok := strings.Cut(rest, " ")
	if !ok || strings.TrimSpace(fdArg) == "" {
		return "", fmt.Errorf("(shell) %w: usage: write <fd> <data>", ErrMissingArgument)
	}

	fd, err := parseNumber(fdArg)
	if err != nil {
		return "", err
	}

	if _, err := app.store.Write(fd, []byte(data)); err != nil {
		return "", fmt.Errorf("(shell) %w", err)
	}

	return fmt.Sprintf("wrote %s to fd %d", humanize.IBytes(uint64(len(data))), fd), nil
}

func (app *App) cmdRead(rest string) (string, error) {
	fd, err := parseNumber(rest)
	if err != nil {
		return "", err
	}

	data, err := app.store.Read(fd)
	if err != nil {
		return "", fmt.Errorf("(shell) %w", err)
	}

	if len(data) == 0 {
		return "(empty)", nil
	}

	return string(data), nil
}

func (app *App) cmdRawRead(rest string) (string, error) {
	index, err := parseNumber(rest)
	if err != nil {
		return "", err
	}

	data, err := app.store.ReadIndex(index)
	if err != nil {
		return "", fmt.Errorf("(shell) %w", err)
	}

	if len(data) == 0 {
		return "(empty)", nil
	}

	return string(data), nil
}

func (app *App) cmdLs() (string, error) {
	files, err := app.store.Files()
	if err != nil {
		return "", fmt.Errorf("(shell) %w", err)
	}

	if len(files) == 0 {
		return "no files on the medium", nil
	}

	var sb strings.Builder

	for _, f := range files {
		var open string
		if f.Open {
			open = " (open)"
		}

		if f.Size < 0 {
			fmt.Fprintf(&sb, "[%d] %s: never written%s\n", f.Index, f.Name, open)
		} else {
			fmt.Fprintf(&sb, "[%d] %s: %s in %d blocks%s\n",
				f.Index, f.Name, humanize.IBytes(uint64(f.Size)), f.Blocks, open)
		}
	}

	fmt.Fprintf(&sb, "%d file(s)", len(files))

	return sb.String(), nil
}

func (app *App) cmdDf() (string, error) {
	usage, err := app.store.Usage()
	if err != nil {
		return "", fmt.Errorf("(shell) %w", err)
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "inodes: %d/%d in use (%.2f%%)\n",
		usage.InodesUsed, usage.InodeCount, usage.InodesUsedPercent())
	fmt.Fprintf(&sb, "blocks: %d/%d allocated (%.2f%%)\n",
		usage.BlocksUsed, usage.BlockCount, usage.BlocksUsedPercent())
	fmt.Fprintf(&sb, "content: %s of %s (block size %s)",
		humanize.IBytes(uint64(usage.BytesUsed)),
		humanize.IBytes(uint64(usage.BytesTotal)),
		humanize.IBytes(uint64(usage.BlockSize)))

	return sb.String(), nil
}

func (app *App) cmdFsck() (string, error) {
	structure, err := app.validationHandler.VerifyMedium()
	if err != nil {
		return "", fmt.Errorf("(shell) %w", err)
	}

	content, err := app.validationHandler.VerifyContent()
	if err != nil {
		return "", fmt.Errorf("(shell) %w", err)
	}

	if structure.Clean() && content.Clean() {
		return fmt.Sprintf("medium is consistent (%d inodes, %d blocks checked)",
			structure.InodesChecked, structure.BlocksChecked+content.BlocksChecked), nil
	}

	var sb strings.Builder

	for _, finding := range structure.Findings {
		sb.WriteString(finding.String() + "\n")
	}

	for _, finding := range content.Findings {
		sb.WriteString(finding.String() + "\n")
	}

	fmt.Fprintf(&sb, "%d problem(s) found", len(structure.Findings)+len(content.Findings))

	return sb.String(), nil
}

func (app *App) cmdSave(rest string) (string, error) {
	path := strings.TrimSpace(rest)
	if path == "" {
		path = app.config.ImagePath
	}

	if path == "" {
		return "", fmt.Errorf("(shell) %w: usage: save <path>", ErrNoImagePath)
	}

	if err := app.imager.Save(app.medium, path); err != nil {
		return "", fmt.Errorf("(shell) %w", err)
	}

	return fmt.Sprintf("medium saved to %q", path), nil
}

func (app *App) cmdLoad(rest string) (string, error) {
	path := strings.TrimSpace(rest)
	if path == "" {
		path = app.config.ImagePath
	}

	if path == "" {
		return "", fmt.Errorf("(shell) %w: usage: load <path>", ErrNoImagePath)
	}

	medium, err := app.imager.Load(path)
	if err != nil {
		return "", fmt.Errorf("(shell) %w", err)
	}

	app.medium = medium
	app.store = store.AttachStore(medium, allocation.NewHandler(medium))
	app.validationHandler = validation.NewHandler(medium)

	return fmt.Sprintf("medium restored from %q", path), nil
}
