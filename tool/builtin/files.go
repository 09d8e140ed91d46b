package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentkit/tool"
)

const (
	// DefaultMaxLines bounds read_file output.
	DefaultMaxLines = 500
	// MaxDirEntries bounds list_directory output.
	MaxDirEntries = 200
)

type readFileArgs struct {
	Path     string `json:"path" description:"Path to the file to read"`
	MaxLines int    `json:"max_lines" description:"Maximum number of lines to read (default: 500)" default:"500"`
}

type writeFileArgs struct {
	Path    string `json:"path" description:"Path to the file to write"`
	Content string `json:"content" description:"Content to write to the file"`
}

type editFileArgs struct {
	Path    string `json:"path" description:"Path to the file to edit"`
	OldText string `json:"old_text" description:"Text to find and replace"`
	NewText string `json:"new_text" description:"Replacement text"`
}

type listDirectoryArgs struct {
	Path string `json:"path" description:"Directory path to list (default: current directory)" default:"."`
}

func newReadFile(o Options) *tool.Definition {
	b := o.backend()

	return tool.NewTyped(NameReadFile, "Read the contents of a file.",
		func(ctx context.Context, args readFileArgs) (any, error) {
			content, err := b.readFile(ctx, args.Path)
			if err != nil {
				return fmt.Sprintf("Error reading %s: %v", args.Path, err), nil
			}

			maxLines := args.MaxLines
			if maxLines <= 0 {
				maxLines = DefaultMaxLines
			}

			return truncateLines(content, maxLines), nil
		})
}

// truncateLines keeps the first n lines and notes how many were dropped.
func truncateLines(content string, n int) string {
	lines := strings.SplitAfter(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) <= n {
		return content
	}
	return strings.Join(lines[:n], "") + fmt.Sprintf("\n... (%d more lines)", len(lines)-n)
}

func newWriteFile(o Options) *tool.Definition {
	b := o.backend()

	return tool.NewTyped(NameWriteFile,
		"Write content to a file. Creates the file and any parent directories if they don't exist.",
		func(ctx context.Context, args writeFileArgs) (any, error) {
			if err := b.writeFile(ctx, args.Path, args.Content); err != nil {
				return fmt.Sprintf("Error writing %s: %v", args.Path, err), nil
			}
			return fmt.Sprintf("Written %d bytes to %s", len(args.Content), args.Path), nil
		})
}

func newEditFile(o Options) *tool.Definition {
	b := o.backend()

	return tool.NewTyped(NameEditFile,
		"Edit a file by replacing old_text with new_text. Only replaces the first occurrence.",
		func(ctx context.Context, args editFileArgs) (any, error) {
			content, err := b.readFile(ctx, args.Path)
			if err != nil {
				return fmt.Sprintf("Error editing %s: %v", args.Path, err), nil
			}
			if !strings.Contains(content, args.OldText) {
				return fmt.Sprintf("Error: old_text not found in %s", args.Path), nil
			}

			content = strings.Replace(content, args.OldText, args.NewText, 1)
			if err := b.writeFile(ctx, args.Path, content); err != nil {
				return fmt.Sprintf("Error editing %s: %v", args.Path, err), nil
			}

			return fmt.Sprintf("Edited %s: replaced text successfully", args.Path), nil
		})
}

func newListDirectory(o Options) *tool.Definition {
	b := o.backend()

	return tool.NewTyped(NameListDirectory,
		"List files and directories at a path. Prefixes with 'd' for directories and 'f' for files.",
		func(ctx context.Context, args listDirectoryArgs) (any, error) {
			path := args.Path
			if path == "" {
				path = "."
			}

			entries, err := b.listDir(ctx, path)
			if err != nil {
				return fmt.Sprintf("Error listing %s: %v", path, err), nil
			}

			total := len(entries)
			if total > MaxDirEntries {
				entries = entries[:MaxDirEntries]
			}

			lines := make([]string, 0, len(entries)+1)
			for _, e := range entries {
				prefix := "f "
				if e.IsDir {
					prefix = "d "
				}
				lines = append(lines, prefix+e.Name)
			}
			if total > MaxDirEntries {
				lines = append(lines, fmt.Sprintf("... (%d more)", total-MaxDirEntries))
			}

			return strings.Join(lines, "\n"), nil
		})
}
