// Command ecsfsctl is a reference CLI over the ecsfs library, with the
// subcommands format, info, create, rm, ls, cat and write, operating against
// a single image path given by --image.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ecsfs/ecsfs"
	"github.com/ecsfs/ecsfs/internal/filedev"
	"github.com/spf13/cobra"
)

var (
	imagePath string
	verbose   bool
)

func newLogger() *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// withMount opens dev at imagePath, mounts it onto a fresh session, runs fn,
// and unmounts, regardless of fn's outcome (mirroring the teacher's own
// example_test.go Mount/...(/Close)/Unmount pattern).
func withMount(fn func(fsys *ecsfs.FS) error) error {
	dev := filedev.New(imagePath)
	fsys := ecsfs.New(newLogger())
	if err := fsys.Mount(dev); err != nil {
		return fmt.Errorf("mount %s: %w", imagePath, err)
	}
	runErr := fn(fsys)
	if err := fsys.Unmount(); err != nil && runErr == nil {
		runErr = fmt.Errorf("unmount: %w", err)
	}
	return runErr
}

func main() {
	root := &cobra.Command{
		Use:   "ecsfsctl",
		Short: "Inspect and manipulate a single-image ECS150FS-style filesystem",
	}
	root.PersistentFlags().StringVar(&imagePath, "image", "", "path to the backing image file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging and, for info, a superblock/root-directory diagnostic dump")
	root.MarkPersistentFlagRequired("image")

	root.AddCommand(
		formatCmd(),
		infoCmd(),
		createCmd(),
		rmCmd(),
		lsCmd(),
		catCmd(),
		writeCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func formatCmd() *cobra.Command {
	var totalBlocks, fatBlocks int
	cmd := &cobra.Command{
		Use:   "format",
		Short: "Create and format a new image",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f ecsfs.Formatter
			return f.FormatFile(imagePath, ecsfs.FormatConfig{
				TotalBlocks: totalBlocks,
				FATBlocks:   fatBlocks,
			})
		},
	}
	cmd.Flags().IntVar(&totalBlocks, "blocks", 64, "total block count")
	cmd.Flags().IntVar(&fatBlocks, "fat-blocks", 1, "number of FAT blocks")
	return cmd
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print filesystem info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMount(func(fsys *ecsfs.FS) error {
				out, err := fsys.Info()
				if err != nil {
					return err
				}
				fmt.Print(out)
				if verbose {
					dump, err := fsys.DebugDump()
					if err != nil {
						return err
					}
					fmt.Print(dump)
				}
				return nil
			})
		},
	}
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <filename>",
		Short: "Create an empty file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMount(func(fsys *ecsfs.FS) error {
				return fsys.Create(args[0])
			})
		},
	}
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <filename>",
		Short: "Delete a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMount(func(fsys *ecsfs.FS) error {
				return fsys.Delete(args[0])
			})
		},
	}
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMount(func(fsys *ecsfs.FS) error {
				out, err := fsys.Ls()
				if err != nil {
					return err
				}
				fmt.Print(out)
				return nil
			})
		},
	}
}

func catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <filename>",
		Short: "Print a file's contents to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMount(func(fsys *ecsfs.FS) error {
				f, err := fsys.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				_, err = io.Copy(os.Stdout, f)
				return err
			})
		},
	}
}

func writeCmd() *cobra.Command {
	var offset int64
	cmd := &cobra.Command{
		Use:   "write <filename>",
		Short: "Write stdin into a file at an offset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			return withMount(func(fsys *ecsfs.FS) error {
				f, err := fsys.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				if _, err := f.Seek(offset, io.SeekStart); err != nil {
					return err
				}
				_, err = f.Write(data)
				return err
			})
		},
	}
	cmd.Flags().Int64Var(&offset, "offset", 0, "byte offset to start writing at")
	return cmd
}
