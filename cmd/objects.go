package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/certainty3452/fires3/pkg/storage"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "list the objects in a bucket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := makeBucket(cmd)
		if err != nil {
			return err
		}
		return runList(cmd.Context(), b, cmd.OutOrStdout())
	},
}

var getCmd = &cobra.Command{
	Use:   "get KEY [FILE]",
	Short: "download an object",
	Long: `Download an object.

KEY:  The object key.
FILE: Where to write the content. Defaults to stdout.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := makeBucket(cmd)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(args) == 2 {
			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return runGet(cmd.Context(), b, args[0], w)
	},
}

var putCmd = &cobra.Command{
	Use:   "put KEY [FILE]",
	Short: "upload an object, overwriting any existing one",
	Long: `Upload an object, overwriting any existing one.

KEY:  The object key.
FILE: The file to upload. Defaults to stdin.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := makeBucket(cmd)
		if err != nil {
			return err
		}

		r := cmd.InOrStdin()
		if len(args) == 2 {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		return runPut(cmd.Context(), b, args[0], r, cmd.OutOrStdout())
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm KEY",
	Short: "delete an object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := makeBucket(cmd)
		if err != nil {
			return err
		}
		return runDelete(cmd.Context(), b, args[0], cmd.OutOrStdout())
	},
}

func runList(ctx context.Context, b storage.Bucket, w io.Writer) error {
	objects, err := b.List(ctx)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		fmt.Fprintln(w, obj.Key())
	}
	return nil
}

func runGet(ctx context.Context, b storage.Bucket, key string, w io.Writer) error {
	obj, err := b.Get(ctx, key)
	if err != nil {
		return err
	}
	defer obj.Close()

	rc, err := obj.Content(ctx)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	return nil
}

func runPut(ctx context.Context, b storage.Bucket, key string, r io.Reader, w io.Writer) error {
	obj, err := b.Create(ctx, key, r)
	if err != nil {
		return err
	}
	defer obj.Close()

	fmt.Fprintf(w, "created %s/%s\n", b.Name(), obj.Key())
	return nil
}

func runDelete(ctx context.Context, b storage.Bucket, key string, w io.Writer) error {
	if _, err := b.Delete(ctx, key); err != nil {
		return err
	}
	fmt.Fprintf(w, "deleted %s/%s\n", b.Name(), key)
	return nil
}

func init() {
	rootCmd.AddCommand(lsCmd, getCmd, putCmd, rmCmd)
}
