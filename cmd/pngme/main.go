package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/flaneur2020/pngme/pngme"
	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
	"github.com/flaneur2020/pngme/pngme/logger"
	"github.com/flaneur2020/pngme/pngme/storage"
	"github.com/spf13/cobra"
)

type app struct {
	storage storage.Storage
	opts    cliOptions
}

func main() {
	a := &app{storage: storage.NewLocalStorage()}
	if err := a.rootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// Exit codes for rejected input. Anything that is not a PngError (I/O,
// usage) exits 1.
const (
	exitMalformedFile = 2
	exitBadChunkType  = 3
	exitChunkNotFound = 4
)

func exitCode(err error) int {
	if !pngerrors.IsPngError(err) {
		return 1
	}
	switch pngerrors.GetErrorCode(err) {
	case pngerrors.ErrInvalidTypeLength.Code, pngerrors.ErrInvalidChunkType.Code:
		return exitBadChunkType
	case pngerrors.ErrChunkNotFound.Code:
		return exitChunkNotFound
	default:
		return exitMalformedFile
	}
}

func (a *app) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pngme",
		Short:         "Hide and recover messages in PNG chunks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.opts.apply()
		},
	}
	bindGlobalFlags(rootCmd.PersistentFlags(), &a.opts)

	// encode command
	encodeCmd := &cobra.Command{
		Use:   "encode <FILE> <CHUNK_TYPE> <MESSAGE> [OUTPUT]",
		Short: "Encode a message into a PNG file",
		Args:  cobra.RangeArgs(3, 4),
		RunE:  a.runEncode,
	}

	// decode command
	decodeCmd := &cobra.Command{
		Use:   "decode <FILE> <CHUNK_TYPE>",
		Short: "Search for a message hidden in a PNG file",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runDecode,
	}

	// remove command
	var removeOutput string
	var removeAll bool
	removeCmd := &cobra.Command{
		Use:   "remove <FILE> <CHUNK_TYPE>",
		Short: "Remove a chunk from a PNG file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRemove(cmd, args, removeOutput, removeAll)
		},
	}
	bindOutputFlag(removeCmd.Flags(), &removeOutput)
	removeCmd.Flags().BoolVar(&removeAll, "all", false, "Remove every chunk of the type instead of only the first")

	// print command
	printCmd := &cobra.Command{
		Use:   "print <FILE>",
		Short: "Print all of the chunks in a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runPrint,
	}

	rootCmd.AddCommand(encodeCmd, decodeCmd, removeCmd, printCmd)
	return rootCmd
}

func (a *app) readFile(ctx context.Context, path string) (*storage.File, error) {
	return a.storage.ReadFile(ctx, path, a.opts.progressFor(fmt.Sprintf("Reading %s", path)))
}

func (a *app) writeFile(ctx context.Context, path string, data []byte) error {
	file, err := a.storage.WriteFile(ctx, path, data, a.opts.progressFor(fmt.Sprintf("Writing %s", path)))
	if err != nil {
		return err
	}
	logger.Info("Wrote %s (%s, %s)", file.Name, humanize.Bytes(uint64(file.Size)), file.Digest)
	return nil
}

func (a *app) runEncode(cmd *cobra.Command, args []string) error {
	path, chunkType, message := args[0], args[1], args[2]
	output := path
	if len(args) > 3 {
		output = args[3]
	}

	ctx := cmd.Context()
	file, err := a.readFile(ctx, path)
	if err != nil {
		return err
	}

	encoded, err := pngme.Encode(file.Data, chunkType, message)
	if err != nil {
		return err
	}
	return a.writeFile(ctx, output, encoded)
}

func (a *app) runDecode(cmd *cobra.Command, args []string) error {
	path, chunkType := args[0], args[1]

	file, err := a.readFile(cmd.Context(), path)
	if err != nil {
		return err
	}

	message, err := pngme.Decode(file.Data, chunkType)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), message)
	return nil
}

func (a *app) runRemove(cmd *cobra.Command, args []string, output string, all bool) error {
	path, chunkType := args[0], args[1]
	if output == "" {
		output = path
	}

	ctx := cmd.Context()
	file, err := a.readFile(ctx, path)
	if err != nil {
		return err
	}

	var result []byte
	removed := 1
	if all {
		result, removed, err = pngme.RemoveAll(file.Data, chunkType)
	} else {
		result, err = pngme.Remove(file.Data, chunkType)
	}
	if err != nil {
		return err
	}

	if err := a.writeFile(ctx, output, result); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d chunk(s) of type %s\n", removed, chunkType)
	return nil
}

func (a *app) runPrint(cmd *cobra.Command, args []string) error {
	path := args[0]

	file, err := a.readFile(cmd.Context(), path)
	if err != nil {
		return err
	}

	infos, err := pngme.ListChunks(file.Data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s, %d chunks, %s\n", path, humanize.Bytes(uint64(file.Size)), len(infos), file.Digest)
	return printChunkTable(out, infos)
}

func printChunkTable(w io.Writer, infos []pngme.ChunkInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTYPE\tLENGTH\tCRC\tCRITICAL\tPUBLIC\tRESERVED-OK\tSAFE-TO-COPY\tVALID\tDIGEST")
	for i, info := range infos {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%08x\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i, info.Type, info.Length, info.CRC,
			yesNo(info.Critical), yesNo(info.Public), yesNo(info.ReservedBitValid),
			yesNo(info.SafeToCopy), yesNo(info.Valid), info.Digest.Encoded()[:12])
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
