package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nicholas-fedor/gifdeck/pkg/client"
	"github.com/nicholas-fedor/gifdeck/pkg/controller"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// errNoResult indicates that generation succeeded without a location to download.
var errNoResult = errors.New("the service returned no GIF location")

// errInvalidPosition indicates a move target that is not a positive integer.
var errInvalidPosition = errors.New("position must be a positive integer")

func newSessionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Print the session id, requesting one if none is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := deck.sessions.ID(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to resolve session: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)

			return nil
		},
	}
}

func newNewSessionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "new-session",
		Short: "Abandon the current session and start an empty one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := deck.runAction(cmd.Context(), deck.controller.NewSession); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), deck.sessions.Current())

			return nil
		},
	}
}

func newUploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload images to the session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]types.File, 0, len(args))

			for _, arg := range args {
				file, err := client.NewLocalFile(arg)
				if err != nil {
					return fmt.Errorf("cannot upload %s: %w", arg, err)
				}

				files = append(files, file)
			}

			return deck.runListAction(cmd.Context(), func(ctx context.Context) error {
				return deck.controller.Upload(ctx, files)
			})
		},
	}
}

func newListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the images of the session in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := deck.runAction(cmd.Context(), deck.controller.Refresh); err != nil {
				return err
			}

			if !asJSON {
				deck.view.Print()

				return nil
			}

			items := deck.controller.Items()
			if items == nil {
				items = types.ImageList{}
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")

			if err := encoder.Encode(items); err != nil {
				return fmt.Errorf("failed to encode image list: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the list as JSON")

	return cmd
}

func newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME...",
		Aliases: []string{"rm"},
		Short:   "Remove images from the session",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deck.runListAction(cmd.Context(), func(ctx context.Context) error {
				var errs []error

				for _, name := range args {
					if err := deck.controller.Remove(ctx, name); err != nil {
						errs = append(errs, err)
					}
				}

				return errors.Join(errs...)
			})
		},
	}
}

func newReorderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder NAME...",
		Short: "Save a new order; every image of the session must be named exactly once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deck.runListAction(cmd.Context(), func(ctx context.Context) error {
				if err := deck.controller.Refresh(ctx); err != nil {
					return err
				}

				return deck.controller.Reorder(ctx, args)
			})
		},
	}
}

func newMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move NAME POSITION",
		Short: "Move one image to a 1-based position",
		Args:  cobra.ExactArgs(2), //nolint:mnd // Name and position.
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := strconv.Atoi(args[1])
			if err != nil || position < 1 {
				return fmt.Errorf("%w: %q", errInvalidPosition, args[1])
			}

			return deck.runListAction(cmd.Context(), func(ctx context.Context) error {
				if err := deck.controller.Refresh(ctx); err != nil {
					return err
				}

				return deck.controller.Move(ctx, args[0], position)
			})
		},
	}
}

func newReverseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reverse",
		Short: "Reverse the order of the images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return deck.runListAction(cmd.Context(), func(ctx context.Context) error {
				if err := deck.controller.Refresh(ctx); err != nil {
					return err
				}

				return deck.controller.Reverse(ctx)
			})
		},
	}
}

func newGenerateCommand() *cobra.Command {
	var (
		form   types.GenerateForm
		output string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Assemble the session images into a GIF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := deck.runAction(cmd.Context(), func(ctx context.Context) error {
				return deck.controller.Generate(ctx, form)
			})
			if err != nil || output == "" {
				return err
			}

			results := deck.view.Results()
			if len(results) == 0 {
				return errNoResult
			}

			return deck.download(cmd.Context(), results[len(results)-1], output, cmd.OutOrStdout())
		},
	}

	flagsSet := cmd.Flags()
	flagsSet.IntVar(&form.DurationMS, "duration", controller.DefaultDurationMS, "Frame duration in milliseconds")
	flagsSet.IntVar(&form.Loop, "loop", controller.DefaultLoop, "Loop count, 0 loops forever")
	flagsSet.StringVar(&form.Resize, "resize", "", "Target size as WIDTHxHEIGHT, e.g. 320x240")
	flagsSet.StringToStringVar(&form.Extra, "set", nil, "Additional form fields as key=value")
	flagsSet.StringVarP(&output, "output", "o", "", "Download the GIF to this path, - for stdout")

	return cmd
}

func newFetchCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fetch NAME",
		Short: "Download an uploaded image or generated GIF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := output
			if target == "" {
				target = path.Base(args[0])
			}

			return deck.download(cmd.Context(), args[0], target, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path, - for stdout; defaults to the file name")

	return cmd
}

// runListAction runs fn as a notification batch and prints the resulting list on success.
func (a *app) runListAction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := a.runAction(ctx, fn); err != nil {
		return err
	}

	a.view.Print()

	return nil
}

// download writes the file at location to target; "-" selects stdout.
func (a *app) download(ctx context.Context, location, target string, stdout io.Writer) error {
	id, err := a.sessions.ID(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve session: %w", err)
	}

	location = strings.TrimPrefix(location, a.client.Root())

	if target == "-" {
		if _, err := a.client.Fetch(ctx, id, location, stdout); err != nil {
			return fmt.Errorf("failed to download %s: %w", location, err)
		}

		return nil
	}

	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	written, err := a.client.Fetch(ctx, id, location, file)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(target)

		return fmt.Errorf("failed to download %s: %w", location, err)
	}

	logrus.WithFields(logrus.Fields{
		"file":  target,
		"bytes": written,
	}).Info("Downloaded file")

	return nil
}
