package controller

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/gifdeck/pkg/progress"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// Generation defaults.
const (
	DefaultDurationMS = 150
	DefaultLoop       = 0
)

var resizePattern = regexp.MustCompile(`^[1-9][0-9]*x[1-9][0-9]*$`)

func errPanic(recovered any) error {
	return fmt.Errorf("action panicked: %v", recovered)
}

// Upload sends files in one request and refreshes the list on success. With ImagesOnly set,
// non-image files are dropped first; if none remain the action fails with ErrNoFiles and
// nothing is sent.
//
// Parameters:
//   - ctx: Context for the session and network calls.
//   - files: Selected files.
//
// Returns:
//   - error: Non-nil if the upload or the follow-up refresh failed.
func (c *Controller) Upload(ctx context.Context, files []types.File) error {
	err := c.run(ctx, KindUpload, fileNames(files), func(ctx context.Context) error {
		if c.imagesOnly {
			files = filterImages(files)
		}

		if len(files) == 0 {
			return ErrNoFiles
		}

		id, err := c.sessions.ID(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", errUpload, err)
		}

		c.view.ShowProgress()
		defer c.view.HideProgress()

		result, err := c.api.Upload(ctx, id, files, progress.ToView(c.view))
		if err != nil {
			return fmt.Errorf("%w: %w", errUpload, err)
		}

		logrus.WithFields(logrus.Fields{
			"session":   id.ShortID(),
			"filenames": result.Filenames,
		}).Info("Uploaded images")

		return nil
	})
	if err != nil {
		return err
	}

	return c.Refresh(ctx)
}

// Reorder applies order to the rendered list at once and persists it. A failed request
// leaves the local order in place.
//
// Parameters:
//   - ctx: Context for the session and network calls.
//   - order: Every rendered name exactly once, in the new order.
//
// Returns:
//   - error: ErrOrderMismatch, a request failure or a refresh failure.
func (c *Controller) Reorder(ctx context.Context, order []string) error {
	err := c.run(ctx, KindReorder, "", func(ctx context.Context) error {
		current := c.synchronizer.Items().Names()
		if !isPermutation(order, current) {
			return fmt.Errorf("%w: got %v, rendered %v", ErrOrderMismatch, order, current)
		}

		list := types.NewImageList(order)
		c.synchronizer.Apply(list)

		return c.persistOrder(ctx, list, errReorder)
	})
	if err != nil {
		return err
	}

	return c.Refresh(ctx)
}

// Move places one image at a 1-based position, the way a finished drag and drop would.
//
// Parameters:
//   - ctx: Context for the session and network calls.
//   - name: Image to move.
//   - position: Target position.
//
// Returns:
//   - error: ErrOrderMismatch for unknown names, ErrInvalidPosition, or a Reorder error.
func (c *Controller) Move(ctx context.Context, name string, position int) error {
	names := c.synchronizer.Items().Names()

	index := slices.Index(names, name)
	if index < 0 {
		return c.run(ctx, KindReorder, name, func(context.Context) error {
			return fmt.Errorf("%w: %s is not rendered", ErrOrderMismatch, name)
		})
	}

	if position < 1 || position > len(names) {
		return c.run(ctx, KindReorder, name, func(context.Context) error {
			return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidPosition, position, len(names))
		})
	}

	names = slices.Delete(names, index, index+1)
	names = slices.Insert(names, position-1, name)

	return c.Reorder(ctx, names)
}

// Reverse reverses the rendered list at once and persists the new order. Lists with fewer
// than two entries are left alone and nothing is sent.
//
// Parameters:
//   - ctx: Context for the session and network calls.
//
// Returns:
//   - error: A request or refresh failure.
func (c *Controller) Reverse(ctx context.Context) error {
	items := c.synchronizer.Items()
	if len(items) < 2 { //nolint:mnd // Reversing needs two entries.
		logrus.WithField("images", len(items)).Debug("Nothing to reverse")

		return nil
	}

	err := c.run(ctx, KindReverse, "", func(ctx context.Context) error {
		names := items.Names()
		slices.Reverse(names)

		list := types.NewImageList(names)
		c.synchronizer.Apply(list)

		return c.persistOrder(ctx, list, errReorder)
	})
	if err != nil {
		return err
	}

	return c.Refresh(ctx)
}

func (c *Controller) persistOrder(ctx context.Context, list types.ImageList, sentinel error) error {
	id, err := c.sessions.ID(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}

	if err := c.api.Reorder(ctx, id, list.OrderMap()); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}

	logrus.WithFields(logrus.Fields{
		"session": id.ShortID(),
		"order":   list.Names(),
	}).Info("Saved image order")

	return nil
}

// Remove deletes one image. While the request is outstanding a second removal of the same
// name fails with ErrRemovalInFlight. On success the entry is dropped and the list
// refreshed; on failure the entry stays and the server message is shown.
//
// Parameters:
//   - ctx: Context for the session and network calls.
//   - name: Image name.
//
// Returns:
//   - error: ErrRemovalInFlight, a request failure or a refresh failure.
func (c *Controller) Remove(ctx context.Context, name string) error {
	c.mu.Lock()
	if _, busy := c.removing[name]; busy {
		c.mu.Unlock()
		logrus.WithField("image", name).Debug("Removal already in progress")

		return fmt.Errorf("%w: %s", ErrRemovalInFlight, name)
	}

	c.removing[name] = struct{}{}
	c.mu.Unlock()

	err := c.run(ctx, KindRemove, name, func(ctx context.Context) error {
		id, err := c.sessions.ID(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", errRemove, err)
		}

		if err := c.api.Remove(ctx, id, name); err != nil {
			return fmt.Errorf("%w: %w", errRemove, err)
		}

		c.synchronizer.Remove(name)
		logrus.WithFields(logrus.Fields{
			"session": id.ShortID(),
			"image":   name,
		}).Info("Removed image")

		return nil
	})

	c.mu.Lock()
	delete(c.removing, name)
	c.mu.Unlock()

	if err != nil {
		return err
	}

	return c.Refresh(ctx)
}

// Removing reports whether a removal of name is outstanding.
func (c *Controller) Removing(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, busy := c.removing[name]

	return busy
}

// Generate requests an animation with progress feedback. The indicator starts at 0% and is
// hidden on every terminal path; on success the location is shown and the list refreshed.
//
// Parameters:
//   - ctx: Context for the session and network calls.
//   - form: Generation fields; a zero duration selects DefaultDurationMS.
//
// Returns:
//   - error: ErrInvalidResize, a request failure or a refresh failure.
func (c *Controller) Generate(ctx context.Context, form types.GenerateForm) error {
	err := c.run(ctx, KindGenerate, "", func(ctx context.Context) error {
		normalized, err := normalizeForm(form)
		if err != nil {
			return err
		}

		id, err := c.sessions.ID(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", errGenerate, err)
		}

		c.view.ShowProgress()
		defer c.view.HideProgress()

		result, err := c.api.Generate(ctx, id, normalized, progress.ToView(c.view))
		if err != nil {
			return fmt.Errorf("%w: %w", errGenerate, err)
		}

		c.view.HideProgress()
		c.view.ShowResult(result.GIFURL)
		logrus.WithFields(logrus.Fields{
			"session": id.ShortID(),
			"gif_url": result.GIFURL,
		}).Info("Generated GIF")

		return nil
	})
	if err != nil {
		return err
	}

	return c.Refresh(ctx)
}

// normalizeForm applies defaults and validates the resize value.
func normalizeForm(form types.GenerateForm) (types.GenerateForm, error) {
	if form.DurationMS <= 0 {
		form.DurationMS = DefaultDurationMS
	}

	if form.Loop < 0 {
		form.Loop = DefaultLoop
	}

	form.Resize = strings.ToLower(strings.TrimSpace(form.Resize))
	if form.Resize != "" && !resizePattern.MatchString(form.Resize) {
		return form, fmt.Errorf("%w: %q", ErrInvalidResize, form.Resize)
	}

	return form, nil
}

// NewSession abandons the current session. The rendered list is emptied before the request
// is sent; the list of the new session is fetched afterwards.
//
// Parameters:
//   - ctx: Context for the network calls.
//
// Returns:
//   - error: Session or refresh failure.
func (c *Controller) NewSession(ctx context.Context) error {
	err := c.run(ctx, KindNewSession, "", func(ctx context.Context) error {
		if _, err := c.sessions.Reset(ctx); err != nil {
			return fmt.Errorf("%w: %w", errSession, err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	return c.Refresh(ctx)
}

// Refresh re-renders the list from the server.
//
// Parameters:
//   - ctx: Context for the network calls.
//
// Returns:
//   - error: Session or request failure; the rendered list is then unchanged.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.run(ctx, KindRefresh, "", func(ctx context.Context) error {
		if _, err := c.synchronizer.Refresh(ctx); err != nil {
			return fmt.Errorf("%w: %w", errRefresh, err)
		}

		return nil
	})
}

// OnUpload implements types.Handler.
func (c *Controller) OnUpload(ctx context.Context, files []types.File) error {
	return c.Upload(ctx, files)
}

// OnRemove implements types.Handler.
func (c *Controller) OnRemove(ctx context.Context, name string) error {
	return c.Remove(ctx, name)
}

// OnReorder implements types.Handler.
func (c *Controller) OnReorder(ctx context.Context, order []string) error {
	return c.Reorder(ctx, order)
}

// OnReverse implements types.Handler.
func (c *Controller) OnReverse(ctx context.Context) error {
	return c.Reverse(ctx)
}

// OnGenerate implements types.Handler.
func (c *Controller) OnGenerate(ctx context.Context, form types.GenerateForm) error {
	return c.Generate(ctx, form)
}

// OnNewSession implements types.Handler.
func (c *Controller) OnNewSession(ctx context.Context) error {
	return c.NewSession(ctx)
}

// OnRefresh implements types.Handler.
func (c *Controller) OnRefresh(ctx context.Context) error {
	return c.Refresh(ctx)
}

func isPermutation(order, current []string) bool {
	if len(order) != len(current) {
		return false
	}

	a := slices.Clone(order)
	b := slices.Clone(current)
	slices.Sort(a)
	slices.Sort(b)

	return slices.Equal(a, b)
}

func fileNames(files []types.File) string {
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name())
	}

	return strings.Join(names, ",")
}
