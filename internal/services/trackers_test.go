package services

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/cbremote/internal/models"
)

func TestCreateTrackerItemInProject(t *testing.T) {
	fx := newFixture(t)
	bugs := fx.fake.AddTracker(models.Tracker{Name: "Bugs", Project: fx.project.Ref()})
	sess := connect(t, fx.fake)

	item, err := sess.CreateTrackerItemInProject(context.Background(), "Demo", "BUGS", "Crash on start", "Steps to reproduce")
	require.NoError(t, err)
	assert.Equal(t, "Crash on start ---", item.Name)
	assert.Equal(t, models.DescriptionFormatWiki, item.DescriptionFormat)
	assert.Equal(t, bugs.ID, item.Tracker.ID)

	items := fx.fake.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Crash on start ---", items[0].Name)
	assert.Equal(t, 1, fx.fake.Calls("updateTrackerItem"))
}

func TestCreateTrackerItemInProject_UnknownTracker(t *testing.T) {
	fx := newFixture(t)
	sess := connect(t, fx.fake)

	_, err := sess.CreateTrackerItemInProject(context.Background(), "Demo", "Bugs", "x", "y")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, fx.fake.Calls("createTrackerItem"))
}

func TestAttachToTrackerItem(t *testing.T) {
	fx := newFixture(t)
	bugs := fx.fake.AddTracker(models.Tracker{Name: "Bugs", Project: fx.project.Ref()})
	item := fx.fake.AddItem(models.TrackerItem{Tracker: bugs.Ref(), Name: "Crash"})
	sess := connect(t, fx.fake)

	path := filepath.Join(t.TempDir(), "screen.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644))

	got, err := sess.AttachToTrackerItem(context.Background(), item.ID, path, "screenshot")
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	attachments := fx.fake.Attachments(item.ID)
	require.Len(t, attachments, 1)
	assert.Equal(t, "screen.png", attachments[0].Name)
	assert.Equal(t, "image/png", attachments[0].MimeType)
	assert.Equal(t, "screenshot", attachments[0].Description)

	_, err = sess.AttachToTrackerItem(context.Background(), 424242, path, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAssociations(t *testing.T) {
	fx := newFixture(t)
	a := fx.fake.AddAssociation(models.Association{Type: models.Ref{ID: 1, Name: "depends"}})
	b := fx.fake.AddAssociation(models.Association{Type: models.Ref{ID: 2, Name: "related"}})
	sess := connect(t, fx.fake)

	lines, err := sess.ListAssociations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		fmtAssociation(a.ID, "depends"),
		fmtAssociation(b.ID, "related"),
	}, lines)
}

func fmtAssociation(id int, name string) string {
	return strconv.Itoa(id) + ": " + name
}
