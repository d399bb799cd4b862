package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/cbremote/internal/models"
)

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(10, 0))
	assert.Equal(t, 0.0, Rate(10, -time.Second))
	assert.InDelta(t, 20.0, Rate(10, 500*time.Millisecond), 1e-9)
}

func TestFormatSample(t *testing.T) {
	s := models.ProfileSample{
		Operation:     "findAllProjects",
		Count:         3,
		Unit:          "projects",
		Duration:      1500 * time.Millisecond,
		RatePerSecond: 2,
	}
	assert.Equal(t, "findAllProjects: 3 projects in 1500 ms, 2.00/s", FormatSample(s))
}

func TestProfiler_Run(t *testing.T) {
	fx := newFixture(t)
	bugs := fx.fake.AddTracker(models.Tracker{Name: "Bugs", Project: fx.project.Ref()})
	fx.fake.AddItem(models.TrackerItem{Tracker: bugs.Ref(), Name: "Crash"})
	sess := connect(t, fx.fake)

	var out bytes.Buffer
	p := NewProfiler(sess, &out, discardLogger())
	samples, err := p.Run(context.Background())
	require.NoError(t, err)

	var ops []string
	for _, s := range samples {
		ops = append(ops, s.Operation)
		assert.Equal(t, p.RunID(), s.RunID)
		assert.GreaterOrEqual(t, s.RatePerSecond, 0.0)
	}
	assert.Equal(t, []string{
		"findAllUsers",
		"findAllProjects",
		"findTopArtifactsByProject",
		"findArtifactsByParentArtifact",
		"findArtifactsByParentArtifact",
		"findAllTrackers",
		"findTrackerItemsByTrackerId",
	}, ops)

	assert.Equal(t, 2, samples[2].Count)
	assert.Equal(t, 3, samples[3].Count)
	assert.Equal(t, 1, samples[4].Count)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "findAllUsers: 1 users in "))
}

func TestProfiler_UsersUnavailable(t *testing.T) {
	fx := newFixture(t)
	fx.fake.Fail("findAllUsers", "access denied")
	sess := connect(t, fx.fake)

	var out bytes.Buffer
	samples, err := NewProfiler(sess, &out, discardLogger()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile users")
	assert.Contains(t, out.String(), "User information is not available")
	assert.NotEmpty(t, samples)
	assert.Equal(t, "findAllProjects", samples[0].Operation)
}

func TestProfile_ThroughService(t *testing.T) {
	fx := newFixture(t)
	svc := newTestService(t, fx.fake)

	samples, err := svc.Profile(context.Background())
	require.NoError(t, err)
	assert.Len(t, samples, 6)
	assert.Equal(t, 0, fx.fake.OpenSessions())
}
