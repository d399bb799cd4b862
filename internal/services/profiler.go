package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DevN0mad/cbremote/internal/models"
	"github.com/DevN0mad/cbremote/internal/tree"
)

// Profiler измеряет время ответа удаленного API на операциях поиска.
type Profiler struct {
	sess    *Session
	logger  *slog.Logger
	out     io.Writer
	runID   string
	now     func() time.Time
	samples []models.ProfileSample
}

// NewProfiler создает профилировщик. Каждое измерение печатается в out.
func NewProfiler(sess *Session, out io.Writer, logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = sess.logger()
	}
	if out == nil {
		out = io.Discard
	}
	return &Profiler{
		sess:   sess,
		logger: logger,
		out:    out,
		runID:  uuid.NewString(),
		now:    time.Now,
	}
}

// RunID идентификатор прогона, общий для всех его измерений.
func (p *Profiler) RunID() string {
	return p.runID
}

// Run выполняет все измерения. Ошибка отдельного шага записывается в лог,
// остальные шаги выполняются; возвращаются все полученные измерения и
// объединенная ошибка шагов.
func (p *Profiler) Run(ctx context.Context) ([]models.ProfileSample, error) {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", p.profileUsers},
		{"projects", p.profileProjects},
		{"artifacts", p.profileArtifacts},
		{"trackers", p.profileTrackers},
		{"tracker items", p.profileTrackerItems},
	}

	var errs []error
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			if ctx.Err() != nil {
				return p.samples, ctx.Err()
			}
			p.logger.Error("Profiling step failed", "step", step.name, "error", err)
			errs = append(errs, fmt.Errorf("profile %s: %w", step.name, err))
		}
	}
	return p.samples, errors.Join(errs...)
}

// measure замеряет одну операцию и печатает результат.
func (p *Profiler) measure(op, unit string, fn func() (int, error)) error {
	started := p.now()
	n, err := fn()
	elapsed := p.now().Sub(started)
	if err != nil {
		return err
	}

	sample := models.ProfileSample{
		RunID:         p.runID,
		Operation:     op,
		Count:         n,
		Unit:          unit,
		Duration:      elapsed,
		RatePerSecond: Rate(n, elapsed),
	}
	p.samples = append(p.samples, sample)
	fmt.Fprintln(p.out, FormatSample(sample))
	return nil
}

// Rate возвращает число элементов в секунду; для нулевой длительности 0.
func Rate(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

// FormatSample форматирует измерение для вывода в консоль.
func FormatSample(s models.ProfileSample) string {
	return fmt.Sprintf("%s: %d %s in %d ms, %.2f/s", s.Operation, s.Count, s.Unit, s.Duration.Milliseconds(), s.RatePerSecond)
}

func (p *Profiler) profileUsers(ctx context.Context) error {
	err := p.measure("findAllUsers", "users", func() (int, error) {
		users, err := p.sess.FindAllUsers(ctx)
		return len(users), err
	})
	if err != nil {
		fmt.Fprintln(p.out, "User information is not available")
	}
	return err
}

func (p *Profiler) profileProjects(ctx context.Context) error {
	return p.measure("findAllProjects", "projects", func() (int, error) {
		projects, err := p.sess.FindAllProjects(ctx)
		return len(projects), err
	})
}

// timedArtifacts замеряет каждый запрос дочерних артефактов при обходе.
type timedArtifacts struct {
	ArtifactSource
	p *Profiler
}

func (t timedArtifacts) Children(ctx context.Context, a models.Artifact) ([]models.Artifact, error) {
	var children []models.Artifact
	err := t.p.measure("findArtifactsByParentArtifact", "artifacts", func() (int, error) {
		var err error
		children, err = t.ArtifactSource.Children(ctx, a)
		return len(children), err
	})
	return children, err
}

func (p *Profiler) profileArtifacts(ctx context.Context) error {
	projects, err := p.sess.FindAllProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	src := timedArtifacts{ArtifactSource: NewArtifactSource(p.sess), p: p}
	for _, project := range projects {
		var top []models.Artifact
		err := p.measure("findTopArtifactsByProject", "artifacts", func() (int, error) {
			var err error
			top, err = p.sess.FindTopArtifactsByProject(ctx, project.ID)
			return len(top), err
		})
		if err != nil {
			return err
		}

		if _, err := tree.Walk(ctx, src, top, func(models.Artifact, int) error { return nil }); err != nil {
			return err
		}
	}
	return nil
}

func (p *Profiler) profileTrackers(ctx context.Context) error {
	return p.measure("findAllTrackers", "trackers", func() (int, error) {
		trackers, err := p.sess.FindAllTrackers(ctx)
		return len(trackers), err
	})
}

func (p *Profiler) profileTrackerItems(ctx context.Context) error {
	trackers, err := p.sess.FindAllTrackers(ctx)
	if err != nil {
		return fmt.Errorf("list trackers: %w", err)
	}

	for _, t := range trackers {
		err := p.measure("findTrackerItemsByTrackerId", "items", func() (int, error) {
			items, err := p.sess.FindTrackerItemsByTrackerID(ctx, t.ID)
			return len(items), err
		})
		if err != nil {
			return err
		}
	}
	return nil
}
