// Package session holds the state a presentation layer drives: the loaded file,
// one selection per region, the normalisation references and the paste source.
// It replaces process-wide globals with one explicit object whose references
// are reset whenever a new file is loaded.
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"sinspect/internal/models"
	"sinspect/pkg/export"
	"sinspect/pkg/normalization"
	"sinspect/pkg/selection"
	"sinspect/pkg/store"
)

// ErrNoFile is returned by operations that need a loaded file.
var ErrNoFile = errors.New("no file loaded")

// Default double normalisation selectors of a newly set reference.
var (
	DefaultNumerator   = normalization.ChannelSelector(2)
	DefaultDenominator = 3
)

// ChangeListener is called after a region's selection changed, once the
// aggregate counts have been recomputed.
type ChangeListener func(ref models.RegionRef, sel *selection.State)

type notification struct {
	ref models.RegionRef
	sel *selection.State
}

// references groups everything that points into the loaded file so it can be
// reset in one assignment.
type references struct {
	single      int
	double      *models.RegionRef
	numerator   normalization.Selector
	denominator int
	copySource  *models.RegionRef
}

func defaultReferences() references {
	return references{numerator: DefaultNumerator, denominator: DefaultDenominator}
}

// Session is safe for concurrent use when selections are only mutated through
// its methods. Listeners run after the session lock has been released.
type Session struct {
	mu sync.RWMutex

	file       *models.File
	selections [][]*selection.State
	refs       references

	listeners []ChangeListener

	// pendingMu guards batching and pending, which selection listeners touch
	// while mu is held by mutate.
	pendingMu sync.Mutex
	pending   []notification
	batching  bool

	logger *log.Logger
}

// New creates an empty session. A nil logger disables logging.
func New(logger *log.Logger) *Session {
	return &Session{refs: defaultReferences(), logger: logger}
}

func (s *Session) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// OnChange registers a listener for selection changes of any region.
func (s *Session) OnChange(fn ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Open loads the measurement file at path, replacing any loaded file.
func (s *Session) Open(path string) error {
	file, err := store.Open(path)
	if err != nil {
		return err
	}
	s.Load(file)
	return nil
}

// Load replaces the loaded file. Every reference into the previous file,
// including the normalisation references, is cleared.
func (s *Session) Load(file *models.File) {
	sels := make([][]*selection.State, len(file.Groups))
	for gi, g := range file.Groups {
		sels[gi] = make([]*selection.State, len(g.Regions))
		for ri, r := range g.Regions {
			ref := models.RegionRef{Group: gi, Region: ri}
			st := selection.New(r)
			st.OnChange(func(st *selection.State) { s.changed(ref, st) })
			sels[gi][ri] = st
		}
	}

	s.mu.Lock()
	s.file = file
	s.selections = sels
	s.refs = defaultReferences()
	s.mu.Unlock()

	s.logf("loaded %s: %d groups, %d regions", file.Name, len(file.Groups), len(file.Refs()))
}

// changed is the selection listener installed on every region. Inside a
// session mutation it queues the notification until the lock is released;
// otherwise it notifies at once.
func (s *Session) changed(ref models.RegionRef, st *selection.State) {
	s.pendingMu.Lock()
	if s.batching {
		s.pending = append(s.pending, notification{ref: ref, sel: st})
		s.pendingMu.Unlock()
		return
	}
	s.pendingMu.Unlock()

	s.mu.RLock()
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(ref, st)
	}
}

// mutate runs fn under the write lock and then delivers queued notifications.
func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	s.pendingMu.Lock()
	s.batching = true
	s.pendingMu.Unlock()

	err := fn()

	s.pendingMu.Lock()
	s.batching = false
	pending := s.pending
	s.pending = nil
	s.pendingMu.Unlock()
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, n := range pending {
		for _, l := range listeners {
			l(n.ref, n.sel)
		}
	}
	return err
}

// File returns the loaded file, nil if none.
func (s *Session) File() *models.File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file
}

// Refs returns references to every loaded region in file order.
func (s *Session) Refs() []models.RegionRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file.Refs()
}

// Region returns the region addressed by ref.
func (s *Session) Region(ref models.RegionRef) (*models.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.region(ref)
}

func (s *Session) region(ref models.RegionRef) (*models.Region, error) {
	if s.file == nil {
		return nil, ErrNoFile
	}
	r := s.file.Region(ref)
	if r == nil {
		return nil, fmt.Errorf("no region at group %d index %d", ref.Group, ref.Region)
	}
	return r, nil
}

// Selection returns the selection state of the region addressed by ref for
// reading. Mutate it through Toggle, Set, Apply and the other session actions;
// changing it directly bypasses the session lock.
func (s *Session) Selection(ref models.RegionRef) (*selection.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection(ref)
}

func (s *Session) selection(ref models.RegionRef) (*selection.State, error) {
	if _, err := s.region(ref); err != nil {
		return nil, err
	}
	return s.selections[ref.Group][ref.Region], nil
}

// Mode returns the normalisation mode in force: double when a reference region
// is set, single when a reference channel is set, none otherwise.
func (s *Session) Mode() normalization.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode()
}

func (s *Session) mode() normalization.Mode {
	switch {
	case s.refs.double != nil:
		return normalization.Double
	case s.refs.single != 0:
		return normalization.Single
	default:
		return normalization.None
	}
}

// Context returns the normalisation context for the current references.
func (s *Session) Context() normalization.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.context()
}

func (s *Session) context() normalization.Context {
	ctx := normalization.Context{Mode: s.mode(), SingleRef: s.refs.single}
	if ref := s.refs.double; ref != nil {
		ctx.Double = &normalization.Reference{
			Region:      s.file.Region(*ref),
			Selection:   s.selections[ref.Group][ref.Region],
			Numerator:   s.refs.numerator,
			Denominator: s.refs.denominator,
		}
	}
	return ctx
}

// Series returns the x-axis and the normalised values of one signal of a
// region, as a display would plot them.
func (s *Session) Series(ref models.RegionRef, id selection.ID) (xs, ys []float64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel, err := s.selection(ref)
	if err != nil {
		return nil, nil, err
	}
	if !sel.Has(id) {
		return nil, nil, fmt.Errorf("region %q has no channel %s", sel.Region().Name, id)
	}
	r := sel.Region()
	var raw []float64
	switch id.Kind {
	case selection.ChannelCounts:
		raw = r.ChannelCounts.Column(id.Index)
	case selection.ExtendedChannels:
		raw = r.ExtendedChannels.Column(id.Index)
	default:
		raw = sel.Counts()
	}
	ys, err = normalization.Normalize(s.context(), r, raw, id)
	if err != nil {
		return nil, nil, err
	}
	return append([]float64(nil), r.XAxis()...), ys, nil
}

// Export writes every region with counts on under outDir, one directory per
// group. The session is locked against mutations for the whole export.
func (s *Session) Export(outDir string, opts export.Options) (export.BatchReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.file == nil {
		return export.BatchReport{}, ErrNoFile
	}
	var jobs []export.Job
	for gi, g := range s.file.Groups {
		for ri, r := range g.Regions {
			jobs = append(jobs, export.Job{Group: g, Region: r, Selection: s.selections[gi][ri]})
		}
	}
	report := export.ExportAll(jobs, s.context(), opts, outDir)
	if !report.OK() {
		s.logf("export finished with errors: %s", report.Notice)
	}
	return report, nil
}
