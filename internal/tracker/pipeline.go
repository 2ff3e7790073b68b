package tracker

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/ari/focustrack/internal/category"
	"github.com/ari/focustrack/internal/config"
)

// Options configures pipeline construction. Zero values select production
// defaults: the system clock, a time-seeded RNG, and no persistence.
type Options struct {
	Clock Clock
	Rand  *rand.Rand
	DB    *DB
	// OnDayEnd is invoked with the finished day's archive after a
	// local-day rollover, outside the pipeline lock
	OnDayEnd func(DayArchive)
}

// metaLastProcessed keys the high-water timestamp stored in the metadata
// table
const metaLastProcessed = "last_processed"

// persistOp is one queued write for the background writer
type persistOp struct {
	session       *SessionRow
	sample        *SampleRow
	streakDay     *StreakDayRow
	lastProcessed int64
}

// Pipeline wires the categorizer, session tracker, analyzer, scorer and
// nudge engine behind a single serialized mutation path. Observations and
// ticks mutate state under one mutex; snapshot accessors copy on read so the
// reporting layer never sees internal mutable structures. Persistence is
// append-only and runs on a background writer so it never blocks a tick.
type Pipeline struct {
	mu            sync.Mutex
	clock         Clock
	tracker       *SessionTracker
	analyzer      *Analyzer
	scorer        *Scorer
	nudges        *NudgeEngine
	minSession    time.Duration
	db            *DB
	onDayEnd      func(DayArchive)
	today         []Session
	pending       *Nudge
	lastProcessed time.Time

	persistCh chan persistOp
	wg        sync.WaitGroup
}

// New builds a pipeline from validated configuration. When a DB is supplied,
// today's counters are seeded by replaying the sessions already persisted
// for the current day.
func New(cfg *config.Config, opts Options) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	categorizer := category.NewCategorizer(cfg.CategoryRules())
	p := &Pipeline{
		clock:      clock,
		tracker:    NewSessionTracker(categorizer, cfg.Tracking.InactivityTimeout),
		analyzer:   NewAnalyzer(cfg.Thresholds.Distraction),
		scorer:     NewScorer(cfg.Thresholds.DecayHalfLife, cfg.Thresholds.FlatBand),
		minSession: cfg.Tracking.MinSession,
		db:         opts.DB,
		onDayEnd:   opts.OnDayEnd,
		nudges: NewNudgeEngine(NudgeConfig{
			TimeWastingThreshold:  cfg.Thresholds.TimeWasting,
			BreakReminderInterval: cfg.Thresholds.BreakReminder,
			FocusSessionMin:       cfg.Thresholds.FocusSession,
			Cooldown:              cfg.Thresholds.NudgeCooldown,
			TipInterval:           cfg.Nudges.TipInterval,
			Tips:                  cfg.Nudges.Tips,
		}, opts.Rand),
	}

	if p.db != nil {
		if err := p.seed(); err != nil {
			return nil, fmt.Errorf("failed to seed pipeline state: %w", err)
		}
		p.persistCh = make(chan persistOp, 128)
		p.wg.Add(1)
		go p.writeLoop()
	}

	return p, nil
}

// seed replays today's persisted sessions through a fresh analyzer.
// Processing is deterministic, so the replay reproduces the streak and
// distraction counters the previous run ended with.
func (p *Pipeline) seed() error {
	now := p.clock.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	rows, err := p.db.GetSessionsSince(context.Background(), dayStart.Unix())
	if err != nil {
		return err
	}
	for i := range rows {
		s := rows[i].Session()
		p.analyzer.OnSessionClosed(&s)
		p.today = append(p.today, s)
		if s.EndedAt.After(p.lastProcessed) {
			p.lastProcessed = s.EndedAt
		}
	}

	// The stored high-water mark usually leads the last persisted session,
	// since ticks keep advancing it while a session is open
	if val, err := p.db.GetMetadata(context.Background(), metaLastProcessed); err == nil && val != "" {
		if ts, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			if t := time.Unix(ts, 0); t.After(p.lastProcessed) {
				p.lastProcessed = t
			}
		}
	}
	return nil
}

// Close flushes the persistence queue. The pipeline must not be used after
// Close.
func (p *Pipeline) Close() {
	if p.persistCh != nil {
		close(p.persistCh)
		p.wg.Wait()
	}
}

// Ingest feeds one observation through the pipeline. Malformed or
// out-of-order observations are rejected with the pipeline state untouched.
func (p *Pipeline) Ingest(obs Observation) error {
	p.mu.Lock()
	closed, err := p.tracker.Observe(obs)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	if obs.Timestamp.After(p.lastProcessed) {
		p.lastProcessed = obs.Timestamp
	}
	var archives []DayArchive
	if closed != nil {
		archives = p.finishSessionLocked(closed)
	}
	p.mu.Unlock()

	p.notifyDayEnd(archives)
	return nil
}

// Tick drives the time-based logic: inactivity timeout, streak extension
// for the open session, day rollover and nudge evaluation. A tick earlier
// than the last processed timestamp is a scheduling artifact and is
// ignored. Returns the nudge emitted on this tick, if any.
func (p *Pipeline) Tick(now time.Time) *Nudge {
	p.mu.Lock()
	if now.Before(p.lastProcessed) {
		p.mu.Unlock()
		return nil
	}
	p.lastProcessed = now

	var archives []DayArchive
	if closed := p.tracker.Tick(now); closed != nil {
		archives = append(archives, p.finishSessionLocked(closed)...)
	}

	var open *Session
	if cur, ok := p.tracker.Current(); ok {
		open = &cur
	}
	if arch := p.analyzer.OnTick(open, now); arch != nil {
		p.archiveDayLocked(*arch)
		archives = append(archives, *arch)
	}

	var emitted *Nudge
	if n := p.nudges.Evaluate(now, open, p.analyzer.State()); n != nil {
		p.pending = n
		emitted = n
	}

	// Today's sample is recomputed on every evaluation
	if p.db != nil {
		p.enqueue(persistOp{sample: p.todaySampleLocked(now), lastProcessed: now.Unix()})
	}
	p.mu.Unlock()

	p.notifyDayEnd(archives)
	if emitted != nil {
		n := *emitted
		return &n
	}
	return nil
}

// finishSessionLocked routes a closed session to the analyzer, the scoring
// window and persistence. Must be called with p.mu held.
func (p *Pipeline) finishSessionLocked(s *Session) []DayArchive {
	var archives []DayArchive
	if arch := p.analyzer.OnSessionClosed(s); arch != nil {
		p.archiveDayLocked(*arch)
		archives = append(archives, *arch)
	}
	// The tracker emits every session; the minimum-length filter applies
	// only to what is recorded downstream
	if s.Duration() >= p.minSession {
		p.today = append(p.today, *s)
		if p.db != nil {
			p.enqueue(persistOp{session: sessionRow(s)})
		}
	}
	return archives
}

// archiveDayLocked persists the finished day and resets the scoring window.
// Must be called with p.mu held.
func (p *Pipeline) archiveDayLocked(arch DayArchive) {
	p.today = nil
	if p.db == nil {
		return
	}
	p.enqueue(persistOp{
		sample: &SampleRow{
			Date:               arch.Date,
			Score:              int64(ScoreFromTotals(arch.ProductiveTime, arch.NeutralTime, arch.TimeWastingTime)),
			ProductiveSeconds:  int64(arch.ProductiveTime.Seconds()),
			NeutralSeconds:     int64(arch.NeutralTime.Seconds()),
			TimeWastingSeconds: int64(arch.TimeWastingTime.Seconds()),
		},
		streakDay: &StreakDayRow{
			Date:                 arch.Date,
			LongestStreakSeconds: int64(arch.LongestStreak.Seconds()),
			Distractions:         int64(arch.Distractions),
		},
	})
}

// todaySampleLocked builds the current day's score sample including the
// open session. Must be called with p.mu held.
func (p *Pipeline) todaySampleLocked(now time.Time) *SampleRow {
	st := p.analyzer.State()
	prod, neu, tw := st.ProductiveTime, st.NeutralTime, st.TimeWastingTime
	window := make([]Session, len(p.today))
	copy(window, p.today)
	if cur, ok := p.tracker.Current(); ok {
		window = append(window, cur)
		switch cur.Category {
		case category.Productive:
			prod += cur.Duration()
		case category.Neutral:
			neu += cur.Duration()
		case category.TimeWasting:
			tw += cur.Duration()
		}
	}
	return &SampleRow{
		Date:               st.Date,
		Score:              int64(p.scorer.Score(window, now)),
		ProductiveSeconds:  int64(prod.Seconds()),
		NeutralSeconds:     int64(neu.Seconds()),
		TimeWastingSeconds: int64(tw.Seconds()),
	}
}

func (p *Pipeline) notifyDayEnd(archives []DayArchive) {
	if p.onDayEnd == nil {
		return
	}
	for _, a := range archives {
		p.onDayEnd(a)
	}
}

// enqueue hands a write to the background writer without ever blocking the
// decision path. Must be called with p.mu held.
func (p *Pipeline) enqueue(op persistOp) {
	select {
	case p.persistCh <- op:
	default:
		log.Printf("focustrack: persist queue full, dropping write")
	}
}

func (p *Pipeline) writeLoop() {
	defer p.wg.Done()
	ctx := context.Background()
	for op := range p.persistCh {
		var err error
		switch {
		case op.session != nil:
			err = p.db.InsertSession(ctx, op.session)
		case op.sample != nil || op.streakDay != nil:
			if op.sample != nil {
				err = p.db.UpsertScoreSample(ctx, op.sample)
			}
			if err == nil && op.streakDay != nil {
				err = p.db.UpsertStreakDay(ctx, op.streakDay)
			}
		}
		if err == nil && op.lastProcessed > 0 {
			err = p.db.SetMetadata(ctx, metaLastProcessed, strconv.FormatInt(op.lastProcessed, 10))
		}
		if err != nil {
			log.Printf("focustrack: persist: %v", err)
		}
	}
}

// TodayStats is an immutable snapshot of the current day
type TodayStats struct {
	Date            string
	Score           int
	CurrentStreak   time.Duration
	LongestStreak   time.Duration
	Distractions    int
	ProductiveTime  time.Duration
	NeutralTime     time.Duration
	TimeWastingTime time.Duration
	TotalActive     time.Duration
	Sessions        int
}

// CurrentSession returns a copy of the open session, if any
func (p *Pipeline) CurrentSession() (Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker.Current()
}

// StreakSnapshot returns a copy of the streak state
func (p *Pipeline) StreakSnapshot() StreakState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.analyzer.State()
}

// PendingNudge returns the most recently emitted nudge, if any
func (p *Pipeline) PendingNudge() (Nudge, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return Nudge{}, false
	}
	return *p.pending, true
}

// TodayStats returns a snapshot of today's counters, including the open
// session
func (p *Pipeline) TodayStats() TodayStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	sample := p.todaySampleLocked(now)
	st := p.analyzer.State()

	count := len(p.today)
	if _, ok := p.tracker.Current(); ok {
		count++
	}

	prod := time.Duration(sample.ProductiveSeconds) * time.Second
	neu := time.Duration(sample.NeutralSeconds) * time.Second
	tw := time.Duration(sample.TimeWastingSeconds) * time.Second
	return TodayStats{
		Date:            st.Date,
		Score:           int(sample.Score),
		CurrentStreak:   st.CurrentStreak,
		LongestStreak:   st.LongestStreak,
		Distractions:    st.Distractions,
		ProductiveTime:  prod,
		NeutralTime:     neu,
		TimeWastingTime: tw,
		TotalActive:     prod + neu + tw,
		Sessions:        count,
	}
}

// RecentSessions returns up to n closed sessions from today, newest first
func (p *Pipeline) RecentSessions(n int) []Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n > len(p.today) {
		n = len(p.today)
	}
	out := make([]Session, 0, n)
	for i := len(p.today) - 1; i >= len(p.today)-n; i-- {
		out = append(out, p.today[i])
	}
	return out
}

// ScoreTrend returns one score per day for the last days days, oldest
// first. Historical points come from stored samples; days without a sample
// read as the default score; today is recomputed live.
func (p *Pipeline) ScoreTrend(ctx context.Context, days int) ([]TrendPoint, error) {
	p.mu.Lock()
	now := p.clock.Now()
	today := dayOf(now)
	liveScore := int(p.todaySampleLocked(now).Score)
	p.mu.Unlock()

	byDate := make(map[string]int)
	if p.db != nil {
		since := dayOf(now.AddDate(0, 0, -(days - 1)))
		samples, err := p.db.GetScoreSamples(ctx, since)
		if err != nil {
			return nil, err
		}
		for _, s := range samples {
			byDate[s.Date] = int(s.Score)
		}
	}

	points := make([]TrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := dayOf(now.AddDate(0, 0, -i))
		score, ok := byDate[date]
		if !ok {
			score = DefaultScore
		}
		if date == today {
			score = liveScore
		}
		points = append(points, TrendPoint{Date: date, Score: score})
	}
	return points, nil
}

// Comparison relates today's score to yesterday's
func (p *Pipeline) Comparison(ctx context.Context) (Comparison, error) {
	points, err := p.ScoreTrend(ctx, 2)
	if err != nil {
		return Comparison{}, err
	}
	return p.scorer.Compare(points[1].Score, points[0].Score), nil
}
