package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/beachcomp/tournament-engine/events"
	"github.com/beachcomp/tournament-engine/models"
	"github.com/beachcomp/tournament-engine/repositories"
)

// In-memory repository fakes. They store the pointers the services hand them,
// which matches how the services use the real repositories: read, mutate,
// write back through an explicit update call.

type fakeTeamRepo struct {
	nextID int
	teams  map[int]*models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.Team)}
}

func (r *fakeTeamRepo) Create(_ context.Context, team *models.Team) error {
	r.nextID++
	team.ID = r.nextID
	team.CreatedAt = time.Now()
	r.teams[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return t, nil
}

func (r *fakeTeamRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Team, error) {
	var out []*models.Team
	for _, t := range r.teams {
		if t.TournamentID == tournamentID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seed != out[j].Seed {
			return out[i].Seed < out[j].Seed
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeTeamRepo) Update(_ context.Context, team *models.Team) error {
	if _, ok := r.teams[team.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	r.teams[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) UpdateCrestKey(_ context.Context, id int, crestKey *string) error {
	t, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.CrestKey = crestKey
	return nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

type fakePoolRepo struct {
	nextID int
	pools  map[int]*models.Pool
}

func newFakePoolRepo() *fakePoolRepo {
	return &fakePoolRepo{pools: make(map[int]*models.Pool)}
}

func (r *fakePoolRepo) Create(_ context.Context, pool *models.Pool) error {
	r.nextID++
	pool.ID = r.nextID
	pool.CreatedAt = time.Now()
	r.pools[pool.ID] = pool
	return nil
}

func (r *fakePoolRepo) GetByID(_ context.Context, id int) (*models.Pool, error) {
	p, ok := r.pools[id]
	if !ok {
		return nil, repositories.ErrPoolNotFound
	}
	return p, nil
}

func (r *fakePoolRepo) ListByTournament(_ context.Context, tournamentID int, stageKey *string) ([]*models.Pool, error) {
	var out []*models.Pool
	for _, p := range r.pools {
		if p.TournamentID != tournamentID {
			continue
		}
		if stageKey != nil && p.StageKey != *stageKey {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePoolRepo) UpdateTeamIDs(_ context.Context, id int, teamIDs []int) error {
	p, ok := r.pools[id]
	if !ok {
		return repositories.ErrPoolNotFound
	}
	p.TeamIDs = teamIDs
	return nil
}

func (r *fakePoolRepo) UpdateCourt(_ context.Context, id int, facility, court string) error {
	p, ok := r.pools[id]
	if !ok {
		return repositories.ErrPoolNotFound
	}
	p.Facility = facility
	p.Court = court
	return nil
}

func (r *fakePoolRepo) DeleteByTournamentStage(_ context.Context, tournamentID int, stageKey string) error {
	for id, p := range r.pools {
		if p.TournamentID == tournamentID && p.StageKey == stageKey {
			delete(r.pools, id)
		}
	}
	return nil
}

type fakeMatchRepo struct {
	nextID  int
	matches map[int]*models.Match
	order   []int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) Create(_ context.Context, match *models.Match) error {
	r.nextID++
	match.ID = r.nextID
	match.CreatedAt = time.Now()
	r.matches[match.ID] = match
	r.order = append(r.order, match.ID)
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return m, nil
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int, filter repositories.MatchFilter) ([]*models.Match, error) {
	var out []*models.Match
	for _, id := range r.order {
		m, ok := r.matches[id]
		if !ok || m.TournamentID != tournamentID {
			continue
		}
		if filter.StageKey != nil && m.StageKey != *filter.StageKey {
			continue
		}
		if filter.Phase != nil && m.Phase != *filter.Phase {
			continue
		}
		if filter.BracketID != nil && (m.BracketID == nil || *m.BracketID != *filter.BracketID) {
			continue
		}
		if filter.PoolID != nil && (m.PoolID == nil || *m.PoolID != *filter.PoolID) {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeMatchRepo) UpdateParticipants(_ context.Context, match *models.Match) error {
	if _, ok := r.matches[match.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	return nil
}

func (r *fakeMatchRepo) UpdateStatusResult(_ context.Context, match *models.Match) error {
	if _, ok := r.matches[match.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	return nil
}

func (r *fakeMatchRepo) UpdateReferees(_ context.Context, id int, refereeTeamIDs []int) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.RefereeTeamIDs = refereeTeamIDs
	return nil
}

func (r *fakeMatchRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, id)
	return nil
}

func (r *fakeMatchRepo) DeleteByTournamentStage(_ context.Context, tournamentID int, stageKey string) error {
	for id, m := range r.matches {
		if m.TournamentID == tournamentID && m.StageKey == stageKey {
			delete(r.matches, id)
		}
	}
	return nil
}

func (r *fakeMatchRepo) CountByTournamentStage(_ context.Context, tournamentID int, stageKey string) (int, error) {
	count := 0
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && m.StageKey == stageKey {
			count++
		}
	}
	return count, nil
}

type fakeScoreboardRepo struct {
	boards       map[string]*models.Scoreboard
	byTournament map[int]map[string]bool

	// failAfter, when positive, fails Create once that many boards were
	// created over the repo's lifetime. Exercises the rollback path.
	failAfter int
	created   int
}

func newFakeScoreboardRepo() *fakeScoreboardRepo {
	return &fakeScoreboardRepo{
		boards:       make(map[string]*models.Scoreboard),
		byTournament: make(map[int]map[string]bool),
	}
}

func (r *fakeScoreboardRepo) Create(_ context.Context, scoreboard *models.Scoreboard) error {
	if r.failAfter > 0 && r.created >= r.failAfter {
		return errors.New("scoreboard store unavailable")
	}
	r.created++
	r.boards[scoreboard.ID] = scoreboard
	if r.byTournament[scoreboard.TournamentID] == nil {
		r.byTournament[scoreboard.TournamentID] = make(map[string]bool)
	}
	r.byTournament[scoreboard.TournamentID][scoreboard.ID] = true
	return nil
}

func (r *fakeScoreboardRepo) GetByID(_ context.Context, id string) (*models.Scoreboard, error) {
	sb, ok := r.boards[id]
	if !ok {
		return nil, repositories.ErrScoreboardNotFound
	}
	return sb, nil
}

func (r *fakeScoreboardRepo) Update(_ context.Context, scoreboard *models.Scoreboard) error {
	if _, ok := r.boards[scoreboard.ID]; !ok {
		return repositories.ErrScoreboardNotFound
	}
	r.boards[scoreboard.ID] = scoreboard
	return nil
}

func (r *fakeScoreboardRepo) Delete(_ context.Context, id string) error {
	sb, ok := r.boards[id]
	if !ok {
		return repositories.ErrScoreboardNotFound
	}
	delete(r.boards, id)
	delete(r.byTournament[sb.TournamentID], id)
	return nil
}

func (r *fakeScoreboardRepo) ListIDsByTournament(_ context.Context, tournamentID int) ([]string, error) {
	var out []string
	for id := range r.byTournament[tournamentID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

type fakeTournamentRepo struct {
	nextID      int
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
}

func (r *fakeTournamentRepo) Create(_ context.Context, tournament *models.Tournament) error {
	r.nextID++
	tournament.ID = r.nextID
	tournament.CreatedAt = time.Now()
	r.tournaments[tournament.ID] = tournament
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return t, nil
}

func (r *fakeTournamentRepo) List(_ context.Context) ([]*models.Tournament, error) {
	var out []*models.Tournament
	for _, t := range r.tournaments {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, id int, status models.TournamentStatus) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

type fakeFormatRepo struct {
	nextID  int
	formats map[int]*models.Format
}

func newFakeFormatRepo() *fakeFormatRepo {
	return &fakeFormatRepo{formats: make(map[int]*models.Format)}
}

func (r *fakeFormatRepo) Create(_ context.Context, format *models.Format) error {
	r.nextID++
	format.ID = r.nextID
	r.formats[format.ID] = format
	return nil
}

func (r *fakeFormatRepo) GetByID(_ context.Context, id int) (*models.Format, error) {
	f, ok := r.formats[id]
	if !ok {
		return nil, repositories.ErrFormatNotFound
	}
	return f, nil
}

func (r *fakeFormatRepo) GetAll(_ context.Context) ([]models.Format, error) {
	var out []models.Format
	for _, f := range r.formats {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFormatRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.formats[id]; !ok {
		return repositories.ErrFormatNotFound
	}
	delete(r.formats, id)
	return nil
}

type overrideKey struct {
	tournamentID int
	stageKey     string
	scope        string
}

type fakeOverrideRepo struct {
	nextID    int
	overrides map[overrideKey]*models.RankingOverride
}

func newFakeOverrideRepo() *fakeOverrideRepo {
	return &fakeOverrideRepo{overrides: make(map[overrideKey]*models.RankingOverride)}
}

func (r *fakeOverrideRepo) Upsert(_ context.Context, override *models.RankingOverride) error {
	key := overrideKey{override.TournamentID, override.StageKey, override.Scope}
	if existing, ok := r.overrides[key]; ok {
		override.ID = existing.ID
	} else {
		r.nextID++
		override.ID = r.nextID
	}
	r.overrides[key] = override
	return nil
}

func (r *fakeOverrideRepo) Get(_ context.Context, tournamentID int, stageKey, scope string) (*models.RankingOverride, error) {
	o, ok := r.overrides[overrideKey{tournamentID, stageKey, scope}]
	if !ok {
		return nil, repositories.ErrOverrideNotFound
	}
	return o, nil
}

func (r *fakeOverrideRepo) Delete(_ context.Context, tournamentID int, stageKey, scope string) error {
	key := overrideKey{tournamentID, stageKey, scope}
	if _, ok := r.overrides[key]; !ok {
		return repositories.ErrOverrideNotFound
	}
	delete(r.overrides, key)
	return nil
}

type recordingNotifier struct {
	events []events.Event
}

func (n *recordingNotifier) BroadcastToRoom(_ string, event events.Event) {
	n.events = append(n.events, event)
}

func (n *recordingNotifier) ofType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range n.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fixture wires every fake into one tournament: nine seeded teams, a
// three-pool group stage on three courts and a five-seed gold bracket.
type fixture struct {
	teamRepo       *fakeTeamRepo
	poolRepo       *fakePoolRepo
	matchRepo      *fakeMatchRepo
	scoreboardRepo *fakeScoreboardRepo
	tournamentRepo *fakeTournamentRepo
	formatRepo     *fakeFormatRepo
	overrideRepo   *fakeOverrideRepo
	notifier       *recordingNotifier

	tournamentID int
	teamIDs      []int
}

func testSettings() *models.FormatSettings {
	return &models.FormatSettings{
		Courts: []models.Court{
			{Facility: "main", Name: "1", Lat: 52.37, Lon: 4.89},
			{Facility: "main", Name: "2", Lat: 52.37, Lon: 4.90},
			{Facility: "main", Name: "3", Lat: 52.37, Lon: 4.91},
		},
		Stages: []models.StageDef{
			{
				Key: "pools", Order: 1, Kind: models.StageKindPool,
				Pools: []models.PoolDef{
					{Name: "A", Size: 3}, {Name: "B", Size: 3}, {Name: "C", Size: 3},
				},
			},
			{
				Key: "playoffs", Order: 2, Kind: models.StageKindPlayoff,
				Brackets: []models.BracketDef{
					{ID: "gold", Name: "Gold", SeedCount: 5, Template: "five_seed"},
				},
			},
		},
	}
}

func newFixture(t *testing.T, teamCount int) *fixture {
	t.Helper()
	f := &fixture{
		teamRepo:       newFakeTeamRepo(),
		poolRepo:       newFakePoolRepo(),
		matchRepo:      newFakeMatchRepo(),
		scoreboardRepo: newFakeScoreboardRepo(),
		tournamentRepo: newFakeTournamentRepo(),
		formatRepo:     newFakeFormatRepo(),
		overrideRepo:   newFakeOverrideRepo(),
		notifier:       &recordingNotifier{},
	}
	ctx := context.Background()

	format := &models.Format{Name: "beach open", ParsedSettings: testSettings()}
	if err := f.formatRepo.Create(ctx, format); err != nil {
		t.Fatalf("create format: %v", err)
	}
	tournament := &models.Tournament{
		Name:     "Test Open",
		FormatID: format.ID,
		Status:   models.TournamentStatusActive,
	}
	if err := f.tournamentRepo.Create(ctx, tournament); err != nil {
		t.Fatalf("create tournament: %v", err)
	}
	f.tournamentID = tournament.ID

	for i := 1; i <= teamCount; i++ {
		team := &models.Team{
			TournamentID: tournament.ID,
			Name:         "Team " + string(rune('A'+i-1)),
			Seed:         i,
		}
		if err := f.teamRepo.Create(ctx, team); err != nil {
			t.Fatalf("create team: %v", err)
		}
		f.teamIDs = append(f.teamIDs, team.ID)
	}
	return f
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fixture) poolService() *PoolService {
	return NewPoolService(f.poolRepo, f.teamRepo, f.matchRepo, f.tournamentRepo, f.formatRepo, f.notifier)
}

func (f *fixture) generationService() *GenerationService {
	return NewGenerationService(
		f.matchRepo, f.poolRepo, f.teamRepo, f.scoreboardRepo,
		f.tournamentRepo, f.formatRepo, f.notifier, testLogger())
}

func (f *fixture) matchService() *MatchService {
	return NewMatchService(
		f.matchRepo, f.scoreboardRepo, f.teamRepo,
		f.tournamentRepo, f.formatRepo, f.notifier, testLogger())
}

func (f *fixture) standingsService() *StandingsService {
	return NewStandingsService(f.matchRepo, f.poolRepo, f.teamRepo, f.overrideRepo, f.notifier)
}

// fillPools runs pool initialization and serpentine fill for the group stage.
func (f *fixture) fillPools(t *testing.T) []*models.Pool {
	t.Helper()
	ctx := context.Background()
	svc := f.poolService()
	if _, err := svc.InitializePools(ctx, f.tournamentID, "pools"); err != nil {
		t.Fatalf("initialize pools: %v", err)
	}
	pools, err := svc.AutoFillSerpentine(ctx, f.tournamentID, "pools", false)
	if err != nil {
		t.Fatalf("autofill pools: %v", err)
	}
	return pools
}
