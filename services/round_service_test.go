package services

import (
	"context"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
	"github.com/clmates/wesnoth-tournament-manager-sub001/repositories"
)

type fakeRoundRepo struct {
	rounds map[int]*models.Round
	nextID int
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{rounds: make(map[int]*models.Round), nextID: 1}
}

func (r *fakeRoundRepo) Create(ctx context.Context, exec repositories.SQLExecutor, round *models.Round) error {
	round.ID = r.nextID
	r.nextID++
	copied := *round
	r.rounds[round.ID] = &copied
	return nil
}

func (r *fakeRoundRepo) GetByID(ctx context.Context, id int) (*models.Round, error) {
	rnd, ok := r.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	copied := *rnd
	return &copied, nil
}

func (r *fakeRoundRepo) GetByNumber(ctx context.Context, tournamentID, number int) (*models.Round, error) {
	for _, rnd := range r.rounds {
		if rnd.TournamentID == tournamentID && rnd.Number == number {
			copied := *rnd
			return &copied, nil
		}
	}
	return nil, repositories.ErrRoundNotFound
}

func (r *fakeRoundRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.Round, error) {
	var list []models.Round
	for _, rnd := range r.rounds {
		if rnd.TournamentID == tournamentID {
			list = append(list, *rnd)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
	return list, nil
}

func (r *fakeRoundRepo) MarkStarted(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	rnd, ok := r.rounds[id]
	if !ok || rnd.Status != models.RoundPending {
		return repositories.ErrRoundNotFound
	}
	now := time.Now()
	rnd.Status = models.RoundInProgress
	rnd.StartedAt = &now
	return nil
}

func (r *fakeRoundRepo) MarkCompleted(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	rnd, ok := r.rounds[id]
	if !ok || rnd.Status != models.RoundInProgress {
		return repositories.ErrRoundNotFound
	}
	now := time.Now()
	rnd.Status = models.RoundCompleted
	rnd.EndedAt = &now
	return nil
}

func (r *fakeRoundRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	for id, rnd := range r.rounds {
		if rnd.TournamentID == tournamentID {
			delete(r.rounds, id)
		}
	}
	return nil
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	r := &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament), nextID: 1}
	for _, t := range tournaments {
		r.tournaments[t.ID] = t
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
	}
	return r
}

func (r *fakeTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	tournament.ID = r.nextID
	r.nextID++
	copied := *tournament
	r.tournaments[tournament.ID] = &copied
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error) {
	var list []models.Tournament
	for _, t := range r.tournaments {
		if status == nil || t.Status == *status {
			list = append(list, *t)
		}
	}
	return list, nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, from, to models.TournamentStatus) error {
	t, ok := r.tournaments[id]
	if !ok || t.Status != from {
		return repositories.ErrTournamentNotFound
	}
	t.Status = to
	return nil
}

func (r *fakeTournamentRepo) SetPrepared(ctx context.Context, exec repositories.SQLExecutor, id, totalRounds int) error {
	t, ok := r.tournaments[id]
	if !ok || t.Status != models.TournamentRegistration {
		return repositories.ErrTournamentNotFound
	}
	now := time.Now()
	t.Status = models.TournamentPrepared
	t.TotalRounds = totalRounds
	t.PreparedAt = &now
	return nil
}

func (r *fakeTournamentRepo) SetCurrentRound(ctx context.Context, exec repositories.SQLExecutor, id, round int) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = models.TournamentInProgress
	t.CurrentRound = round
	return nil
}

func (r *fakeTournamentRepo) Finish(ctx context.Context, exec repositories.SQLExecutor, id, winnerID int) error {
	t, ok := r.tournaments[id]
	if !ok || t.Status != models.TournamentInProgress {
		return repositories.ErrTournamentNotFound
	}
	now := time.Now()
	t.Status = models.TournamentFinished
	t.WinnerID = &winnerID
	t.FinishedAt = &now
	return nil
}

type tournamentFixture struct {
	*matchFixture
	rounds      *fakeRoundRepo
	tournaments *fakeTournamentRepo
	roundSvc    RoundService
	tourneySvc  TournamentService
}

// newTournamentFixture builds a full engine around one tournament in
// registration with the given players.
func newTournamentFixture(t *models.Tournament, playerIDs ...int) *tournamentFixture {
	mf := newMatchFixture(playerIDs...)
	mf.participants.users = mf.users.users
	rounds := newFakeRoundRepo()
	tournaments := newFakeTournamentRepo(t)

	logger := testLogger()
	tx := passthroughTx{}
	rng := rand.New(rand.NewSource(7))

	roundSvc := NewRoundService(tx, rounds, mf.series, mf.participants, tournaments, mf.seriesSvc, mf.bus, logger, rng)
	tourneySvc := NewTournamentService(tx, tournaments, rounds, mf.participants, logger)

	// Series results advance rounds through the bus, as in production.
	mf.bus.Subscribe(NewSeriesProgressNotifier(roundSvc, rounds, logger))

	return &tournamentFixture{
		matchFixture: mf,
		rounds:       rounds,
		tournaments:  tournaments,
		roundSvc:     roundSvc,
		tourneySvc:   tourneySvc,
	}
}

func eliminationTournament() *models.Tournament {
	return &models.Tournament{
		ID:            1,
		Name:          "Grand Melee",
		CreatorID:     1,
		Format:        models.FormatElimination,
		Status:        models.TournamentRegistration,
		GeneralBestOf: 1,
		FinalBestOf:   1,
	}
}

func TestPrepareEliminationPlansRounds(t *testing.T) {
	f := newTournamentFixture(eliminationTournament(), 1, 2, 3, 4)
	ctx := context.Background()

	tournament, err := f.tourneySvc.Prepare(ctx, 1)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if tournament.Status != models.TournamentPrepared {
		t.Fatalf("status = %s, want prepared", tournament.Status)
	}
	if tournament.TotalRounds != 2 {
		t.Fatalf("total rounds = %d, want 2 for 4 players", tournament.TotalRounds)
	}
	if tournament.Rounds[0].Label != "Semifinals" || tournament.Rounds[1].Label != "Final" {
		t.Errorf("labels = %q, %q, want Semifinals, Final",
			tournament.Rounds[0].Label, tournament.Rounds[1].Label)
	}
}

func TestActivateRoundCreatesSeriesAndGames(t *testing.T) {
	f := newTournamentFixture(eliminationTournament(), 1, 2, 3, 4)
	ctx := context.Background()

	if _, err := f.tourneySvc.Prepare(ctx, 1); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	round, err := f.roundSvc.ActivateRound(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ActivateRound: %v", err)
	}
	if round.Status != models.RoundInProgress {
		t.Fatalf("round status = %s, want in_progress", round.Status)
	}

	seriesList, _ := f.series.ListByRound(ctx, round.ID)
	if len(seriesList) != 2 {
		t.Fatalf("4 players should yield 2 series, got %d", len(seriesList))
	}
	for _, s := range seriesList {
		if s.WinsRequired != 1 || s.GamesScheduled != 1 {
			t.Errorf("best-of-1 series should pre-create 1 game, got %+v", s)
		}
		games, _ := f.series.ListGamesBySeries(ctx, s.ID)
		if len(games) != 1 {
			t.Errorf("series %d has %d games, want 1", s.ID, len(games))
		}
	}

	// Activating again is a no-op, not an error.
	again, err := f.roundSvc.ActivateRound(ctx, 1, 1)
	if err != nil {
		t.Fatalf("second ActivateRound: %v", err)
	}
	if again.Status != models.RoundInProgress {
		t.Fatalf("second activation changed status to %s", again.Status)
	}
	seriesList, _ = f.series.ListByRound(ctx, round.ID)
	if len(seriesList) != 2 {
		t.Errorf("second activation duplicated series: %d", len(seriesList))
	}
}

func TestOddFieldGivesByeAndPairsRest(t *testing.T) {
	f := newTournamentFixture(eliminationTournament(), 1, 2, 3, 4, 5)
	ctx := context.Background()

	// Player 5 is the clear rating leader and must receive the bye.
	f.users.users[5].Rating = 1900

	if _, err := f.tourneySvc.Prepare(ctx, 1); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	round, err := f.roundSvc.ActivateRound(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ActivateRound: %v", err)
	}

	seriesList, _ := f.series.ListByRound(ctx, round.ID)
	if len(seriesList) != 2 {
		t.Fatalf("5 players should yield 2 series plus a bye, got %d series", len(seriesList))
	}
	for _, s := range seriesList {
		if s.Player1ID == 5 || s.Player2ID == 5 {
			t.Errorf("rating leader should have the bye, found in series %+v", s)
		}
	}
	standings, _ := f.participants.ListAccepted(ctx, 1, false)
	if standings[0].UserID != 5 || standings[0].Points != SeriesWinPoints {
		t.Errorf("bye should award points to player 5, standings head = %+v", standings[0])
	}
}

func TestRoundCompletionEliminatesLosersAndFinishesTournament(t *testing.T) {
	f := newTournamentFixture(eliminationTournament(), 1, 2, 3, 4)
	ctx := context.Background()

	if _, err := f.tourneySvc.Prepare(ctx, 1); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	round1, err := f.roundSvc.ActivateRound(ctx, 1, 1)
	if err != nil {
		t.Fatalf("activate round 1: %v", err)
	}

	// Not complete while games are pending.
	done, err := f.roundSvc.CheckRoundCompletion(ctx, 1, 1)
	if err != nil {
		t.Fatalf("CheckRoundCompletion: %v", err)
	}
	if done {
		t.Fatal("round reported complete with pending games")
	}

	winRound(t, f, round1.ID)

	done, err = f.roundSvc.CheckRoundCompletion(ctx, 1, 1)
	if err != nil {
		t.Fatalf("CheckRoundCompletion after games: %v", err)
	}
	if !done {
		t.Fatal("round should be complete after all series decided")
	}

	active, _ := f.participants.ListAccepted(ctx, 1, true)
	if len(active) != 2 {
		t.Fatalf("elimination round should leave 2 active players, got %d", len(active))
	}

	round2, err := f.roundSvc.ActivateRound(ctx, 1, 2)
	if err != nil {
		t.Fatalf("activate round 2: %v", err)
	}
	winRound(t, f, round2.ID)

	done, err = f.roundSvc.CheckRoundCompletion(ctx, 1, 2)
	if err != nil {
		t.Fatalf("final completion: %v", err)
	}
	if !done {
		t.Fatal("final round should complete")
	}

	tournament, _ := f.tournaments.GetByID(ctx, 1)
	if tournament.Status != models.TournamentFinished {
		t.Fatalf("tournament status = %s, want finished", tournament.Status)
	}
	if tournament.WinnerID == nil {
		t.Fatal("finished tournament must have a champion")
	}
	standings, _ := f.participants.ListAccepted(ctx, 1, false)
	if *tournament.WinnerID != standings[0].UserID {
		t.Errorf("champion = %d, want standings leader %d", *tournament.WinnerID, standings[0].UserID)
	}
}

func TestSeriesResultsDriveRoundProgression(t *testing.T) {
	f := newTournamentFixture(eliminationTournament(), 1, 2, 3, 4)
	ctx := context.Background()

	if _, err := f.tourneySvc.Prepare(ctx, 1); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	round1, err := f.roundSvc.ActivateRound(ctx, 1, 1)
	if err != nil {
		t.Fatalf("activate round 1: %v", err)
	}

	// Reporting the last game of the round must close it and open the
	// next one without any admin completion check.
	winRound(t, f, round1.ID)

	r1, _ := f.rounds.GetByNumber(ctx, 1, 1)
	if r1.Status != models.RoundCompleted {
		t.Fatalf("round 1 status = %s, want completed after its last result", r1.Status)
	}
	r2, _ := f.rounds.GetByNumber(ctx, 1, 2)
	if r2.Status != models.RoundInProgress {
		t.Fatalf("round 2 status = %s, want in_progress after round 1 closed", r2.Status)
	}
	seriesList, _ := f.series.ListByRound(ctx, r2.ID)
	if len(seriesList) != 1 {
		t.Fatalf("round 2 should pair the 2 survivors, got %d series", len(seriesList))
	}

	winRound(t, f, r2.ID)

	tournament, _ := f.tournaments.GetByID(ctx, 1)
	if tournament.Status != models.TournamentFinished {
		t.Fatalf("tournament status = %s, want finished after the final result", tournament.Status)
	}
	if tournament.WinnerID == nil || *tournament.WinnerID != 1 {
		t.Fatalf("champion = %v, want player 1", tournament.WinnerID)
	}
}

// winRound reports every pending game of the round with the lower
// player id winning.
func winRound(t *testing.T, f *tournamentFixture, roundID int) {
	t.Helper()
	seriesList, _ := f.series.ListByRound(context.Background(), roundID)
	for _, s := range seriesList {
		games, _ := f.series.ListGamesBySeries(context.Background(), s.ID)
		for _, g := range games {
			if g.Status != models.SeriesGamePending {
				continue
			}
			winner, loser := s.Player1ID, s.Player2ID
			if loser < winner {
				winner, loser = loser, winner
			}
			if _, err := reportSeriesGame(f.matchFixture, g.ID, winner, loser); err != nil {
				t.Fatalf("reporting game %d: %v", g.ID, err)
			}
		}
	}
}
