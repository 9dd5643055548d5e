package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
	"github.com/clmates/wesnoth-tournament-manager-sub001/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// passthroughTx runs the unit of work without any transaction.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

// rollbackTx mimics transaction semantics over the in-memory fakes:
// when the unit of work fails, every repository it covers is restored
// to its state at the start of the call.
type rollbackTx struct {
	users        *fakeUserRepo
	matches      *fakeMatchRepo
	series       *fakeSeriesRepo
	participants *fakeParticipantRepo
}

func clonePtrMap[K comparable, V any](m map[K]*V) map[K]*V {
	out := make(map[K]*V, len(m))
	for k, v := range m {
		copied := *v
		out[k] = &copied
	}
	return out
}

func (t rollbackTx) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	users := clonePtrMap(t.users.users)
	matches := clonePtrMap(t.matches.matches)
	series := clonePtrMap(t.series.series)
	games := clonePtrMap(t.series.games)
	participants := clonePtrMap(t.participants.participants)

	if err := fn(nil); err != nil {
		t.users.users = users
		t.matches.matches = matches
		t.series.series = series
		t.series.games = games
		t.participants.participants = participants
		return err
	}
	return nil
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func newTestPlayer(id int) *models.User {
	return &models.User{
		ID:       id,
		Nickname: "player",
		Rating:   models.BaselineRating,
		Streak:   "-",
		Role:     models.RolePlayer,
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = len(r.users) + 1
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetRatingForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeUserRepo) UpdateRating(ctx context.Context, exec repositories.SQLExecutor, id int, state models.RatingState) error {
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Rating = state.Rating
	u.IsRated = state.IsRated
	u.MatchesPlayed = state.MatchesPlayed
	u.TotalWins = state.TotalWins
	u.TotalLosses = state.TotalLosses
	u.Streak = state.Streak
	return nil
}

func (r *fakeUserRepo) ListIDs(ctx context.Context) ([]int, error) {
	ids := make([]int, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *fakeUserRepo) ListLeaderboard(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	for _, u := range r.users {
		if u.IsRated {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Rating > users[j].Rating })
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

type fakeMatchRepo struct {
	matches map[int]*models.Match
	nextID  int
	clock   time.Time
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{
		matches: make(map[int]*models.Match),
		nextID:  1,
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	match.ID = r.nextID
	r.nextID++
	r.clock = r.clock.Add(time.Minute)
	match.CreatedAt = r.clock
	match.UpdatedAt = r.clock
	copied := *match
	r.matches[match.ID] = &copied
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, from, to models.MatchStatus) error {
	m, ok := r.matches[id]
	if !ok || m.Status != from {
		return repositories.ErrMatchNotFound
	}
	m.Status = to
	return nil
}

func (r *fakeMatchRepo) SetLoserComments(ctx context.Context, exec repositories.SQLExecutor, id int, comments string) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.LoserComments = &comments
	return nil
}

func (r *fakeMatchRepo) SetReplayPath(ctx context.Context, exec repositories.SQLExecutor, id int, path string) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.ReplayPath = &path
	return nil
}

func (r *fakeMatchRepo) UpdateRatingSnapshot(ctx context.Context, exec repositories.SQLExecutor, id int, winnerBefore, winnerAfter, loserBefore, loserAfter int) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.WinnerRatingBefore = winnerBefore
	m.WinnerRatingAfter = winnerAfter
	m.LoserRatingBefore = loserBefore
	m.LoserRatingAfter = loserAfter
	return nil
}

func (r *fakeMatchRepo) ListChronological(ctx context.Context, exec repositories.SQLExecutor) ([]models.Match, error) {
	var matches []models.Match
	for _, m := range r.matches {
		if m.Status != models.MatchStatusCancelled {
			matches = append(matches, *m)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *fakeMatchRepo) ListByStatus(ctx context.Context, status models.MatchStatus) ([]models.Match, error) {
	var matches []models.Match
	for _, m := range r.matches {
		if m.Status == status {
			matches = append(matches, *m)
		}
	}
	return matches, nil
}

func (r *fakeMatchRepo) ListByPlayer(ctx context.Context, playerID, limit int) ([]models.Match, error) {
	var matches []models.Match
	for _, m := range r.matches {
		if (m.WinnerID == playerID || m.LoserID == playerID) && m.Status != models.MatchStatusCancelled {
			matches = append(matches, *m)
		}
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

type fakeSeriesRepo struct {
	series     map[int]*models.Series
	games      map[int]*models.SeriesGame
	nextSeries int
	nextGame   int
}

func newFakeSeriesRepo() *fakeSeriesRepo {
	return &fakeSeriesRepo{
		series:     make(map[int]*models.Series),
		games:      make(map[int]*models.SeriesGame),
		nextSeries: 1,
		nextGame:   1,
	}
}

func (r *fakeSeriesRepo) Create(ctx context.Context, exec repositories.SQLExecutor, series *models.Series) error {
	series.ID = r.nextSeries
	r.nextSeries++
	copied := *series
	r.series[series.ID] = &copied
	return nil
}

func (r *fakeSeriesRepo) GetByID(ctx context.Context, id int) (*models.Series, error) {
	s, ok := r.series[id]
	if !ok {
		return nil, repositories.ErrSeriesNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSeriesRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Series, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeSeriesRepo) Update(ctx context.Context, exec repositories.SQLExecutor, series *models.Series) error {
	stored, ok := r.series[series.ID]
	if !ok {
		return repositories.ErrSeriesNotFound
	}
	*stored = *series
	return nil
}

func (r *fakeSeriesRepo) ListByRound(ctx context.Context, roundID int) ([]models.Series, error) {
	var list []models.Series
	for _, s := range r.series {
		if s.RoundID == roundID {
			list = append(list, *s)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *fakeSeriesRepo) ListPairHistory(ctx context.Context, tournamentID int) ([]models.Series, error) {
	var list []models.Series
	for _, s := range r.series {
		if s.TournamentID == tournamentID {
			list = append(list, *s)
		}
	}
	return list, nil
}

func (r *fakeSeriesRepo) CreateGame(ctx context.Context, exec repositories.SQLExecutor, game *models.SeriesGame) error {
	game.ID = r.nextGame
	r.nextGame++
	copied := *game
	r.games[game.ID] = &copied
	return nil
}

func (r *fakeSeriesRepo) GetGameByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.SeriesGame, error) {
	g, ok := r.games[id]
	if !ok {
		return nil, repositories.ErrSeriesGameNotFound
	}
	copied := *g
	return &copied, nil
}

func (r *fakeSeriesRepo) CompleteGame(ctx context.Context, exec repositories.SQLExecutor, gameID, winnerID, matchID int) error {
	g, ok := r.games[gameID]
	if !ok || g.Status != models.SeriesGamePending {
		return repositories.ErrSeriesGameNotFound
	}
	now := time.Now()
	g.Status = models.SeriesGameCompleted
	g.WinnerID = &winnerID
	g.MatchID = &matchID
	g.PlayedAt = &now
	return nil
}

func (r *fakeSeriesRepo) ReopenGame(ctx context.Context, exec repositories.SQLExecutor, gameID int) error {
	g, ok := r.games[gameID]
	if !ok {
		return repositories.ErrSeriesGameNotFound
	}
	g.Status = models.SeriesGamePending
	g.WinnerID = nil
	g.MatchID = nil
	g.PlayedAt = nil
	return nil
}

func (r *fakeSeriesRepo) ListGamesBySeries(ctx context.Context, seriesID int) ([]models.SeriesGame, error) {
	var games []models.SeriesGame
	for _, g := range r.games {
		if g.SeriesID == seriesID {
			games = append(games, *g)
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (r *fakeSeriesRepo) CountPendingGames(ctx context.Context, exec repositories.SQLExecutor, seriesID int) (int, error) {
	count := 0
	for _, g := range r.games {
		if g.SeriesID == seriesID && g.Status == models.SeriesGamePending {
			count++
		}
	}
	return count, nil
}

func (r *fakeSeriesRepo) CountPendingGamesByRound(ctx context.Context, roundID int) (int, error) {
	count := 0
	for _, g := range r.games {
		if g.RoundID == roundID && g.Status == models.SeriesGamePending {
			count++
		}
	}
	return count, nil
}

type fakeParticipantRepo struct {
	participants map[int]*models.Participant // keyed by user id
	nextID       int

	// users, when set, is joined into ListAccepted results the way the
	// SQL repository joins the users table.
	users map[int]*models.User
}

func newFakeParticipantRepo(tournamentID int, userIDs ...int) *fakeParticipantRepo {
	r := &fakeParticipantRepo{participants: make(map[int]*models.Participant), nextID: 1}
	for _, id := range userIDs {
		r.participants[id] = &models.Participant{
			ID:           r.nextID,
			TournamentID: tournamentID,
			UserID:       id,
			Accepted:     true,
		}
		r.nextID++
	}
	return r
}

func (r *fakeParticipantRepo) Create(ctx context.Context, participant *models.Participant) error {
	if _, ok := r.participants[participant.UserID]; ok {
		return repositories.ErrParticipantConflict
	}
	participant.ID = r.nextID
	r.nextID++
	copied := *participant
	r.participants[participant.UserID] = &copied
	return nil
}

func (r *fakeParticipantRepo) ListAccepted(ctx context.Context, tournamentID int, activeOnly bool) ([]models.Participant, error) {
	var list []models.Participant
	for _, p := range r.participants {
		if !p.Accepted || (activeOnly && p.Eliminated) {
			continue
		}
		copied := *p
		if u, ok := r.users[p.UserID]; ok {
			user := *u
			copied.User = &user
		}
		list = append(list, copied)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.User != nil && b.User != nil && a.User.Rating != b.User.Rating {
			return a.User.Rating > b.User.Rating
		}
		return a.UserID < b.UserID
	})
	return list, nil
}

func (r *fakeParticipantRepo) AddWin(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID, points int) error {
	p, ok := r.participants[userID]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Points += points
	p.Wins++
	return nil
}

func (r *fakeParticipantRepo) AddLoss(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID int) error {
	p, ok := r.participants[userID]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Losses++
	return nil
}

func (r *fakeParticipantRepo) RevokeWin(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID, points int) error {
	p, ok := r.participants[userID]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Points -= points
	p.Wins--
	return nil
}

func (r *fakeParticipantRepo) RevokeLoss(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID int) error {
	p, ok := r.participants[userID]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Losses--
	return nil
}

func (r *fakeParticipantRepo) AddByePoints(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID, points int) error {
	return r.AddWin(ctx, exec, tournamentID, userID, points)
}

func (r *fakeParticipantRepo) MarkEliminated(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, userIDs []int) error {
	for _, id := range userIDs {
		if p, ok := r.participants[id]; ok {
			p.Eliminated = true
		}
	}
	return nil
}
