package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/padelhub/tournament-system/models"
	"github.com/padelhub/tournament-system/repositories"
)

// Стенд для сервисных тестов: общее in-memory хранилище и стабы
// репозиториев поверх него. Транзакционный менеджер исполняет функцию
// напрямую — изоляция в этих тестах не проверяется.

type fixture struct {
	mu sync.Mutex

	nextID      int
	tournaments map[int]*models.Tournament
	regs        []*models.TournamentTeam
	teams       map[int]*models.Team
	players     map[int]*models.Player
	matches     map[int]*models.Match
	matchOrder  []int
	courts      map[int]*models.Court
	courtOrder  []int
	bookings    map[int]*models.CourtBooking
}

func newFixture() *fixture {
	return &fixture{
		tournaments: make(map[int]*models.Tournament),
		teams:       make(map[int]*models.Team),
		players:     make(map[int]*models.Player),
		matches:     make(map[int]*models.Match),
		courts:      make(map[int]*models.Court),
		bookings:    make(map[int]*models.CourtBooking),
	}
}

func (f *fixture) id() int {
	f.nextID++
	return f.nextID
}

func (f *fixture) addTournament(status models.TournamentStatus) *models.Tournament {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &models.Tournament{ID: f.id(), Name: "t", Status: status, StartDate: time.Now()}
	f.tournaments[t.ID] = t
	return t
}

func (f *fixture) addTeam(name string) *models.Team {
	f.mu.Lock()
	defer f.mu.Unlock()
	team := &models.Team{ID: f.id(), Name: name}
	f.teams[team.ID] = team
	return team
}

func (f *fixture) addCompleteTeam(name string) *models.Team {
	team := f.addTeam(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < models.TeamSize; i++ {
		p := &models.Player{ID: f.id(), Name: name, Rank: 1}
		f.players[p.ID] = p
		team.Members = append(team.Members, models.TeamMember{
			ID: f.id(), TeamID: team.ID, PlayerID: p.ID, Player: p,
		})
	}
	return team
}

func (f *fixture) register(tournamentID, teamID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs = append(f.regs, &models.TournamentTeam{
		ID: f.id(), TournamentID: tournamentID, TeamID: teamID, RegisteredAt: time.Now(),
	})
}

func (f *fixture) addMatch(m models.Match) *models.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = f.id()
	if m.Status == "" {
		m.Status = models.MatchStatusPending
	}
	stored := m
	f.matches[stored.ID] = &stored
	f.matchOrder = append(f.matchOrder, stored.ID)
	return &stored
}

func (f *fixture) addCourt(c models.Court) *models.Court {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.id()
	stored := c
	f.courts[stored.ID] = &stored
	f.courtOrder = append(f.courtOrder, stored.ID)
	return &stored
}

func (f *fixture) addBooking(b models.CourtBooking) *models.CourtBooking {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.id()
	stored := b
	f.bookings[stored.ID] = &stored
	return &stored
}

type stubTxManager struct{}

func (stubTxManager) WithinSerializableTx(ctx context.Context, fn func(repositories.SQLExecutor) error) error {
	return fn(nil)
}

// --- tournament repository ---

type stubTournamentRepo struct{ f *fixture }

func (r *stubTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, existing := range r.f.tournaments {
		if existing.Name == t.Name {
			return repositories.ErrTournamentNameConflict
		}
	}
	t.ID = r.f.id()
	t.CreatedAt = time.Now()
	stored := *t
	r.f.tournaments[t.ID] = &stored
	return nil
}

func (r *stubTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	t, ok := r.f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *stubTournamentRepo) List(_ context.Context) ([]models.Tournament, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	out := make([]models.Tournament, 0, len(r.f.tournaments))
	for _, t := range r.f.tournaments {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubTournamentRepo) ListByStatuses(_ context.Context, statuses []models.TournamentStatus) ([]models.Tournament, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	want := make(map[models.TournamentStatus]bool)
	for _, s := range statuses {
		want[s] = true
	}
	out := make([]models.Tournament, 0)
	for _, t := range r.f.tournaments {
		if want[t.Status] {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, from, to models.TournamentStatus) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	t, ok := r.f.tournaments[id]
	if !ok || t.Status != from {
		return repositories.ErrTournamentStatusConflict
	}
	t.Status = to
	return nil
}

func (r *stubTournamentRepo) RegisterTeam(_ context.Context, _ repositories.SQLExecutor, tournamentID, teamID int) (*models.TournamentTeam, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, reg := range r.f.regs {
		if reg.TournamentID == tournamentID && reg.TeamID == teamID {
			return nil, repositories.ErrRegistrationConflict
		}
	}
	reg := &models.TournamentTeam{
		ID: r.f.id(), TournamentID: tournamentID, TeamID: teamID, RegisteredAt: time.Now(),
	}
	r.f.regs = append(r.f.regs, reg)
	copied := *reg
	return &copied, nil
}

func (r *stubTournamentRepo) ListRegistrations(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.TournamentTeam, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	out := make([]models.TournamentTeam, 0)
	for _, reg := range r.f.regs {
		if reg.TournamentID != tournamentID {
			continue
		}
		copied := *reg
		if team, ok := r.f.teams[reg.TeamID]; ok {
			teamCopy := *team
			copied.Team = &teamCopy
		}
		out = append(out, copied)
	}
	return out, nil
}

// --- team repository ---

type stubTeamRepo struct{ f *fixture }

func (r *stubTeamRepo) Create(_ context.Context, team *models.Team) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, existing := range r.f.teams {
		if existing.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = r.f.id()
	stored := *team
	r.f.teams[team.ID] = &stored
	return nil
}

func (r *stubTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	team, ok := r.f.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *stubTeamRepo) List(_ context.Context) ([]models.Team, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	out := make([]models.Team, 0, len(r.f.teams))
	for _, team := range r.f.teams {
		out = append(out, *team)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubTeamRepo) Update(_ context.Context, team *models.Team) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	stored, ok := r.f.teams[team.ID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	stored.Name = team.Name
	stored.Ranking = team.Ranking
	return nil
}

func (r *stubTeamRepo) Delete(_ context.Context, id int) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.f.teams, id)
	return nil
}

func (r *stubTeamRepo) AddMember(_ context.Context, teamID, playerID int) (*models.TeamMember, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	team, ok := r.f.teams[teamID]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	player, ok := r.f.players[playerID]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	for _, m := range team.Members {
		if m.PlayerID == playerID {
			return nil, repositories.ErrTeamMemberConflict
		}
	}
	member := models.TeamMember{ID: r.f.id(), TeamID: teamID, PlayerID: playerID, Player: player}
	team.Members = append(team.Members, member)
	return &member, nil
}

func (r *stubTeamRepo) RemoveMember(_ context.Context, teamID, playerID int) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	team, ok := r.f.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	for i, m := range team.Members {
		if m.PlayerID == playerID {
			team.Members = append(team.Members[:i], team.Members[i+1:]...)
			return nil
		}
	}
	return repositories.ErrTeamMemberNotFound
}

func (r *stubTeamRepo) ListMembers(_ context.Context, teamID int) ([]models.TeamMember, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	team, ok := r.f.teams[teamID]
	if !ok {
		return []models.TeamMember{}, nil
	}
	return append([]models.TeamMember(nil), team.Members...), nil
}

func (r *stubTeamRepo) UpdateRanking(_ context.Context, teamID, ranking int) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	team, ok := r.f.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.Ranking = ranking
	return nil
}

// --- match repository ---

type stubMatchRepo struct{ f *fixture }

func (r *stubMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	match.ID = r.f.id()
	match.CreatedAt = time.Now()
	stored := *match
	r.f.matches[match.ID] = &stored
	r.f.matchOrder = append(r.f.matchOrder, match.ID)
	return nil
}

func (r *stubMatchRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, matches []*models.Match) error {
	for _, m := range matches {
		if err := r.Create(ctx, exec, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *stubMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	m, ok := r.f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *stubMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, filter repositories.MatchFilter) ([]models.Match, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	out := make([]models.Match, 0)
	for _, id := range r.f.matchOrder {
		m := r.f.matches[id]
		if m.TournamentID != tournamentID {
			continue
		}
		if filter.Phase != nil && m.Phase != *filter.Phase {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.Round != nil && (m.RoundNum == nil || *m.RoundNum != *filter.Round) {
			continue
		}
		out = append(out, *m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].RoundNum, out[j].RoundNum
		switch {
		case ri == nil && rj != nil:
			return true
		case ri != nil && rj == nil:
			return false
		case ri != nil && rj != nil && *ri != *rj:
			return *ri < *rj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *stubMatchRepo) ListByTeam(_ context.Context, teamID int) ([]models.Match, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	out := make([]models.Match, 0)
	for _, id := range r.f.matchOrder {
		m := r.f.matches[id]
		if m.Team1ID == teamID || m.Team2ID == teamID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *stubMatchRepo) ListPendingUnscheduled(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.Match, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	booked := make(map[int]bool)
	for _, b := range r.f.bookings {
		booked[b.MatchID] = true
	}
	out := make([]models.Match, 0)
	for _, id := range r.f.matchOrder {
		m := r.f.matches[id]
		if m.TournamentID == tournamentID && m.Status == models.MatchStatusPending && !booked[m.ID] {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *stubMatchRepo) List(_ context.Context) ([]models.Match, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	out := make([]models.Match, 0, len(r.f.matchOrder))
	for _, id := range r.f.matchOrder {
		out = append(out, *r.f.matches[id])
	}
	return out, nil
}

func (r *stubMatchRepo) UpdateResult(_ context.Context, _ repositories.SQLExecutor, id int, team1Score, team2Score int, winnerID *int) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	m, ok := r.f.matches[id]
	if !ok || m.Status != models.MatchStatusPending {
		return repositories.ErrMatchNotPending
	}
	m.Team1Score = &team1Score
	m.Team2Score = &team2Score
	m.WinnerID = winnerID
	m.Status = models.MatchStatusFinished
	return nil
}

func (r *stubMatchRepo) UpdateForfeit(_ context.Context, _ repositories.SQLExecutor, id int, winnerID, cancelledByTeamID int, reason string) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	m, ok := r.f.matches[id]
	if !ok || m.Status != models.MatchStatusPending {
		return repositories.ErrMatchNotPending
	}
	m.WinnerID = &winnerID
	m.CancelledByTeamID = &cancelledByTeamID
	m.CancellationReason = &reason
	m.Status = models.MatchStatusFinished
	return nil
}

// --- court repository ---

type stubCourtRepo struct{ f *fixture }

func (r *stubCourtRepo) Create(_ context.Context, court *models.Court) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	court.ID = r.f.id()
	stored := *court
	r.f.courts[court.ID] = &stored
	r.f.courtOrder = append(r.f.courtOrder, court.ID)
	return nil
}

func (r *stubCourtRepo) GetByID(_ context.Context, id int) (*models.Court, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	c, ok := r.f.courts[id]
	if !ok {
		return nil, repositories.ErrCourtNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *stubCourtRepo) List(_ context.Context) ([]models.Court, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	out := make([]models.Court, 0, len(r.f.courtOrder))
	for _, id := range r.f.courtOrder {
		out = append(out, *r.f.courts[id])
	}
	return out, nil
}

func (r *stubCourtRepo) ListByIDs(_ context.Context, _ repositories.SQLExecutor, ids []int) ([]models.Court, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	out := make([]models.Court, 0, len(ids))
	for _, id := range ids {
		c, ok := r.f.courts[id]
		if !ok {
			return nil, repositories.ErrCourtNotFound
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCourtRepo) ListIndoorAvailable(_ context.Context, _ repositories.SQLExecutor) ([]models.Court, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	out := make([]models.Court, 0)
	for _, id := range r.f.courtOrder {
		c := r.f.courts[id]
		if c.IsIndoor && c.IsAvailable {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubCourtRepo) Update(_ context.Context, court *models.Court) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	stored, ok := r.f.courts[court.ID]
	if !ok {
		return repositories.ErrCourtNotFound
	}
	*stored = *court
	return nil
}

func (r *stubCourtRepo) Delete(_ context.Context, id int) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.courts[id]; !ok {
		return repositories.ErrCourtNotFound
	}
	delete(r.f.courts, id)
	return nil
}

// --- booking repository ---

type stubBookingRepo struct{ f *fixture }

func (r *stubBookingRepo) Create(_ context.Context, _ repositories.SQLExecutor, booking *models.CourtBooking) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, b := range r.f.bookings {
		if b.MatchID == booking.MatchID {
			return repositories.ErrMatchAlreadyBooked
		}
		if b.CourtID == booking.CourtID && b.BookingDate.Equal(booking.BookingDate) && b.StartTime == booking.StartTime {
			return repositories.ErrBookingSlotTaken
		}
	}
	booking.ID = r.f.id()
	booking.CreatedAt = time.Now()
	stored := *booking
	r.f.bookings[booking.ID] = &stored
	return nil
}

func (r *stubBookingRepo) GetByMatchID(_ context.Context, _ repositories.SQLExecutor, matchID int) (*models.CourtBooking, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, b := range r.f.bookings {
		if b.MatchID == matchID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, repositories.ErrBookingNotFound
}

func (r *stubBookingRepo) ExistsAt(_ context.Context, _ repositories.SQLExecutor, courtID int, date time.Time, startTime string) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, b := range r.f.bookings {
		if b.CourtID == courtID && b.BookingDate.Equal(date) && b.StartTime == startTime {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubBookingRepo) ListOccupiedSlots(_ context.Context, _ repositories.SQLExecutor, courtIDs []int, from, to time.Time) ([]repositories.SlotKey, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	want := make(map[int]bool)
	for _, id := range courtIDs {
		want[id] = true
	}
	out := make([]repositories.SlotKey, 0)
	for _, b := range r.f.bookings {
		if want[b.CourtID] && !b.BookingDate.Before(from) && !b.BookingDate.After(to) {
			out = append(out, repositories.NewSlotKey(b.CourtID, b.BookingDate, b.StartTime))
		}
	}
	return out, nil
}

func (r *stubBookingRepo) ListOutdoorPendingByTournament(_ context.Context, tournamentID int, onOrAfter time.Time) ([]models.CourtBooking, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	out := make([]models.CourtBooking, 0)
	for _, b := range r.f.bookings {
		match, ok := r.f.matches[b.MatchID]
		if !ok || match.TournamentID != tournamentID || match.Status != models.MatchStatusPending {
			continue
		}
		court, ok := r.f.courts[b.CourtID]
		if !ok || court.IsIndoor || b.BookingDate.Before(onOrAfter) {
			continue
		}
		copied := *b
		courtCopy := *court
		copied.Court = &courtCopy
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubBookingRepo) Relocate(_ context.Context, _ repositories.SQLExecutor, id, newCourtID int) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	b, ok := r.f.bookings[id]
	if !ok {
		return repositories.ErrBookingNotFound
	}
	b.CourtID = newCourtID
	return nil
}

func (r *stubBookingRepo) Postpone(_ context.Context, _ repositories.SQLExecutor, id int, newDate time.Time) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	b, ok := r.f.bookings[id]
	if !ok {
		return repositories.ErrBookingNotFound
	}
	b.BookingDate = newDate
	return nil
}

func (r *stubBookingRepo) UpdateWeather(_ context.Context, _ repositories.SQLExecutor, id int, update repositories.WeatherUpdate) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	b, ok := r.f.bookings[id]
	if !ok {
		return repositories.ErrBookingNotFound
	}
	b.Temperature = update.Temperature
	b.RainProbability = update.RainProbability
	b.WindSpeed = update.WindSpeed
	b.WeatherCondition = update.WeatherCondition
	b.IsWeatherSuitable = update.IsSuitable
	checkedAt := update.CheckedAt
	b.WeatherCheckedAt = &checkedAt
	return nil
}
