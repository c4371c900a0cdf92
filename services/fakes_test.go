package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/austinlparker/bsky-bracket/models"
	"github.com/austinlparker/bsky-bracket/repositories"
)

// fakeData is the shared in-memory store behind all fake repositories, so
// cross-aggregate queries (score sums, like recomputes) behave like the real
// schema would.
type fakeData struct {
	mu sync.Mutex

	users      map[string]*models.User
	games      map[int]*models.Game
	gameParts  map[int]map[string]*models.GameParticipant
	rounds     map[int]*models.Round
	roundParts map[int]map[string]*models.RoundParticipant
	posts      map[string]*models.Post
	elims      []models.Elimination

	nextGameID  int
	nextRoundID int

	// onDistinctTeams, when set, runs inside DistinctActiveTeams. Tests use
	// it to hold an elimination pass open.
	onDistinctTeams func()
}

func newFakeData() *fakeData {
	return &fakeData{
		users:       make(map[string]*models.User),
		games:       make(map[int]*models.Game),
		gameParts:   make(map[int]map[string]*models.GameParticipant),
		rounds:      make(map[int]*models.Round),
		roundParts:  make(map[int]map[string]*models.RoundParticipant),
		posts:       make(map[string]*models.Post),
		nextGameID:  1,
		nextRoundID: 1,
	}
}

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

// ---- users ----

type fakeUserRepo struct{ d *fakeData }

func (r *fakeUserRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, u *models.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.users[u.DID]; !ok {
		cp := *u
		r.d.users[u.DID] = &cp
	}
	return nil
}

func (r *fakeUserRepo) GetByDID(ctx context.Context, did string) (*models.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u, ok := r.d.users[did]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) ListUnassigned(ctx context.Context, exec repositories.SQLExecutor) ([]*models.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	users := make([]*models.User, 0)
	for _, u := range r.d.users {
		if u.CurrentGameID == nil {
			cp := *u
			users = append(users, &cp)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].DID < users[j].DID })
	return users, nil
}

func (r *fakeUserRepo) CountUnassignedByTeam(ctx context.Context, exec repositories.SQLExecutor, minPerTeam int) ([]models.TeamCount, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	byTeam := make(map[int]int)
	for _, u := range r.d.users {
		if u.CurrentGameID == nil {
			byTeam[u.Team]++
		}
	}
	return teamCountsAtLeast(byTeam, minPerTeam), nil
}

func (r *fakeUserRepo) AssignCurrentGame(ctx context.Context, exec repositories.SQLExecutor, dids []string, gameID int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, did := range dids {
		if u, ok := r.d.users[did]; ok {
			id := gameID
			u.CurrentGameID = &id
		}
	}
	return nil
}

func (r *fakeUserRepo) ClearCurrentGame(ctx context.Context, exec repositories.SQLExecutor, gameID int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, u := range r.d.users {
		if u.CurrentGameID != nil && *u.CurrentGameID == gameID {
			u.CurrentGameID = nil
		}
	}
	return nil
}

func (r *fakeUserRepo) TeamMemberCounts(ctx context.Context) ([]models.TeamCount, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	byTeam := make(map[int]int)
	for _, u := range r.d.users {
		byTeam[u.Team]++
	}
	return teamCountsAtLeast(byTeam, 0), nil
}

func teamCountsAtLeast(byTeam map[int]int, min int) []models.TeamCount {
	counts := make([]models.TeamCount, 0, len(byTeam))
	for team, n := range byTeam {
		if n >= min {
			counts = append(counts, models.TeamCount{Team: team, Count: n})
		}
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Team < counts[j].Team })
	return counts
}

// ---- games ----

type fakeGameRepo struct{ d *fakeData }

func (r *fakeGameRepo) Create(ctx context.Context, exec repositories.SQLExecutor, g *models.Game) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	g.ID = r.d.nextGameID
	r.d.nextGameID++
	cp := *g
	r.d.games[g.ID] = &cp
	return nil
}

func (r *fakeGameRepo) GetCurrent(ctx context.Context, exec repositories.SQLExecutor) (*models.Game, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var latest *models.Game
	for _, g := range r.d.games {
		if g.Status != models.GameStatusRegistration && g.Status != models.GameStatusActive {
			continue
		}
		if latest == nil || g.StartTime.After(latest.StartTime) {
			latest = g
		}
	}
	if latest == nil {
		return nil, repositories.ErrGameNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	g, ok := r.d.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGameRepo) GetByIDInStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.GameStatus) (*models.Game, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	g, ok := r.d.games[id]
	if !ok || g.Status != status {
		return nil, repositories.ErrGameWrongStatus
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGameRepo) Activate(ctx context.Context, exec repositories.SQLExecutor, gameID, roundID int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	g, ok := r.d.games[gameID]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.Status = models.GameStatusActive
	id := roundID
	g.CurrentRoundID = &id
	return nil
}

func (r *fakeGameRepo) SetCurrentRound(ctx context.Context, exec repositories.SQLExecutor, gameID, roundID int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	g, ok := r.d.games[gameID]
	if !ok {
		return repositories.ErrGameNotFound
	}
	id := roundID
	g.CurrentRoundID = &id
	return nil
}

func (r *fakeGameRepo) Complete(ctx context.Context, exec repositories.SQLExecutor, gameID int, winner *int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	g, ok := r.d.games[gameID]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.Status = models.GameStatusCompleted
	g.Winner = winner
	return nil
}

// ---- game participants ----

type fakeGameParticipantRepo struct{ d *fakeData }

func (r *fakeGameParticipantRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, participants []models.GameParticipant) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, p := range participants {
		if r.d.gameParts[p.GameID] == nil {
			r.d.gameParts[p.GameID] = make(map[string]*models.GameParticipant)
		}
		cp := p
		r.d.gameParts[p.GameID][p.UserID] = &cp
	}
	return nil
}

func (r *fakeGameParticipantRepo) ListActive(ctx context.Context, exec repositories.SQLExecutor, gameID int) ([]models.GameParticipant, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	parts := make([]models.GameParticipant, 0)
	for _, p := range r.d.gameParts[gameID] {
		if p.Status == models.ParticipantActive {
			parts = append(parts, *p)
		}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].UserID < parts[j].UserID })
	return parts, nil
}

func (r *fakeGameParticipantRepo) CountActiveByTeam(ctx context.Context, exec repositories.SQLExecutor, gameID, minPerTeam int) ([]models.TeamCount, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	byTeam := make(map[int]int)
	for _, p := range r.d.gameParts[gameID] {
		if p.Status == models.ParticipantActive {
			byTeam[p.Team]++
		}
	}
	return teamCountsAtLeast(byTeam, minPerTeam), nil
}

func (r *fakeGameParticipantRepo) EliminateBatch(ctx context.Context, exec repositories.SQLExecutor, gameID int, userIDs []string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, did := range userIDs {
		if p, ok := r.d.gameParts[gameID][did]; ok {
			p.Status = models.ParticipantEliminated
		}
	}
	return nil
}

func (r *fakeGameParticipantRepo) ActiveTeamScores(ctx context.Context, exec repositories.SQLExecutor, gameID int) ([]models.TeamScore, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	gameRounds := make(map[int]bool)
	for id, rd := range r.d.rounds {
		if rd.GameID == gameID {
			gameRounds[id] = true
		}
	}

	type agg struct {
		players map[string]bool
		likes   int
	}
	byTeam := make(map[int]*agg)
	for _, p := range r.d.gameParts[gameID] {
		if p.Status != models.ParticipantActive {
			continue
		}
		for roundID, parts := range r.d.roundParts {
			if !gameRounds[roundID] {
				continue
			}
			rp, ok := parts[p.UserID]
			if !ok {
				continue
			}
			a := byTeam[p.Team]
			if a == nil {
				a = &agg{players: make(map[string]bool)}
				byTeam[p.Team] = a
			}
			a.players[p.UserID] = true
			a.likes += rp.TotalLikes
		}
	}

	scores := make([]models.TeamScore, 0, len(byTeam))
	for team, a := range byTeam {
		scores = append(scores, models.TeamScore{Team: team, PlayerCount: len(a.players), TotalLikes: a.likes})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].TotalLikes != scores[j].TotalLikes {
			return scores[i].TotalLikes > scores[j].TotalLikes
		}
		return scores[i].Team < scores[j].Team
	})
	return scores, nil
}

func (r *fakeGameParticipantRepo) TeamPlayerStats(ctx context.Context, gameID int) ([]models.TeamPlayerStat, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	byTeam := make(map[int]*models.TeamPlayerStat)
	for _, p := range r.d.gameParts[gameID] {
		s := byTeam[p.Team]
		if s == nil {
			s = &models.TeamPlayerStat{Team: p.Team}
			byTeam[p.Team] = s
		}
		s.TotalPlayers++
		if p.Status == models.ParticipantActive {
			s.ActivePlayers++
		}
	}
	stats := make([]models.TeamPlayerStat, 0, len(byTeam))
	for _, s := range byTeam {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Team < stats[j].Team })
	return stats, nil
}

// ---- rounds ----

type fakeRoundRepo struct{ d *fakeData }

func (r *fakeRoundRepo) Create(ctx context.Context, exec repositories.SQLExecutor, rd *models.Round) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	rd.ID = r.d.nextRoundID
	r.d.nextRoundID++
	cp := *rd
	r.d.rounds[rd.ID] = &cp
	return nil
}

func (r *fakeRoundRepo) GetByID(ctx context.Context, id int) (*models.Round, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	rd, ok := r.d.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	cp := *rd
	return &cp, nil
}

func (r *fakeRoundRepo) GetActiveByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Round, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	rd, ok := r.d.rounds[id]
	if !ok || rd.Status != models.RoundStatusActive {
		return nil, repositories.ErrRoundNotFound
	}
	cp := *rd
	return &cp, nil
}

func (r *fakeRoundRepo) Complete(ctx context.Context, exec repositories.SQLExecutor, id, cutoffLikes int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	rd, ok := r.d.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	rd.Status = models.RoundStatusCompleted
	cutoff := cutoffLikes
	rd.CutoffLikes = &cutoff
	return nil
}

func (r *fakeRoundRepo) ListSummariesByGame(ctx context.Context, gameID int) ([]models.RoundSummary, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	summaries := make([]models.RoundSummary, 0)
	for _, rd := range r.d.rounds {
		if rd.GameID != gameID {
			continue
		}
		s := models.RoundSummary{Round: *rd}
		for _, e := range r.d.elims {
			if e.RoundID == rd.ID {
				s.EliminationCount++
			}
		}
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].StartTime.Before(summaries[j].StartTime) })
	return summaries, nil
}

// ---- round participants ----

type fakeRoundParticipantRepo struct{ d *fakeData }

func (r *fakeRoundParticipantRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, participants []models.RoundParticipant) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, p := range participants {
		if r.d.roundParts[p.RoundID] == nil {
			r.d.roundParts[p.RoundID] = make(map[string]*models.RoundParticipant)
		}
		cp := p
		r.d.roundParts[p.RoundID][p.UserID] = &cp
	}
	return nil
}

func (r *fakeRoundParticipantRepo) listActive(roundID int, team *int) []models.RoundParticipant {
	parts := make([]models.RoundParticipant, 0)
	for _, p := range r.d.roundParts[roundID] {
		if p.Status != models.ParticipantActive {
			continue
		}
		if team != nil && p.Team != *team {
			continue
		}
		parts = append(parts, *p)
	}
	return parts
}

func (r *fakeRoundParticipantRepo) ListActive(ctx context.Context, exec repositories.SQLExecutor, roundID int) ([]models.RoundParticipant, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	parts := r.listActive(roundID, nil)
	sort.Slice(parts, func(i, j int) bool { return parts[i].UserID < parts[j].UserID })
	return parts, nil
}

func (r *fakeRoundParticipantRepo) ListActiveByTeam(ctx context.Context, exec repositories.SQLExecutor, roundID, team int) ([]models.RoundParticipant, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	parts := r.listActive(roundID, &team)
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].TotalLikes != parts[j].TotalLikes {
			return parts[i].TotalLikes < parts[j].TotalLikes
		}
		return parts[i].UserID < parts[j].UserID
	})
	return parts, nil
}

func (r *fakeRoundParticipantRepo) DistinctActiveTeams(ctx context.Context, exec repositories.SQLExecutor, roundID int) ([]int, error) {
	r.d.mu.Lock()
	hook := r.d.onDistinctTeams
	seen := make(map[int]bool)
	for _, p := range r.d.roundParts[roundID] {
		if p.Status == models.ParticipantActive {
			seen[p.Team] = true
		}
	}
	r.d.mu.Unlock()

	if hook != nil {
		hook()
	}

	teams := make([]int, 0, len(seen))
	for team := range seen {
		teams = append(teams, team)
	}
	sort.Ints(teams)
	return teams, nil
}

func (r *fakeRoundParticipantRepo) RecomputeTotalLikes(ctx context.Context, exec repositories.SQLExecutor, roundID, team int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, p := range r.d.roundParts[roundID] {
		if p.Team != team {
			continue
		}
		total := 0
		for _, post := range r.d.posts {
			if post.Active && post.UserID == p.UserID && post.RoundID != nil && *post.RoundID == roundID {
				total += post.LikeCount
			}
		}
		p.TotalLikes = total
	}
	return nil
}

func (r *fakeRoundParticipantRepo) EliminateBatch(ctx context.Context, exec repositories.SQLExecutor, roundID int, userIDs []string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, did := range userIDs {
		if p, ok := r.d.roundParts[roundID][did]; ok {
			p.Status = models.ParticipantEliminated
		}
	}
	return nil
}

func (r *fakeRoundParticipantRepo) MaxEliminatedTotal(ctx context.Context, exec repositories.SQLExecutor, roundID int) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	max := 0
	for _, p := range r.d.roundParts[roundID] {
		if p.Status == models.ParticipantEliminated && p.TotalLikes > max {
			max = p.TotalLikes
		}
	}
	return max, nil
}

func (r *fakeRoundParticipantRepo) CountActiveTeams(ctx context.Context, roundID int) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	seen := make(map[int]bool)
	for _, p := range r.d.roundParts[roundID] {
		if p.Status == models.ParticipantActive {
			seen[p.Team] = true
		}
	}
	return len(seen), nil
}

func (r *fakeRoundParticipantRepo) CountActiveUsers(ctx context.Context, roundID int) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return len(r.listActive(roundID, nil)), nil
}

func (r *fakeRoundParticipantRepo) MinActiveTotal(ctx context.Context, roundID int) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	min := 0
	first := true
	for _, p := range r.d.roundParts[roundID] {
		if p.Status != models.ParticipantActive {
			continue
		}
		if first || p.TotalLikes < min {
			min = p.TotalLikes
			first = false
		}
	}
	return min, nil
}

func (r *fakeRoundParticipantRepo) StatusBuckets(ctx context.Context, roundID int) ([]models.ParticipantBucket, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	type key struct {
		team   int
		status models.ParticipantStatus
	}
	byKey := make(map[key]int)
	for _, p := range r.d.roundParts[roundID] {
		byKey[key{p.Team, p.Status}]++
	}
	buckets := make([]models.ParticipantBucket, 0, len(byKey))
	for k, n := range byKey {
		buckets = append(buckets, models.ParticipantBucket{Team: k.team, Status: k.status, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Team != buckets[j].Team {
			return buckets[i].Team < buckets[j].Team
		}
		return buckets[i].Status < buckets[j].Status
	})
	return buckets, nil
}

// ---- posts ----

type fakePostRepo struct {
	d *fakeData

	lastFeedQuery repositories.FeedQuery
}

func (r *fakePostRepo) Insert(ctx context.Context, exec repositories.SQLExecutor, p *models.Post) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.posts[p.URI]; !ok {
		cp := *p
		r.d.posts[p.URI] = &cp
	}
	return nil
}

func (r *fakePostRepo) IncrementLikeCount(ctx context.Context, exec repositories.SQLExecutor, uri string, delta int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p, ok := r.d.posts[uri]
	if !ok {
		return repositories.ErrPostNotFound
	}
	p.LikeCount += delta
	if p.LikeCount < 0 {
		p.LikeCount = 0
	}
	return nil
}

func (r *fakePostRepo) Deactivate(ctx context.Context, exec repositories.SQLExecutor, uri string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p, ok := r.d.posts[uri]
	if !ok {
		return repositories.ErrPostNotFound
	}
	p.Active = false
	return nil
}

func (r *fakePostRepo) BackfillGameRound(ctx context.Context, exec repositories.SQLExecutor, gameID, roundID int, userIDs []string, from, to time.Time) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	ids := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		ids[id] = true
	}
	for _, p := range r.d.posts {
		if !p.Active || !ids[p.UserID] {
			continue
		}
		if p.GameID != nil && *p.GameID != gameID {
			continue
		}
		if p.IndexedAt.Before(from) || p.IndexedAt.After(to) {
			continue
		}
		g, rd := gameID, roundID
		p.GameID = &g
		p.RoundID = &rd
	}
	return nil
}

func (r *fakePostRepo) CountByGameRound(ctx context.Context, exec repositories.SQLExecutor, gameID, roundID int) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	count := 0
	for _, p := range r.d.posts {
		if p.GameID != nil && *p.GameID == gameID && p.RoundID != nil && *p.RoundID == roundID {
			count++
		}
	}
	return count, nil
}

func (r *fakePostRepo) RoundAggregates(ctx context.Context, roundID int) (int, int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	posts, likes := 0, 0
	for _, p := range r.d.posts {
		if p.Active && p.RoundID != nil && *p.RoundID == roundID {
			posts++
			likes += p.LikeCount
		}
	}
	return posts, likes, nil
}

// ListFeed mirrors the SQL predicates and ordering keys: team + cursor +
// active always; in game-aware mode untagged posts stay, other games' posts
// drop, and round-tagged posts require the author to still be an active round
// participant. Ranking is game-match desc (game-aware only), like_count desc,
// indexed_at desc.
func (r *fakePostRepo) ListFeed(ctx context.Context, q repositories.FeedQuery) ([]models.Post, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.lastFeedQuery = q

	inGame := func(p *models.Post) bool {
		return q.CurrentGameID != nil && p.GameID != nil && *p.GameID == *q.CurrentGameID
	}

	matched := make([]models.Post, 0)
	for _, p := range r.d.posts {
		if p.Team != q.Team || !p.Active || !p.IndexedAt.Before(q.Before) {
			continue
		}
		if q.CurrentGameID != nil && p.GameID != nil {
			if *p.GameID != *q.CurrentGameID {
				continue
			}
			if p.RoundID != nil {
				rp, ok := r.d.roundParts[*p.RoundID][p.UserID]
				if !ok || rp.Status != models.ParticipantActive {
					continue
				}
			}
		}
		matched = append(matched, *p)
	}

	sort.Slice(matched, func(i, j int) bool {
		if gi, gj := inGame(&matched[i]), inGame(&matched[j]); gi != gj {
			return gi
		}
		if matched[i].LikeCount != matched[j].LikeCount {
			return matched[i].LikeCount > matched[j].LikeCount
		}
		return matched[i].IndexedAt.After(matched[j].IndexedAt)
	})

	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// ---- eliminations ----

type fakeEliminationRepo struct{ d *fakeData }

func (r *fakeEliminationRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, eliminations []models.Elimination) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.d.elims = append(r.d.elims, eliminations...)
	return nil
}

func (r *fakeEliminationRepo) ListByTeam(ctx context.Context, team int) ([]models.Elimination, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	elims := make([]models.Elimination, 0)
	for _, e := range r.d.elims {
		if e.Team == team {
			elims = append(elims, e)
		}
	}
	sort.Slice(elims, func(i, j int) bool { return elims[i].RoundID > elims[j].RoundID })
	return elims, nil
}

func (r *fakeEliminationRepo) TeamCutoffs(ctx context.Context, roundID int) ([]models.TeamCutoff, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	byTeam := make(map[int]int)
	for _, e := range r.d.elims {
		if e.RoundID != roundID {
			continue
		}
		if cur, ok := byTeam[e.Team]; !ok || e.LikeCount > cur {
			byTeam[e.Team] = e.LikeCount
		}
	}
	cutoffs := make([]models.TeamCutoff, 0, len(byTeam))
	for team, likes := range byTeam {
		cutoffs = append(cutoffs, models.TeamCutoff{Team: team, CutoffLikes: likes})
	}
	sort.Slice(cutoffs, func(i, j int) bool { return cutoffs[i].Team < cutoffs[j].Team })
	return cutoffs, nil
}
