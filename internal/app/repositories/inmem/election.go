package inmem

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/pkg/apperrors"
)

func (d *DB) deleteVoter(id int64) {
	delete(d.voters, id)
	for vid, v := range d.votes {
		if v.VoterID == id {
			delete(d.votes, vid)
		}
	}
}

func (d *DB) deletePosition(id int64) {
	delete(d.positions, id)
	for cid, c := range d.candidates {
		if c.PositionID == id {
			d.deleteCandidate(cid)
		}
	}
	for vid, v := range d.votes {
		if v.PositionID == id {
			delete(d.votes, vid)
		}
	}
}

func (d *DB) deleteCandidate(id int64) {
	delete(d.candidates, id)
	for vid, v := range d.votes {
		if v.CandidateID == id {
			delete(d.votes, vid)
		}
	}
}

// VoterRepository stores voter accounts in memory
type VoterRepository struct{ db *DB }

func (r *VoterRepository) checkUnique(v *models.Voter) error {
	for id, other := range r.db.voters {
		if id == v.ID {
			continue
		}
		if other.Email == v.Email {
			return apperrors.ErrEmailAlreadyExists
		}
		if other.RegNo == v.RegNo {
			return apperrors.ErrRegNoAlreadyExists
		}
	}
	return nil
}

func (r *VoterRepository) Create(_ context.Context, v *models.Voter) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.checkUnique(v); err != nil {
		return err
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	v.ID = r.db.next("voters")
	r.db.voters[v.ID] = *v
	return nil
}

func (r *VoterRepository) find(match func(models.Voter) bool, key interface{}) (*models.Voter, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, id := range sortedIDs(r.db.voters) {
		if v := r.db.voters[id]; match(v) {
			return &v, nil
		}
	}
	return nil, notFound("voter", key)
}

func (r *VoterRepository) GetByID(_ context.Context, id int64) (*models.Voter, error) {
	return r.find(func(v models.Voter) bool { return v.ID == id }, id)
}

func (r *VoterRepository) GetByRegNo(_ context.Context, regNo string) (*models.Voter, error) {
	return r.find(func(v models.Voter) bool { return v.RegNo == regNo }, regNo)
}

func (r *VoterRepository) GetByEmail(_ context.Context, email string) (*models.Voter, error) {
	return r.find(func(v models.Voter) bool { return strings.EqualFold(v.Email, email) }, email)
}

func (r *VoterRepository) List(_ context.Context, q models.ListQuery) ([]models.Voter, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	f, err := parseFilters(q, nil, []string{"is_active", "has_voted", "is_staff"})
	if err != nil {
		return nil, 0, err
	}
	out := []models.Voter{}
	for _, id := range sortedIDs(r.db.voters) {
		v := r.db.voters[id]
		if matches(q.Search, v.Name, v.RegNo, v.Email) &&
			f.boolIs("is_active", v.IsActive) && f.boolIs("has_voted", v.HasVoted) && f.boolIs("is_staff", v.IsStaff) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	items, total := page(out, q)
	return items, total, nil
}

func (r *VoterRepository) Update(_ context.Context, v *models.Voter) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	old, ok := r.db.voters[v.ID]
	if !ok {
		return notFound("voter", v.ID)
	}
	if err := r.checkUnique(v); err != nil {
		return err
	}
	stored := *v
	stored.PasswordHash = old.PasswordHash
	stored.CreatedAt = old.CreatedAt
	r.db.voters[v.ID] = stored
	return nil
}

func (r *VoterRepository) SetPassword(_ context.Context, id int64, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	v, ok := r.db.voters[id]
	if !ok {
		return notFound("voter", id)
	}
	v.PasswordHash = hash
	r.db.voters[id] = v
	return nil
}

func (r *VoterRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.voters[id]; !ok {
		return notFound("voter", id)
	}
	r.db.deleteVoter(id)
	return nil
}

func (r *VoterRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.voters)), nil
}

// PositionRepository stores positions in memory
type PositionRepository struct{ db *DB }

func (r *PositionRepository) Create(_ context.Context, p *models.Position) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p.ID = r.db.next("positions")
	r.db.positions[p.ID] = *p
	return nil
}

func (r *PositionRepository) GetByID(_ context.Context, id int64) (*models.Position, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.positions[id]
	if !ok {
		return nil, notFound("position", id)
	}
	return &p, nil
}

func (r *PositionRepository) List(_ context.Context, q models.ListQuery) ([]models.Position, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.Position{}
	for _, id := range sortedIDs(r.db.positions) {
		if p := r.db.positions[id]; matches(q.Search, p.Title) {
			out = append(out, p)
		}
	}
	items, total := page(out, q)
	return items, total, nil
}

func (r *PositionRepository) ListAll(_ context.Context) ([]models.Position, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.Position, 0, len(r.db.positions))
	for _, id := range sortedIDs(r.db.positions) {
		out = append(out, r.db.positions[id])
	}
	return out, nil
}

func (r *PositionRepository) Update(_ context.Context, p *models.Position) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.positions[p.ID]; !ok {
		return notFound("position", p.ID)
	}
	r.db.positions[p.ID] = *p
	return nil
}

func (r *PositionRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.positions[id]; !ok {
		return notFound("position", id)
	}
	r.db.deletePosition(id)
	return nil
}

func (r *PositionRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.positions)), nil
}

// CandidateRepository stores candidates in memory
type CandidateRepository struct{ db *DB }

func (r *CandidateRepository) check(c *models.Candidate, op string) error {
	if _, ok := r.db.positions[c.PositionID]; !ok {
		return missingRef(op)
	}
	for id, other := range r.db.candidates {
		if id != c.ID && other.Email == c.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	return nil
}

func (r *CandidateRepository) view(c models.Candidate) models.Candidate {
	if p, ok := r.db.positions[c.PositionID]; ok {
		c.Position = &p
	}
	c.VoteCount = 0
	for _, v := range r.db.votes {
		if v.CandidateID == c.ID {
			c.VoteCount++
		}
	}
	return c
}

func (r *CandidateRepository) Create(_ context.Context, c *models.Candidate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.check(c, "creating candidate"); err != nil {
		return err
	}
	if c.Votes < 0 {
		return apperrors.ErrValidationFailed
	}
	c.ID = r.db.next("candidates")
	stored := *c
	stored.Position = nil
	r.db.candidates[c.ID] = stored
	return nil
}

func (r *CandidateRepository) GetByID(_ context.Context, id int64) (*models.Candidate, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.candidates[id]
	if !ok {
		return nil, notFound("candidate", id)
	}
	c = r.view(c)
	return &c, nil
}

// ordered returns every candidate ordered by position then id
func (r *CandidateRepository) ordered() []models.Candidate {
	out := make([]models.Candidate, 0, len(r.db.candidates))
	for _, id := range sortedIDs(r.db.candidates) {
		out = append(out, r.view(r.db.candidates[id]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PositionID < out[j].PositionID })
	return out
}

func (r *CandidateRepository) List(_ context.Context, q models.ListQuery) ([]models.Candidate, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	f, err := parseFilters(q, []string{"position"}, nil)
	if err != nil {
		return nil, 0, err
	}
	out := []models.Candidate{}
	for _, c := range r.ordered() {
		title := ""
		if c.Position != nil {
			title = c.Position.Title
		}
		if matches(q.Search, c.Name, c.Email, title) && f.intIs("position", c.PositionID) {
			out = append(out, c)
		}
	}
	items, total := page(out, q)
	return items, total, nil
}

func (r *CandidateRepository) ListWithVotes(_ context.Context) ([]models.Candidate, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.ordered(), nil
}

func (r *CandidateRepository) Update(_ context.Context, c *models.Candidate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	old, ok := r.db.candidates[c.ID]
	if !ok {
		return notFound("candidate", c.ID)
	}
	if err := r.check(c, "updating candidate"); err != nil {
		return err
	}
	stored := *c
	stored.Position = nil
	stored.Votes = old.Votes
	stored.VoteCount = 0
	r.db.candidates[c.ID] = stored
	return nil
}

func (r *CandidateRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.candidates[id]; !ok {
		return notFound("candidate", id)
	}
	r.db.deleteCandidate(id)
	return nil
}

func (r *CandidateRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.candidates)), nil
}

// VoteRepository stores votes in memory
type VoteRepository struct{ db *DB }

// CastBallot applies the whole ballot under the write lock or nothing at all
func (r *VoteRepository) CastBallot(_ context.Context, voterID int64, votes []models.Vote) error {
	if len(votes) == 0 {
		return apperrors.ErrEmptyBallot
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	voter, ok := r.db.voters[voterID]
	if !ok {
		return notFound("voter", voterID)
	}

	held := make(map[int64]bool)
	for _, v := range r.db.votes {
		if v.VoterID == voterID {
			held[v.PositionID] = true
		}
	}

	submitted := make(map[int64]bool, len(votes))
	var lowest *int64
	for _, v := range votes {
		if _, ok := r.db.candidates[v.CandidateID]; !ok {
			return missingRef("casting vote")
		}
		if _, ok := r.db.positions[v.PositionID]; !ok {
			return missingRef("casting vote")
		}
		if held[v.PositionID] || submitted[v.PositionID] {
			if lowest == nil || v.PositionID < *lowest {
				id := v.PositionID
				lowest = &id
			}
		}
		submitted[v.PositionID] = true
	}
	if lowest != nil {
		return &apperrors.AlreadyVotedError{PositionID: *lowest, PositionTitle: r.db.positions[*lowest].Title}
	}

	now := time.Now().UTC()
	for i := range votes {
		v := &votes[i]
		v.ID = r.db.next("votes")
		v.VoterID = voterID
		v.CreatedAt = now
		r.db.votes[v.ID] = models.Vote{
			ID: v.ID, VoterID: voterID, CandidateID: v.CandidateID, PositionID: v.PositionID, CreatedAt: now,
		}
		c := r.db.candidates[v.CandidateID]
		c.Votes++
		r.db.candidates[c.ID] = c
	}
	voter.HasVoted = true
	r.db.voters[voterID] = voter
	return nil
}

func (r *VoteRepository) VotedPositions(_ context.Context, voterID int64) (map[int64]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	voted := make(map[int64]int64)
	for _, v := range r.db.votes {
		if v.VoterID == voterID {
			voted[v.PositionID] = v.CandidateID
		}
	}
	return voted, nil
}

func (r *VoteRepository) view(v models.Vote) models.Vote {
	voter := r.db.voters[v.VoterID]
	candidate := r.db.candidates[v.CandidateID]
	position := r.db.positions[v.PositionID]
	v.Voter = &models.Voter{ID: v.VoterID, Name: voter.Name, RegNo: voter.RegNo}
	v.Candidate = &models.Candidate{ID: v.CandidateID, Name: candidate.Name, PositionID: v.PositionID}
	v.Position = &position
	return v
}

func (r *VoteRepository) GetByID(_ context.Context, id int64) (*models.Vote, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	v, ok := r.db.votes[id]
	if !ok {
		return nil, notFound("vote", id)
	}
	v = r.view(v)
	return &v, nil
}

func (r *VoteRepository) List(_ context.Context, q models.ListQuery) ([]models.Vote, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	f, err := parseFilters(q, []string{"candidate", "position", "voter"}, nil)
	if err != nil {
		return nil, 0, err
	}
	out := []models.Vote{}
	ids := sortedIDs(r.db.votes)
	for i := len(ids) - 1; i >= 0; i-- {
		v := r.view(r.db.votes[ids[i]])
		if matches(q.Search, v.Voter.Name, v.Voter.RegNo, v.Candidate.Name, v.Position.Title) &&
			f.intIs("candidate", v.CandidateID) && f.intIs("position", v.PositionID) && f.intIs("voter", v.VoterID) {
			out = append(out, v)
		}
	}
	items, total := page(out, q)
	return items, total, nil
}

// Delete removes a vote, decrements the tally and clears has_voted when the
// voter holds no other vote
func (r *VoteRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	v, ok := r.db.votes[id]
	if !ok {
		return notFound("vote", id)
	}
	delete(r.db.votes, id)

	if c, ok := r.db.candidates[v.CandidateID]; ok && c.Votes > 0 {
		c.Votes--
		r.db.candidates[c.ID] = c
	}

	if voter, ok := r.db.voters[v.VoterID]; ok {
		voter.HasVoted = false
		for _, other := range r.db.votes {
			if other.VoterID == v.VoterID {
				voter.HasVoted = true
				break
			}
		}
		r.db.voters[voter.ID] = voter
	}
	return nil
}

func (r *VoteRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.votes)), nil
}

// AuditRepository keeps the change log in memory
type AuditRepository struct{ db *DB }

func (r *AuditRepository) Create(_ context.Context, e *models.AuditEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.ID = r.db.next("audit_log")
	r.db.audit = append(r.db.audit, *e)
	return nil
}

func (r *AuditRepository) List(_ context.Context, q models.ListQuery) ([]models.AuditEntry, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	f, err := parseFilters(q, nil, nil)
	if err != nil {
		return nil, 0, err
	}
	out := []models.AuditEntry{}
	for i := len(r.db.audit) - 1; i >= 0; i-- {
		e := r.db.audit[i]
		if matches(q.Search, e.Actor, e.ObjectRepr, e.Message) &&
			f.strIs("object_type", e.ObjectType) && f.strIs("action", string(e.Action)) {
			out = append(out, e)
		}
	}
	items, total := page(out, q)
	return items, total, nil
}
