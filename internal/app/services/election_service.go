package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sort"
	"time"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/filestorage"
	"github.com/miu/unidesk/internal/pkg/metrics"
	"github.com/miu/unidesk/internal/pkg/validation"
	"github.com/miu/unidesk/internal/pkg/websocket"
	"github.com/rs/zerolog"
)

// MsgNoSelection is shown when a ballot is submitted without any choice
const MsgNoSelection = "Please select at least one candidate."

var candidateUnique = map[error][2]string{
	apperrors.ErrEmailAlreadyExists: {"email", "Candidate with this email already exists."},
}

// ElectionService runs the ballot and the election admin resources
type ElectionService interface {
	// Home groups every candidate under its position with live counts
	Home(ctx context.Context) (*dto.HomePage, error)
	// BallotFor builds the voting page of a voter, marking positions already voted
	BallotFor(ctx context.Context, voterID int64) (*dto.Ballot, error)
	// CastBallot stores one vote per selected position, all or nothing.
	// selections maps position id to candidate id.
	CastBallot(ctx context.Context, voterID int64, selections map[int64]int64) error
	Results(ctx context.Context) (*dto.ResultsPage, error)

	CreatePosition(ctx context.Context, req dto.PositionRequest) (*models.Position, error)
	UpdatePosition(ctx context.Context, id int64, req dto.PositionRequest) (*models.Position, error)
	GetPosition(ctx context.Context, id int64) (*models.Position, error)
	ListPositions(ctx context.Context, q models.ListQuery) ([]models.Position, int64, error)
	DeletePosition(ctx context.Context, id int64) error

	CreateCandidate(ctx context.Context, req dto.CandidateRequest) (*models.Candidate, error)
	UpdateCandidate(ctx context.Context, id int64, req dto.CandidateRequest) (*models.Candidate, error)
	SetCandidateImage(ctx context.Context, id int64, file *multipart.FileHeader) (*models.Candidate, error)
	GetCandidate(ctx context.Context, id int64) (*models.Candidate, error)
	ListCandidates(ctx context.Context, q models.ListQuery) ([]models.Candidate, int64, error)
	DeleteCandidate(ctx context.Context, id int64) error

	GetVote(ctx context.Context, id int64) (*models.Vote, error)
	ListVotes(ctx context.Context, q models.ListQuery) ([]models.Vote, int64, error)
	DeleteVote(ctx context.Context, id int64) error
}

type electionServiceImpl struct {
	voters     VoterRepository
	positions  records[models.Position]
	candidates records[models.Candidate]
	posRepo    PositionRepository
	candRepo   CandidateRepository
	votes      VoteRepository
	audit      AuditService
	storage    filestorage.FileStorage
	publisher  Publisher
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

// NewElectionService creates a new election service. publisher and m may be nil.
func NewElectionService(
	store Store,
	audit AuditService,
	storage filestorage.FileStorage,
	publisher Publisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) ElectionService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &electionServiceImpl{
		voters:     store.Voters,
		positions:  records[models.Position]{repo: store.Positions, audit: audit, kind: "position", id: func(p *models.Position) int64 { return p.ID }},
		candidates: records[models.Candidate]{repo: store.Candidates, audit: audit, kind: "candidate", id: func(c *models.Candidate) int64 { return c.ID }},
		posRepo:    store.Positions,
		candRepo:   store.Candidates,
		votes:      store.Votes,
		audit:      audit,
		storage:    storage,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// tallies groups candidates under every position, positions without
// candidates included
func (s *electionServiceImpl) tallies(ctx context.Context) ([]dto.PositionTally, error) {
	positions, err := s.posRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := s.candRepo.ListWithVotes(ctx)
	if err != nil {
		return nil, err
	}

	byPosition := make(map[int64][]models.Candidate, len(positions))
	for _, c := range candidates {
		byPosition[c.PositionID] = append(byPosition[c.PositionID], c)
	}

	out := make([]dto.PositionTally, 0, len(positions))
	for _, p := range positions {
		t := dto.PositionTally{Position: p, Candidates: byPosition[p.ID]}
		if t.Candidates == nil {
			t.Candidates = []models.Candidate{}
		}
		for _, c := range t.Candidates {
			t.TotalVotes += c.VoteCount
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *electionServiceImpl) Home(ctx context.Context) (*dto.HomePage, error) {
	tallies, err := s.tallies(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.HomePage{Positions: tallies, Year: s.now().Year()}, nil
}

func (s *electionServiceImpl) BallotFor(ctx context.Context, voterID int64) (*dto.Ballot, error) {
	voter, err := s.voters.GetByID(ctx, voterID)
	if err != nil {
		return nil, err
	}
	tallies, err := s.tallies(ctx)
	if err != nil {
		return nil, err
	}
	voted, err := s.votes.VotedPositions(ctx, voterID)
	if err != nil {
		return nil, err
	}

	ballot := &dto.Ballot{Voter: *voter, Positions: make([]dto.BallotPosition, 0, len(tallies))}
	for _, t := range tallies {
		bp := dto.BallotPosition{Position: t.Position, Candidates: t.Candidates}
		if candidateID, ok := voted[t.Position.ID]; ok {
			id := candidateID
			bp.VotedFor = &id
		}
		ballot.Positions = append(ballot.Positions, bp)
	}
	return ballot, nil
}

func (s *electionServiceImpl) CastBallot(ctx context.Context, voterID int64, selections map[int64]int64) error {
	if len(selections) == 0 {
		return apperrors.FieldErrors{{Message: MsgNoSelection, Err: apperrors.ErrEmptyBallot}}
	}
	voter, err := s.voters.GetByID(ctx, voterID)
	if err != nil {
		return err
	}
	if !voter.IsActive {
		return apperrors.NewForbiddenError("This account is not allowed to vote.")
	}

	positionIDs := make([]int64, 0, len(selections))
	for positionID := range selections {
		positionIDs = append(positionIDs, positionID)
	}
	sort.Slice(positionIDs, func(i, j int) bool { return positionIDs[i] < positionIDs[j] })

	votes := make([]models.Vote, 0, len(selections))
	titles := make(map[int64]string, len(selections))
	for _, positionID := range positionIDs {
		candidate, err := s.candRepo.GetByID(ctx, selections[positionID])
		if err != nil {
			if errors.Is(err, apperrors.ErrResourceNotFound) {
				return apperrors.FieldErrors{apperrors.NewFieldError(dto.BallotField(positionID), "Select a valid candidate.")}
			}
			return err
		}
		if candidate.PositionID != positionID {
			return apperrors.FieldErrors{apperrors.NewFieldError(dto.BallotField(positionID), "This candidate is not standing for this position.")}
		}
		if candidate.Position != nil {
			titles[positionID] = candidate.Position.Title
		}
		votes = append(votes, models.Vote{VoterID: voterID, CandidateID: candidate.ID, PositionID: positionID})
	}

	if err := s.votes.CastBallot(ctx, voterID, votes); err != nil {
		var already *apperrors.AlreadyVotedError
		if errors.As(err, &already) {
			if already.PositionTitle == "" {
				already.PositionTitle = titles[already.PositionID]
			}
			s.metrics.BallotRejected()
			s.logger.Info().Int64("voterId", voterID).Int64("positionId", already.PositionID).Msg("Ballot rejected, position already voted")
		}
		return err
	}

	for _, positionID := range positionIDs {
		s.metrics.VoteCast(titles[positionID])
	}
	s.logger.Info().Int64("voterId", voterID).Int("votes", len(votes)).Msg("Ballot cast")

	tallies, err := s.tallies(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load tallies for vote event")
		return nil
	}
	s.publisher.Publish(websocket.EventVoteCast,
		fmt.Sprintf("%d vote(s) cast", len(votes)),
		dto.VoteCastEvent{VoterID: voterID, Tallies: tallies})
	return nil
}

func (s *electionServiceImpl) Results(ctx context.Context) (*dto.ResultsPage, error) {
	tallies, err := s.tallies(ctx)
	if err != nil {
		return nil, err
	}
	registered, err := s.voters.Count(ctx)
	if err != nil {
		return nil, err
	}
	page := &dto.ResultsPage{Positions: tallies, RegisteredVoters: registered}
	for _, t := range tallies {
		page.TotalVotes += t.TotalVotes
	}
	return page, nil
}

func (s *electionServiceImpl) CreatePosition(ctx context.Context, req dto.PositionRequest) (*models.Position, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	p := &models.Position{}
	req.Apply(p)
	if err := s.positions.create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *electionServiceImpl) UpdatePosition(ctx context.Context, id int64, req dto.PositionRequest) (*models.Position, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	p, err := s.positions.get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(p)
	if err := s.positions.update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *electionServiceImpl) GetPosition(ctx context.Context, id int64) (*models.Position, error) {
	return s.positions.get(ctx, id)
}

func (s *electionServiceImpl) ListPositions(ctx context.Context, q models.ListQuery) ([]models.Position, int64, error) {
	return s.positions.list(ctx, q)
}

func (s *electionServiceImpl) DeletePosition(ctx context.Context, id int64) error {
	return s.positions.delete(ctx, id)
}

func (s *electionServiceImpl) CreateCandidate(ctx context.Context, req dto.CandidateRequest) (*models.Candidate, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	c := &models.Candidate{}
	req.Apply(c)
	if err := s.candidates.create(ctx, c); err != nil {
		return nil, uniqueField(err, candidateUnique)
	}
	return s.candidates.get(ctx, c.ID)
}

func (s *electionServiceImpl) UpdateCandidate(ctx context.Context, id int64, req dto.CandidateRequest) (*models.Candidate, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	c, err := s.candidates.get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(c)
	if err := s.candidates.update(ctx, c); err != nil {
		return nil, uniqueField(err, candidateUnique)
	}
	return s.candidates.get(ctx, id)
}

func (s *electionServiceImpl) SetCandidateImage(ctx context.Context, id int64, file *multipart.FileHeader) (*models.Candidate, error) {
	if err := checkUpload(file, "image", filestorage.DirCandidateImages); err != nil {
		return nil, err
	}
	c, err := s.candidates.get(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := s.storage.Save(ctx, file, filestorage.DirCandidateImages)
	if err != nil {
		return nil, fmt.Errorf("failed to store candidate image: %w", err)
	}
	old := c.ImageURL
	c.ImageURL = &url
	if err := s.candidates.update(ctx, c); err != nil {
		_ = s.storage.Delete(ctx, url)
		return nil, err
	}
	if old != nil && *old != "" {
		if err := s.storage.Delete(ctx, *old); err != nil {
			s.logger.Warn().Err(err).Str("url", *old).Msg("Failed to delete replaced candidate image")
		}
	}
	return c, nil
}

func (s *electionServiceImpl) GetCandidate(ctx context.Context, id int64) (*models.Candidate, error) {
	return s.candidates.get(ctx, id)
}

func (s *electionServiceImpl) ListCandidates(ctx context.Context, q models.ListQuery) ([]models.Candidate, int64, error) {
	return s.candidates.list(ctx, q)
}

func (s *electionServiceImpl) DeleteCandidate(ctx context.Context, id int64) error {
	c, err := s.candidates.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.candidates.delete(ctx, id); err != nil {
		return err
	}
	if c.ImageURL != nil && *c.ImageURL != "" {
		if err := s.storage.Delete(ctx, *c.ImageURL); err != nil {
			s.logger.Warn().Err(err).Str("url", *c.ImageURL).Msg("Failed to delete candidate image")
		}
	}
	return nil
}

func (s *electionServiceImpl) GetVote(ctx context.Context, id int64) (*models.Vote, error) {
	return s.votes.GetByID(ctx, id)
}

func (s *electionServiceImpl) ListVotes(ctx context.Context, q models.ListQuery) ([]models.Vote, int64, error) {
	return s.votes.List(ctx, q)
}

// DeleteVote removes a vote. The candidate's stored tally drops with it.
func (s *electionServiceImpl) DeleteVote(ctx context.Context, id int64) error {
	vote, err := s.votes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.votes.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, models.AuditDeletion, "vote", id, vote.String(), "")
	return nil
}
