package dto

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/miu/unidesk/internal/pkg/apperrors"
)

const ballotFieldPrefix = "position_"

// BallotField returns the form field name for a position, e.g. "position_3"
func BallotField(positionID int64) string {
	return ballotFieldPrefix + strconv.FormatInt(positionID, 10)
}

// ParseBallot reads every position_<id> field of a submitted ballot.
// Empty fields are skipped; a malformed id is a validation error.
func ParseBallot(form url.Values) (map[int64]int64, error) {
	selections := make(map[int64]int64)
	for key, values := range form {
		if !strings.HasPrefix(key, ballotFieldPrefix) || len(values) == 0 || values[0] == "" {
			continue
		}
		positionID, err := strconv.ParseInt(strings.TrimPrefix(key, ballotFieldPrefix), 10, 64)
		if err != nil || positionID <= 0 {
			return nil, fmt.Errorf("%w: invalid ballot field %q", apperrors.ErrValidationFailed, key)
		}
		candidateID, err := strconv.ParseInt(values[0], 10, 64)
		if err != nil || candidateID <= 0 {
			return nil, fmt.Errorf("%w: invalid candidate for %q", apperrors.ErrValidationFailed, key)
		}
		selections[positionID] = candidateID
	}
	return selections, nil
}
