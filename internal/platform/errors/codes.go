package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Lookup errors
	CodeDistrictNotFound Code = "DISTRICT_NOT_FOUND"
	CodeLevelNotFound    Code = "LEVEL_NOT_FOUND"
	CodeTreeNotFound     Code = "TREE_NOT_FOUND"
	CodeNodeNotFound     Code = "NODE_NOT_FOUND"
	CodeBranchNotFound   Code = "BRANCH_NOT_FOUND"
	CodePathNotFound     Code = "PATH_NOT_FOUND"
	CodeCardNotFound     Code = "CARD_NOT_FOUND"
	CodeBossNotFound     Code = "BOSS_NOT_FOUND"

	// Trajectory errors
	CodeTrajectoryNotStarted Code = "TRAJECTORY_NOT_STARTED"
	CodeLevelNotFork         Code = "LEVEL_NOT_FORK"

	// Card errors
	CodeUnlockConditionUnmet Code = "UNLOCK_CONDITION_UNMET"
	CodeInsufficientEffort   Code = "INSUFFICIENT_EFFORT"
	CodeCardNotOwned         Code = "CARD_NOT_OWNED"
	CodeCardNotEquipped      Code = "CARD_NOT_EQUIPPED"

	// Session errors
	CodeSessionCooldown Code = "SESSION_COOLDOWN"

	// Validation errors
	CodeAnswerInvalid    Code = "ANSWER_INVALID"
	CodeContentInvalid   Code = "CONTENT_INVALID"
	CodePlayerIDRequired Code = "PLAYER_ID_REQUIRED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Not found - resource or transition doesn't exist
	case CodeDistrictNotFound,
		CodeLevelNotFound,
		CodeTreeNotFound,
		CodeNodeNotFound,
		CodeBranchNotFound,
		CodePathNotFound,
		CodeCardNotFound,
		CodeBossNotFound,
		CodeNotFound:
		return http.StatusNotFound

	// Failed precondition - state doesn't allow operation
	case CodeTrajectoryNotStarted,
		CodeLevelNotFork,
		CodeUnlockConditionUnmet,
		CodeInsufficientEffort,
		CodeCardNotOwned,
		CodeCardNotEquipped,
		CodeSessionCooldown:
		return http.StatusConflict

	// Invalid argument - validation failures, bad input
	case CodeAnswerInvalid,
		CodeContentInvalid,
		CodePlayerIDRequired:
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
