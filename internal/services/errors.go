package services

// Rejection is an expected, user-facing refusal of an operation: wrong
// phase, bad ballot shape, duplicate vote and so on. Rejections are
// distinct from transport or store failures so callers can tell "don't
// retry, fix the request" from "retry later".
type Rejection struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (r *Rejection) Error() string { return r.Message }

func reject(code, message string) *Rejection {
	return &Rejection{Code: code, Message: message}
}

// Voting rejections. Messages are the exact user-facing strings; the
// calling interface presents them verbatim.
var (
	ErrVotingClosed     = reject("voting_closed", "voting not active")
	ErrInvalidPoints    = reject("invalid_points", "invalid points value: allowed values are 1, 8, 10 and 12")
	ErrEntriesNotFound  = reject("entries_not_found", "one or more costumes not found")
	ErrSelfVote         = reject("self_vote", "cannot vote for your own costume")
	ErrAlreadyVoted     = reject("already_voted", "already voted this phase")
	ErrNotEligible      = reject("not_eligible", "must have voted in the first round to vote in the final")
	ErrNotFinalist      = reject("not_finalist", "costume is not a finalist")
	ErrBallotSize       = reject("ballot_size", "first-round ballot must rank exactly 3 costumes")
	ErrBallotPoints     = reject("ballot_points", "first-round ballot points must be exactly 12, 10 and 8")
	ErrFinalBallotSize  = reject("final_ballot_size", "final-round ballot must pick exactly 1 costume")
	ErrFinalPoints      = reject("final_points", "final-round vote must be exactly 1 point")
	ErrUnknownRound     = reject("unknown_round", "unknown voting round")
	ErrInvalidPhone     = reject("invalid_phone", "invalid phone number")
	ErrPhoneRegistered  = reject("phone_registered", "phone already registered")
	ErrUploadsClosed    = reject("uploads_closed", "costume registration is closed")
	ErrNotEnoughEntries = reject("not_enough_participants", "not enough participants")
)
