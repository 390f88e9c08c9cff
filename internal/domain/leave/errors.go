package leave

import "github.com/cmlabs-hris/hris-portal-go/internal/pkg/apperror"

var (
	ErrLeaveRequestNotFound = apperror.NotFound("leave request not found")
	ErrResponseNotFound     = apperror.NotFound("leave response not found")
	ErrBalanceNotFound      = apperror.NotFound("leave balance not found")

	ErrInvalidLeaveType    = apperror.Validation("leave_type must be one of: PTO, Sick")
	ErrInvalidDateRange    = apperror.Validation("end_date must not be before start_date")
	ErrInvalidStatus       = apperror.Validation("status must be one of: Pending, Approved, Rejected")
	ErrEmptyResponse       = apperror.Validation("response content is required")
	ErrAllocationBelowUsed = apperror.Validation("allocation cannot be lower than the days already booked")

	ErrInsufficientBalance = apperror.Conflict("insufficient leave balance")
	ErrOverlappingLeave    = apperror.Conflict("overlap detected with an existing leave")
	ErrAlreadyProcessed    = apperror.Conflict("leave request has already been processed")
	ErrReopenRejected      = apperror.Conflict("a rejected leave request can only be approved")

	ErrReviewForbidden     = apperror.Permission("you are not allowed to change the status of leave requests")
	ErrSelfReview          = apperror.Permission("you cannot update the status of your own leave request")
	ErrNotLeaveOwner       = apperror.Permission("only the requester can update a pending leave request")
	ErrNotResponseAuthor   = apperror.Permission("you can only change your own responses")
	ErrAllocationForbidden = apperror.Permission("you can only update leaves for your direct reports")
)
