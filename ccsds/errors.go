package ccsds

import "fmt"

// ErrorCode is the 16-bit taxonomy shared by every layer of the core:
// the message buffer, the packet codec, and every service. Handlers
// never panic on a malformed packet; they return one of these instead.
type ErrorCode uint16

// Acceptance-phase errors (surfaced as TM[1,2] failed acceptance).
const (
	ErrNone ErrorCode = iota
	ErrMessageTooLarge
	ErrMessageTooShort
	ErrTooManyBitsAppend
	ErrByteBetweenBits
	ErrLengthLessThanExpected
	ErrWrongPUSVersion
	ErrTCSizeLessThanExpected
	ErrTMSizeLessThanExpected
	ErrTCSizeLargerThanExpected
	ErrUnacceptableMessage
	ErrInvalidArgument
	ErrOtherMessageType
)

// Start-of-execution / progress / completion / routing errors.
const (
	ErrInstructionExecutionStartError ErrorCode = iota + 100
	ErrSubServiceExecutionStartError
	ErrFunctionNotFound
	ErrMapFull
	ErrEventActionEnabledError
	ErrRequestedDeletionOfEnabledHK
	ErrRequestedNonExistingStructure
)

// Store / registry mapped errors.
const (
	ErrMemoryErrno ErrorCode = iota + 200
	ErrInvalidTimeStampInput
	ErrInvalidDate
)

func (e ErrorCode) String() string {
	switch e {
	case ErrNone:
		return "none"
	case ErrMessageTooLarge:
		return "message too large"
	case ErrMessageTooShort:
		return "message too short"
	case ErrTooManyBitsAppend:
		return "too many bits in append_bits"
	case ErrByteBetweenBits:
		return "byte-aligned append while write_bit_offset != 0"
	case ErrLengthLessThanExpected:
		return "packet length less than CCSDS primary header size"
	case ErrWrongPUSVersion:
		return "wrong PUS version"
	case ErrTCSizeLessThanExpected:
		return "TC packet shorter than its secondary header"
	case ErrTMSizeLessThanExpected:
		return "TM packet shorter than its secondary header"
	case ErrTCSizeLargerThanExpected:
		return "data length field exceeds MAX_MSG"
	case ErrUnacceptableMessage:
		return "unacceptable message"
	case ErrInvalidArgument:
		return "invalid argument"
	case ErrOtherMessageType:
		return "unrecognized service or message type"
	case ErrInstructionExecutionStartError:
		return "instruction execution start error"
	case ErrSubServiceExecutionStartError:
		return "sub-service execution start error"
	case ErrFunctionNotFound:
		return "function not found"
	case ErrMapFull:
		return "map full"
	case ErrEventActionEnabledError:
		return "event-action binding already enabled"
	case ErrRequestedDeletionOfEnabledHK:
		return "requested deletion of an enabled housekeeping structure"
	case ErrRequestedNonExistingStructure:
		return "requested non-existing structure"
	case ErrMemoryErrno:
		return "memory store error"
	case ErrInvalidTimeStampInput:
		return "invalid timestamp input"
	case ErrInvalidDate:
		return "invalid date"
	default:
		return fmt.Sprintf("error code %d", uint16(e))
	}
}

func (e ErrorCode) Error() string { return e.String() }
